package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"davmcp/internal/config"
	"davmcp/internal/dav"
	"davmcp/internal/domain"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	var checkRemote bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your davmcp installation",
		Long: `Verifies that davmcp's configuration, credentials, and audit database
are correctly set up. Reports pass/fail for each check. With --remote it also
probes the CalDAV server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("davmcp Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'davmcp init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return fmt.Errorf("%d check(s) failed", failed)
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Credential mode
			switch cfg.Remote.CredentialMode() {
			case domain.ModePassword:
				printPass("Credentials", fmt.Sprintf("password auth as %s", cfg.Remote.Username))
				passed++
			case domain.ModeToken:
				printPass("Credentials", fmt.Sprintf("token auth as %s", cfg.Remote.Username))
				passed++
			default:
				printWarn("Credentials", "none configured, remote tools will be disabled")
				warned++
			}

			// 4. Audit database writable
			if cfg.Audit.Enabled {
				dbPath := config.ExpandPath(cfg.Audit.DBPath)
				if err := checkDatabase(dbPath); err != nil {
					printFail("Audit database", err.Error())
					failed++
				} else {
					printPass("Audit database", dbPath)
					passed++
				}
			} else {
				printWarn("Audit database", "disabled")
				warned++
			}

			// 5. Remote reachability (opt-in, makes network calls)
			if checkRemote {
				if cfg.Remote.CredentialMode() == domain.ModeNone {
					printWarn("Remote server", "skipped: no credentials")
					warned++
				} else {
					ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
					client := dav.NewClient(cfg.Remote, logger)
					if err := client.Initialize(ctx); err != nil {
						printFail("Remote server", err.Error())
						failed++
					} else if err := client.Ping(ctx); err != nil {
						printFail("Remote server", err.Error())
						failed++
					} else {
						printPass("Remote server", cfg.Remote.ServerURL)
						passed++
					}
					cancel()
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running davmcp.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\ndavmcp should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! davmcp is ready to run.\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkRemote, "remote", false, "probe the CalDAV server over the network")
	return cmd
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}

	// Try a write.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")

	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
