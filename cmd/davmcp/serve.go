package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"davmcp/internal/audit"
	"davmcp/internal/config"
	"davmcp/internal/dav"
	"davmcp/internal/domain"
	"davmcp/internal/mcp"
	"davmcp/internal/tool"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: "Reads JSON-RPC requests from stdin and writes responses to stdout. " +
			"All diagnostics go to stderr. Runs until stdin closes or a signal arrives.",
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) (retErr error) {
	cfgPath := resolveConfigPath()
	cfg, err := loadServeConfig(cfgPath)
	if err != nil {
		logger.Error("config rejected", "path", cfgPath, "err", err)
		return err
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.General.LogLevel),
	}))
	logger.Info("starting", "version", version, "config", cfgPath,
		"credentialMode", cfg.Remote.CredentialMode())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The remote session is optional at startup. A server without
	// credentials still serves tools/list and server_info; remote tools
	// fail per call with configuration guidance.
	client := dav.NewClient(cfg.Remote, logger)
	if cfg.Remote.CredentialMode() != domain.ModeNone {
		if err := client.Initialize(ctx); err != nil {
			logger.Warn("remote session initialization failed, continuing without it", "err", err)
		}
	} else {
		logger.Info("no remote credentials configured, remote tools disabled")
	}

	var store *audit.Store
	if cfg.Audit.Enabled {
		store, err = audit.Open(config.ExpandPath(cfg.Audit.DBPath), logger)
		if err != nil {
			logger.Error("audit store open failed", "path", cfg.Audit.DBPath, "err", err)
			return err
		}
		defer func() { retErr = releaseAudit(retErr, store) }()

		if cfg.Audit.RetentionDays > 0 {
			retention := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour
			if n, err := store.Prune(ctx, retention); err != nil {
				logger.Warn("audit prune failed", "err", err)
			} else if n > 0 {
				logger.Info("pruned old audit entries", "removed", n, "retentionDays", cfg.Audit.RetentionDays)
			}
		}
	}

	// server_info reports catalogue counts, so its counts closure resolves
	// against the registry it will itself be registered in.
	var registry *tool.Registry
	counts := func() map[string]int { return registry.CategoryCounts() }
	registry, err = tool.NewRegistry(logger,
		tool.CalendarTools(client),
		tool.ContactTools(client),
		tool.TaskTools(client),
		[]domain.Tool{tool.NewServerInfoTool(version, client, counts)},
	)
	if err != nil {
		return err
	}
	logger.Info("tool catalogue built", "tools", registry.Len())

	var recorder mcp.Recorder
	if store != nil {
		recorder = store
	}
	lifecycle := mcp.NewLifecycle(logger, recorder)
	dispatcher := mcp.NewDispatcher(registry, client, lifecycle, logger, cfg.General.DevMode)

	if client.Initialized() && cfg.Remote.KeepaliveSeconds > 0 {
		go client.Keepalive(ctx, time.Duration(cfg.Remote.KeepaliveSeconds)*time.Second)
	}

	server := mcp.NewServer(mcp.ServerConfig{
		Name:       cfg.General.ServerName,
		Version:    version,
		Transport:  mcp.NewTransport(os.Stdin, os.Stdout, logger),
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	err = server.Run(ctx)
	stop()
	if err != nil {
		logger.Error("server stopped with error", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// loadServeConfig loads the config for serve. A missing file falls back to
// defaults; a file that exists but cannot be parsed or validated is a
// startup failure, not something to paper over with defaults.
func loadServeConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("config not found, starting with defaults", "path", path)
		return config.Defaults(), nil
	}
	return nil, err
}

// releaseAudit closes the audit store once the request loop ends. A failed
// release fails the process even when the loop itself ended clean.
func releaseAudit(runErr error, store io.Closer) error {
	err := store.Close()
	if err == nil {
		return runErr
	}
	logger.Error("audit store close failed", "err", err)
	if runErr == nil {
		return fmt.Errorf("release audit store: %w", err)
	}
	return runErr
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
