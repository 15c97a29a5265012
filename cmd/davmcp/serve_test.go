package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func init() {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCloser struct {
	err    error
	closed bool
}

func (c *stubCloser) Close() error {
	c.closed = true
	return c.err
}

func TestReleaseAuditFailureFailsCleanRun(t *testing.T) {
	closer := &stubCloser{err: errors.New("wal checkpoint failed")}

	err := releaseAudit(nil, closer)
	if !closer.closed {
		t.Fatal("store was not closed")
	}
	if err == nil {
		t.Fatal("release failure after a clean run must surface as an error")
	}
	if !strings.Contains(err.Error(), "wal checkpoint failed") {
		t.Errorf("error should carry the close failure, got %v", err)
	}
}

func TestReleaseAuditKeepsRunError(t *testing.T) {
	runErr := errors.New("read failed")

	err := releaseAudit(runErr, &stubCloser{err: errors.New("close failed")})
	if err != runErr {
		t.Errorf("run error must win over the release error, got %v", err)
	}

	err = releaseAudit(runErr, &stubCloser{})
	if err != runErr {
		t.Errorf("clean release must pass the run error through, got %v", err)
	}
}

func TestReleaseAuditCleanRunCleanRelease(t *testing.T) {
	if err := releaseAudit(nil, &stubCloser{}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestLoadServeConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadServeConfig(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("missing config must not fail startup: %v", err)
	}
	if cfg.General.ServerName != "davmcp" {
		t.Errorf("expected defaults, got serverName %q", cfg.General.ServerName)
	}
}

func TestLoadServeConfigInvalidFileFailsStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"remote":{"serverUrl":"ftp://dav.example.com"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := loadServeConfig(path)
	if err == nil {
		t.Fatal("invalid config must fail startup, not fall back to defaults")
	}
	if !strings.Contains(err.Error(), "serverUrl") {
		t.Errorf("error should name the offending key, got %v", err)
	}
}

func TestLoadServeConfigUnparsableFileFailsStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadServeConfig(path); err == nil {
		t.Fatal("unparsable config must fail startup")
	}
}
