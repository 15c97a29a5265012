package config

import (
	"os"
	"path/filepath"
	"testing"

	"davmcp/internal/domain"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "loud"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidate_BadServerURL(t *testing.T) {
	cfg := Defaults()
	cfg.Remote.ServerURL = "calendar.example.com/dav"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for URL without scheme")
	}
}

func TestValidate_TokenWithoutTokenURL(t *testing.T) {
	cfg := Defaults()
	cfg.Remote.ServerURL = "https://dav.example.com"
	cfg.Remote.Username = "alice"
	cfg.Remote.RefreshToken = "refresh-123"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for refresh token without tokenUrl")
	}
}

func TestValidate_CredentialsWithoutUsername(t *testing.T) {
	cfg := Defaults()
	cfg.Remote.ServerURL = "https://dav.example.com"
	cfg.Remote.Password = "hunter2"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for password without username")
	}
}

func TestValidate_AuditWithoutPath(t *testing.T) {
	cfg := Defaults()
	cfg.Audit.Enabled = true
	cfg.Audit.DBPath = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for audit without dbPath")
	}
}

func TestValidate_NegativeRetention(t *testing.T) {
	cfg := Defaults()
	cfg.Audit.RetentionDays = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative retentionDays")
	}
}

// --- CredentialMode ---

func TestCredentialMode(t *testing.T) {
	cases := []struct {
		name string
		cfg  RemoteConfig
		want string
	}{
		{"empty", RemoteConfig{}, domain.ModeNone},
		{"url only", RemoteConfig{ServerURL: "https://dav.example.com"}, domain.ModeNone},
		{"password", RemoteConfig{ServerURL: "https://dav.example.com", Username: "a", Password: "p"}, domain.ModePassword},
		{"token", RemoteConfig{ServerURL: "https://dav.example.com", Username: "a", RefreshToken: "r", TokenURL: "https://t"}, domain.ModeToken},
		{"password wins over token", RemoteConfig{ServerURL: "https://dav.example.com", Username: "a", Password: "p", RefreshToken: "r"}, domain.ModePassword},
		{"disabled auth", RemoteConfig{ServerURL: "https://dav.example.com", Username: "a", Password: "p", DisableAuth: true}, domain.ModeNone},
	}
	for _, tc := range cases {
		if got := tc.cfg.CredentialMode(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := Defaults()
	original.Remote.ServerURL = "https://dav.example.com/"
	original.Remote.Username = "alice"
	original.Remote.Password = "secret"

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Remote.ServerURL != "https://dav.example.com/" {
		t.Fatalf("unexpected serverUrl: %q", loaded.Remote.ServerURL)
	}
	if loaded.Remote.CredentialMode() != domain.ModePassword {
		t.Fatalf("expected password mode, got %q", loaded.Remote.CredentialMode())
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "general:\n  serverName: testdav\nremote:\n  serverUrl: https://dav.example.com\n  username: alice\n  password: secret\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if cfg.General.ServerName != "testdav" {
		t.Fatalf("expected serverName 'testdav', got %q", cfg.General.ServerName)
	}
	if cfg.Remote.Username != "alice" {
		t.Fatalf("expected username 'alice', got %q", cfg.Remote.Username)
	}
	// Defaults still apply for keys the file omits.
	if cfg.General.LogLevel != "info" {
		t.Fatalf("expected default logLevel, got %q", cfg.General.LogLevel)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("{not json}"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

// --- Env expansion ---

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DAV_TEST_URL", "https://dav.example.com")

	out := ExpandEnvVars(`{"serverUrl": "${DAV_TEST_URL}"}`)
	if out != `{"serverUrl": "https://dav.example.com"}` {
		t.Fatalf("unexpected expansion: %s", out)
	}

	out = ExpandEnvVars(`${DAV_TEST_UNSET:-fallback}`)
	if out != "fallback" {
		t.Fatalf("expected fallback, got %q", out)
	}

	out = ExpandEnvVars(`${DAV_TEST_UNSET}`)
	if out != "${DAV_TEST_UNSET}" {
		t.Fatalf("expected original to be kept, got %q", out)
	}
}

// --- Accessor ---

func TestGetByPath(t *testing.T) {
	cfg := Defaults()
	cfg.Remote.ServerURL = "https://dav.example.com"

	val, err := GetByPath(cfg, "remote.serverUrl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "https://dav.example.com" {
		t.Fatalf("unexpected value: %v", val)
	}

	if _, err := GetByPath(cfg, "remote.nonexistent"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetByPath(t *testing.T) {
	cfg := Defaults()

	if err := SetByPath(cfg, "remote.keepaliveSeconds", "300"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Remote.KeepaliveSeconds != 300 {
		t.Fatalf("expected 300, got %d", cfg.Remote.KeepaliveSeconds)
	}

	if err := SetByPath(cfg, "general.devMode", "true"); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if !cfg.General.DevMode {
		t.Fatal("expected devMode=true")
	}
}

// --- Sanitize ---

func TestSanitize_MasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Remote.Password = "supersecretpassword"
	cfg.Remote.ClientSecret = "client-secret-value"
	cfg.Remote.RefreshToken = "refresh-token-value"

	clean := Sanitize(cfg)
	if clean.Remote.Password == cfg.Remote.Password {
		t.Fatal("password not masked")
	}
	if clean.Remote.ClientSecret == cfg.Remote.ClientSecret {
		t.Fatal("clientSecret not masked")
	}
	if clean.Remote.RefreshToken == cfg.Remote.RefreshToken {
		t.Fatal("refreshToken not masked")
	}
	// Original untouched.
	if cfg.Remote.Password != "supersecretpassword" {
		t.Fatal("sanitize mutated the original config")
	}
}
