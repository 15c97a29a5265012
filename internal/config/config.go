package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"davmcp/internal/domain"
)

// Config is the root configuration for davmcp.
type Config struct {
	General GeneralConfig `json:"general" yaml:"general"`
	Remote  RemoteConfig  `json:"remote" yaml:"remote"`
	Audit   AuditConfig   `json:"audit" yaml:"audit"`
}

type GeneralConfig struct {
	ServerName string `json:"serverName" yaml:"serverName"`
	LogLevel   string `json:"logLevel" yaml:"logLevel"` // "debug" | "info" | "warn" | "error"
	// DevMode includes raw error details in JSON-RPC error data. Never
	// enable against a production server: messages may carry URL paths.
	DevMode bool `json:"devMode" yaml:"devMode"`
}

// RemoteConfig holds the CalDAV/CardDAV server endpoint and credentials.
// Exactly one credential mode applies: password if a password is set, token
// if a refresh token is set, none otherwise.
type RemoteConfig struct {
	ServerURL string `json:"serverUrl" yaml:"serverUrl"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`

	ClientID     string `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty" yaml:"refreshToken,omitempty"`
	TokenURL     string `json:"tokenUrl,omitempty" yaml:"tokenUrl,omitempty"`

	// KeepaliveSeconds is the interval of the background principal probe
	// that keeps the remote session warm. 0 disables it.
	KeepaliveSeconds int `json:"keepaliveSeconds" yaml:"keepaliveSeconds"`

	// DisableAuth skips remote initialization entirely, for local testing
	// of the no-auth tool surface.
	DisableAuth bool `json:"disableAuth,omitempty" yaml:"disableAuth,omitempty"`
}

// CredentialMode resolves which authentication scheme the config selects.
// Password wins when both are present.
func (r RemoteConfig) CredentialMode() string {
	if r.DisableAuth || r.ServerURL == "" {
		return domain.ModeNone
	}
	if r.Password != "" {
		return domain.ModePassword
	}
	if r.RefreshToken != "" {
		return domain.ModeToken
	}
	return domain.ModeNone
}

type AuditConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"dbPath" yaml:"dbPath"`

	// RetentionDays bounds how long invocation records are kept. Entries
	// older than this are pruned at startup. 0 keeps records forever.
	RetentionDays int `json:"retentionDays" yaml:"retentionDays"`
}

// DefaultConfigDir returns the default config directory (~/.davmcp).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".davmcp"
	}
	return filepath.Join(home, ".davmcp")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads a config file (JSON, or YAML for .yaml/.yml extensions),
// expands environment variables and ~ paths, applies defaults for missing
// keys, and validates the result.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	cfg.Audit.DBPath = ExpandPath(cfg.Audit.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Remote.ServerURL != "" &&
		!strings.HasPrefix(cfg.Remote.ServerURL, "http://") &&
		!strings.HasPrefix(cfg.Remote.ServerURL, "https://") {
		errs = append(errs, "remote.serverUrl must start with http:// or https://")
	}

	if cfg.Remote.RefreshToken != "" && cfg.Remote.TokenURL == "" {
		errs = append(errs, "remote.tokenUrl is required for token-based authentication")
	}
	if (cfg.Remote.Password != "" || cfg.Remote.RefreshToken != "") && cfg.Remote.Username == "" {
		errs = append(errs, "remote.username is required when credentials are set")
	}

	if cfg.Remote.KeepaliveSeconds < 0 {
		errs = append(errs, "remote.keepaliveSeconds must be >= 0")
	}

	if cfg.Audit.Enabled && cfg.Audit.DBPath == "" {
		errs = append(errs, "audit.dbPath is required when audit is enabled")
	}
	if cfg.Audit.RetentionDays < 0 {
		errs = append(errs, "audit.retentionDays must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
