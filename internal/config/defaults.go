package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			ServerName: "davmcp",
			LogLevel:   "info",
		},
		Remote: RemoteConfig{
			KeepaliveSeconds: 0,
		},
		Audit: AuditConfig{
			Enabled:       false,
			DBPath:        "~/.davmcp/audit.db",
			RetentionDays: 90,
		},
	}
}
