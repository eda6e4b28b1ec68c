package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	ExportNone  = "none"
	ExportLocal = "local"
	ExportS3    = "s3"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	Database      DatabaseConfig
	Query         QueryConfig
	AI            AIConfig
	Email         EmailConfig
	Export        ExportConfig
	ObjectStore   ObjectStoreConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type QueryConfig struct {
	RowLimit int
	Timeout  time.Duration
	ReadOnly bool
}

type AIConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type ExportConfig struct {
	Target string
	Dir    string
	Prefix string
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel    slog.Level
	LogJSON     bool
	MetricsAddr string
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ASKDB_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ASKDB_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "ASKDB_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "ASKDB_DATABASE_DSN", &cfg.Database.DSN) },
		func() error { return applyInt(lookup, "ASKDB_DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns) },
		func() error {
			return applyDuration(lookup, "ASKDB_DATABASE_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
		},
		func() error { return applyInt(lookup, "ASKDB_QUERY_ROW_LIMIT", &cfg.Query.RowLimit) },
		func() error { return applyDuration(lookup, "ASKDB_QUERY_TIMEOUT", &cfg.Query.Timeout) },
		func() error { return applyBool(lookup, "ASKDB_QUERY_READ_ONLY", &cfg.Query.ReadOnly) },
		func() error { return applyString(lookup, "ASKDB_AI_PROVIDER", &cfg.AI.Provider) },
		func() error { return applyString(lookup, "ASKDB_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "ASKDB_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "ASKDB_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyInt(lookup, "ASKDB_AI_MAX_TOKENS", &cfg.AI.MaxTokens) },
		func() error { return applyFloat(lookup, "ASKDB_AI_TEMPERATURE", &cfg.AI.Temperature) },
		func() error { return applyDuration(lookup, "ASKDB_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyBool(lookup, "ASKDB_EMAIL_ENABLED", &cfg.Email.Enabled) },
		func() error { return applyString(lookup, "ASKDB_SMTP_HOST", &cfg.Email.Host) },
		func() error { return applyInt(lookup, "ASKDB_SMTP_PORT", &cfg.Email.Port) },
		func() error { return applyString(lookup, "ASKDB_SMTP_USERNAME", &cfg.Email.Username) },
		func() error { return applyRaw(lookup, "ASKDB_SMTP_PASSWORD", &cfg.Email.Password) },
		func() error { return applyString(lookup, "ASKDB_SMTP_FROM", &cfg.Email.From) },
		func() error { return applyDuration(lookup, "ASKDB_SMTP_TIMEOUT", &cfg.Email.Timeout) },
		func() error { return applyString(lookup, "ASKDB_EXPORT_TARGET", &cfg.Export.Target) },
		func() error { return applyString(lookup, "ASKDB_EXPORT_DIR", &cfg.Export.Dir) },
		func() error { return applyString(lookup, "ASKDB_EXPORT_PREFIX", &cfg.Export.Prefix) },
		func() error { return applyString(lookup, "ASKDB_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "ASKDB_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "ASKDB_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error { return applyString(lookup, "ASKDB_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID) },
		func() error {
			return applyString(lookup, "ASKDB_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey)
		},
		func() error { return applyBool(lookup, "ASKDB_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error {
			return applyBool(lookup, "ASKDB_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)
		},
		func() error { return applyBool(lookup, "ASKDB_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "ASKDB_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyString(lookup, "ASKDB_METRICS_ADDR", &cfg.Observability.MetricsAddr) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	cfg.AI.Provider = strings.ToLower(cfg.AI.Provider)
	cfg.Export.Target = strings.ToLower(cfg.Export.Target)
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = providerAPIKey(lookup, cfg.AI.Provider)
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModel(cfg.AI.Provider)
	}
	if cfg.AI.BaseURL == "" && cfg.AI.Provider == ProviderOpenAI {
		cfg.AI.BaseURL = "https://api.openai.com"
	}
	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.Username
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the interactive tool cannot start with.
// Credentials have no built-in defaults and must be supplied externally.
func (c Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("ASKDB_DATABASE_DSN is required")
	}
	switch c.AI.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid ASKDB_AI_PROVIDER: %q", c.AI.Provider)
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("model api key is required (set ASKDB_AI_API_KEY)")
	}
	if c.Query.RowLimit < 0 {
		return fmt.Errorf("ASKDB_QUERY_ROW_LIMIT must be >= 0")
	}
	if c.Email.Enabled {
		if c.Email.Host == "" || c.Email.Port <= 0 {
			return fmt.Errorf("smtp host and port are required when email is enabled")
		}
		if c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("smtp credentials are required when email is enabled (set ASKDB_SMTP_USERNAME and ASKDB_SMTP_PASSWORD)")
		}
	}
	switch c.Export.Target {
	case ExportNone:
	case ExportLocal:
		if c.Export.Dir == "" {
			return fmt.Errorf("ASKDB_EXPORT_DIR is required for local export")
		}
	case ExportS3:
		if c.ObjectStore.Endpoint == "" || c.ObjectStore.Bucket == "" {
			return fmt.Errorf("object store endpoint and bucket are required for s3 export")
		}
	default:
		return fmt.Errorf("invalid ASKDB_EXPORT_TARGET: %q", c.Export.Target)
	}
	return nil
}

// Schema-only runs never talk to the model or the mail relay.
func LoadForSchema(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}
	relaxed := func(key string) (string, bool) {
		switch key {
		case "ASKDB_EMAIL_ENABLED":
			return "false", true
		case "ASKDB_EXPORT_TARGET":
			return ExportNone, true
		case "ASKDB_AI_API_KEY":
			if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
				return value, true
			}
			return "unused", true
		}
		return lookup(key)
	}
	return Load(serviceName, relaxed)
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "askdb"},
		Database: DatabaseConfig{
			DSN:             "Chinook.db",
			MaxOpenConns:    4,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Query: QueryConfig{
			RowLimit: 200,
			Timeout:  30 * time.Second,
			ReadOnly: true,
		},
		AI: AIConfig{
			Provider:    ProviderAnthropic,
			MaxTokens:   1024,
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		Email: EmailConfig{
			Enabled: true,
			Host:    "smtp.gmail.com",
			Port:    587,
			Timeout: 30 * time.Second,
		},
		Export: ExportConfig{
			Target: ExportNone,
			Dir:    "exports",
			Prefix: "askdb",
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "askdb",
			UseSSL:           false,
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelInfo,
			LogJSON:  false,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Query.Timeout = 5 * time.Second
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Observability.LogJSON = true
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func providerAPIKey(lookup LookupFunc, provider string) string {
	key := "ANTHROPIC_API_KEY"
	if provider == ProviderOpenAI {
		key = "OPENAI_API_KEY"
	}
	raw, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-4o-mini"
	}
	return "claude-sonnet-4-5"
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

// Passwords may legitimately carry surrounding spaces.
func applyRaw(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = raw
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
