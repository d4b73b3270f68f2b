package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	Oracle    OracleConfig
	CORS      CORSConfig
	Pipeline  PipelineConfig
	Fetcher   FetcherConfig
	Highlight HighlightConfig
}

// PipelineConfig holds verification run worker settings.
type PipelineConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	Concurrency      int `mapstructure:"concurrency"`
	MaxOracleRetries int `mapstructure:"max_oracle_retries"`
	RunTimeoutSecs   int `mapstructure:"run_timeout_secs"`
}

// FetcherConfig holds source acquisition settings.
type FetcherConfig struct {
	TimeoutSecs   int    `mapstructure:"timeout_secs"`
	UserAgent     string `mapstructure:"user_agent"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// HighlightConfig holds per-category annotation colors as "r,g,b" triples
// in the 0..1 range, plus the shared opacity.
type HighlightConfig struct {
	PrimaryColor   string  `mapstructure:"primary_color"`
	SecondaryColor string  `mapstructure:"secondary_color"`
	OracleColor    string  `mapstructure:"oracle_color"`
	Opacity        float64 `mapstructure:"opacity"`
	Author         string  `mapstructure:"author"`
}

// ParseColor parses an "r,g,b" triple, falling back to yellow on bad input.
func ParseColor(s string) (r, g, b float64) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 1, 1, 0
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%f", &vals[i]); err != nil || vals[i] < 0 || vals[i] > 1 {
			return 1, 1, 0
		}
	}
	return vals[0], vals[1], vals[2]
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OracleProviderConfig holds settings for a single LLM relevance oracle provider.
type OracleProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// OracleConfig holds LLM relevance oracle settings with multi-provider support.
type OracleConfig struct {
	Primary   OracleProviderConfig `mapstructure:"primary"`
	Secondary OracleProviderConfig `mapstructure:"secondary"`
	Tertiary  OracleProviderConfig `mapstructure:"tertiary"`
}

// Configured returns the non-empty provider configs in fallback order.
func (o *OracleConfig) Configured() []*OracleProviderConfig {
	var out []*OracleProviderConfig
	for _, c := range []*OracleProviderConfig{&o.Primary, &o.Secondary, &o.Tertiary} {
		if c.Provider != "" {
			out = append(out, c)
		}
	}
	return out
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT validation settings for the API.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the EVICITE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EVICITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "evicite")
	v.SetDefault("db.password", "evicite_secret")
	v.SetDefault("db.name", "evicite_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "evicite")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "evicite-artifacts")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Pipeline defaults
	v.SetDefault("pipeline.poll_interval_secs", 10)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.max_oracle_retries", 3)
	v.SetDefault("pipeline.run_timeout_secs", 1800)

	// Fetcher defaults
	v.SetDefault("fetcher.timeout_secs", 60)
	v.SetDefault("fetcher.user_agent", "evicite/1.0")
	v.SetDefault("fetcher.max_file_size_mb", 64)

	// Highlight defaults: yellow for primary quotes, cyan for secondary,
	// khaki for oracle-identified passages.
	v.SetDefault("highlight.primary_color", "1,1,0")
	v.SetDefault("highlight.secondary_color", "0,1,1")
	v.SetDefault("highlight.oracle_color", "0.8,0.8,0.2")
	v.SetDefault("highlight.opacity", 0.4)
	v.SetDefault("highlight.author", "evicite")

	// Oracle provider defaults
	v.SetDefault("oracle.primary.provider", "gemini")
	v.SetDefault("oracle.primary.api_key", "")
	v.SetDefault("oracle.primary.default_model", "")
	v.SetDefault("oracle.primary.timeout_secs", 120)
	v.SetDefault("oracle.secondary.provider", "")
	v.SetDefault("oracle.secondary.api_key", "")
	v.SetDefault("oracle.secondary.default_model", "")
	v.SetDefault("oracle.secondary.timeout_secs", 120)
	v.SetDefault("oracle.tertiary.provider", "")
	v.SetDefault("oracle.tertiary.api_key", "")
	v.SetDefault("oracle.tertiary.default_model", "")
	v.SetDefault("oracle.tertiary.timeout_secs", 120)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "EVICITE_SERVER_PORT",
		"server.read_timeout":            "EVICITE_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "EVICITE_SERVER_WRITE_TIMEOUT",
		"server.environment":             "EVICITE_SERVER_ENVIRONMENT",
		"db.host":                        "EVICITE_DB_HOST",
		"db.port":                        "EVICITE_DB_PORT",
		"db.user":                        "EVICITE_DB_USER",
		"db.password":                    "EVICITE_DB_PASSWORD",
		"db.name":                        "EVICITE_DB_NAME",
		"db.sslmode":                     "EVICITE_DB_SSLMODE",
		"db.max_open":                    "EVICITE_DB_MAX_OPEN",
		"db.max_idle":                    "EVICITE_DB_MAX_IDLE",
		"jwt.secret":                     "EVICITE_JWT_SECRET",
		"jwt.issuer":                     "EVICITE_JWT_ISSUER",
		"s3.region":                      "EVICITE_S3_REGION",
		"s3.bucket":                      "EVICITE_S3_BUCKET",
		"s3.endpoint":                    "EVICITE_S3_ENDPOINT",
		"s3.access_key":                  "EVICITE_S3_ACCESS_KEY",
		"s3.secret_key":                  "EVICITE_S3_SECRET_KEY",
		"s3.presign_expiry":              "EVICITE_S3_PRESIGN_EXPIRY",
		"log.level":                      "EVICITE_LOG_LEVEL",
		"log.format":                     "EVICITE_LOG_FORMAT",
		"cors.allowed_origins":           "EVICITE_CORS_ALLOWED_ORIGINS",
		"pipeline.poll_interval_secs":    "EVICITE_PIPELINE_POLL_INTERVAL_SECS",
		"pipeline.concurrency":           "EVICITE_PIPELINE_CONCURRENCY",
		"pipeline.max_oracle_retries":    "EVICITE_PIPELINE_MAX_ORACLE_RETRIES",
		"pipeline.run_timeout_secs":      "EVICITE_PIPELINE_RUN_TIMEOUT_SECS",
		"fetcher.timeout_secs":           "EVICITE_FETCHER_TIMEOUT_SECS",
		"fetcher.user_agent":             "EVICITE_FETCHER_USER_AGENT",
		"fetcher.max_file_size_mb":       "EVICITE_FETCHER_MAX_FILE_SIZE_MB",
		"highlight.primary_color":        "EVICITE_HIGHLIGHT_PRIMARY_COLOR",
		"highlight.secondary_color":      "EVICITE_HIGHLIGHT_SECONDARY_COLOR",
		"highlight.oracle_color":         "EVICITE_HIGHLIGHT_ORACLE_COLOR",
		"highlight.opacity":              "EVICITE_HIGHLIGHT_OPACITY",
		"highlight.author":               "EVICITE_HIGHLIGHT_AUTHOR",
		"oracle.primary.provider":        "EVICITE_ORACLE_PRIMARY_PROVIDER",
		"oracle.primary.api_key":         "EVICITE_ORACLE_PRIMARY_API_KEY",
		"oracle.primary.default_model":   "EVICITE_ORACLE_PRIMARY_DEFAULT_MODEL",
		"oracle.primary.timeout_secs":    "EVICITE_ORACLE_PRIMARY_TIMEOUT_SECS",
		"oracle.secondary.provider":      "EVICITE_ORACLE_SECONDARY_PROVIDER",
		"oracle.secondary.api_key":       "EVICITE_ORACLE_SECONDARY_API_KEY",
		"oracle.secondary.default_model": "EVICITE_ORACLE_SECONDARY_DEFAULT_MODEL",
		"oracle.secondary.timeout_secs":  "EVICITE_ORACLE_SECONDARY_TIMEOUT_SECS",
		"oracle.tertiary.provider":       "EVICITE_ORACLE_TERTIARY_PROVIDER",
		"oracle.tertiary.api_key":        "EVICITE_ORACLE_TERTIARY_API_KEY",
		"oracle.tertiary.default_model":  "EVICITE_ORACLE_TERTIARY_DEFAULT_MODEL",
		"oracle.tertiary.timeout_secs":   "EVICITE_ORACLE_TERTIARY_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if EVICITE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("EVICITE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Oracle = OracleConfig{
		Primary: OracleProviderConfig{
			Provider:     v.GetString("oracle.primary.provider"),
			APIKey:       v.GetString("oracle.primary.api_key"),
			DefaultModel: v.GetString("oracle.primary.default_model"),
			TimeoutSecs:  v.GetInt("oracle.primary.timeout_secs"),
		},
		Secondary: OracleProviderConfig{
			Provider:     v.GetString("oracle.secondary.provider"),
			APIKey:       v.GetString("oracle.secondary.api_key"),
			DefaultModel: v.GetString("oracle.secondary.default_model"),
			TimeoutSecs:  v.GetInt("oracle.secondary.timeout_secs"),
		},
		Tertiary: OracleProviderConfig{
			Provider:     v.GetString("oracle.tertiary.provider"),
			APIKey:       v.GetString("oracle.tertiary.api_key"),
			DefaultModel: v.GetString("oracle.tertiary.default_model"),
			TimeoutSecs:  v.GetInt("oracle.tertiary.timeout_secs"),
		},
	}

	cfg.Pipeline = PipelineConfig{
		PollIntervalSecs: v.GetInt("pipeline.poll_interval_secs"),
		Concurrency:      v.GetInt("pipeline.concurrency"),
		MaxOracleRetries: v.GetInt("pipeline.max_oracle_retries"),
		RunTimeoutSecs:   v.GetInt("pipeline.run_timeout_secs"),
	}

	cfg.Fetcher = FetcherConfig{
		TimeoutSecs:   v.GetInt("fetcher.timeout_secs"),
		UserAgent:     v.GetString("fetcher.user_agent"),
		MaxFileSizeMB: v.GetInt64("fetcher.max_file_size_mb"),
	}

	cfg.Highlight = HighlightConfig{
		PrimaryColor:   v.GetString("highlight.primary_color"),
		SecondaryColor: v.GetString("highlight.secondary_color"),
		OracleColor:    v.GetString("highlight.oracle_color"),
		Opacity:        v.GetFloat64("highlight.opacity"),
		Author:         v.GetString("highlight.author"),
	}

	return cfg, nil
}
