package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	LogMode    string
	CORSOrigin []string

	JWTSecret string
	TokenTTL  time.Duration

	DBHost         string
	DBPort         string
	DBName         string
	DBUser         string
	DBPassword     string
	DBSSLMode      string
	DBMaxOpenConns int

	AIProvider     string
	AIAPIURL       string
	AIAPIKey       string
	AIDefaultModel string
	AITimeout      time.Duration
	GeminiAPIKey   string

	RedisAddress  string
	RedisPassword string

	RateLimitEnabled   bool
	RateLimitPerWindow int
	RateLimitWindow    time.Duration

	GCSBucket          string
	GCSCredentialsFile string

	SendgridAPIKey    string
	SendgridFromEmail string

	SeedPromptTemplateJSONPath string
}

// SetDefaults registers every known key so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("log_mode", "development")
	v.SetDefault("cors_origin", "http://localhost:5173")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl_hours", 24*30)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_name", "ai_shadow")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 20)
	v.SetDefault("ai_provider", "openai")
	v.SetDefault("ai_api_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("ai_api_key", "")
	v.SetDefault("ai_default_model", "gpt-3.5-turbo")
	v.SetDefault("ai_timeout_seconds", 120)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("redis_address", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("rate_limit_enabled", false)
	v.SetDefault("rate_limit_per_window", 100)
	v.SetDefault("rate_limit_window_minutes", 15)
	v.SetDefault("gcs_bucket", "")
	v.SetDefault("gcs_credentials_file", "")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("sendgrid_from_email", "no-reply@aishadow.app")
	v.SetDefault("seed_prompt_template_json_path", "")
}

// Load reads an optional .env file, then resolves configuration from the
// environment (and any flags already bound on v).
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:                       v.GetString("port"),
		LogMode:                    v.GetString("log_mode"),
		CORSOrigin:                 splitList(v.GetString("cors_origin")),
		JWTSecret:                  v.GetString("jwt_secret"),
		TokenTTL:                   time.Duration(v.GetInt("token_ttl_hours")) * time.Hour,
		DBHost:                     v.GetString("db_host"),
		DBPort:                     v.GetString("db_port"),
		DBName:                     v.GetString("db_name"),
		DBUser:                     v.GetString("db_user"),
		DBPassword:                 v.GetString("db_password"),
		DBSSLMode:                  v.GetString("db_sslmode"),
		DBMaxOpenConns:             v.GetInt("db_max_open_conns"),
		AIProvider:                 strings.ToLower(v.GetString("ai_provider")),
		AIAPIURL:                   v.GetString("ai_api_url"),
		AIAPIKey:                   v.GetString("ai_api_key"),
		AIDefaultModel:             v.GetString("ai_default_model"),
		AITimeout:                  time.Duration(v.GetInt("ai_timeout_seconds")) * time.Second,
		GeminiAPIKey:               v.GetString("gemini_api_key"),
		RedisAddress:               v.GetString("redis_address"),
		RedisPassword:              v.GetString("redis_password"),
		RateLimitEnabled:           v.GetBool("rate_limit_enabled"),
		RateLimitPerWindow:         v.GetInt("rate_limit_per_window"),
		RateLimitWindow:            time.Duration(v.GetInt("rate_limit_window_minutes")) * time.Minute,
		GCSBucket:                  v.GetString("gcs_bucket"),
		GCSCredentialsFile:         v.GetString("gcs_credentials_file"),
		SendgridAPIKey:             v.GetString("sendgrid_api_key"),
		SendgridFromEmail:          v.GetString("sendgrid_from_email"),
		SeedPromptTemplateJSONPath: v.GetString("seed_prompt_template_json_path"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	switch c.AIProvider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}
	if c.RateLimitEnabled && (c.RateLimitPerWindow <= 0 || c.RateLimitWindow <= 0) {
		return fmt.Errorf("rate limit window and count must be positive when enabled")
	}
	return nil
}

// PostgresDSN builds the connection string for the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.LogMode, "production") || strings.EqualFold(c.LogMode, "prod")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
