package config

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultAccessTokenSecret  = "dev-access-secret-change-me-before-deploying"
	defaultRefreshTokenSecret = "dev-refresh-secret-change-me-before-deploying"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	LogLevel     string

	DatabaseURL    string
	MigrationsPath string
	StoreTimeout   time.Duration

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	JWTIssuer          string
	AccessTokenCookie  string
	RefreshTokenCookie string
	CookieSecure       bool
	CookieSameSite     http.SameSite
	CookieDomain       string
	CORSAllowedOrigins []string
	AuthRateLimit      string
	RedisURL           string
	UploadTempDir      string
	MaxUploadSize      int64
	OTLPTracesEndpoint string
	ServiceName        string

	Media MediaConfig
}

// MediaConfig configures the S3-compatible bucket that hosts avatars and cover images.
type MediaConfig struct {
	Bucket        string
	LocalDir      string
	LocalBaseURL  string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	KeyPrefix     string
}

// Enabled reports whether a bucket has been configured.
func (m MediaConfig) Enabled() bool {
	return m.Bucket != ""
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8000")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("ACCESS_TOKEN_SECRET", defaultAccessTokenSecret)
	v.SetDefault("ACCESS_TOKEN_EXPIRY", "15m")
	v.SetDefault("REFRESH_TOKEN_SECRET", defaultRefreshTokenSecret)
	v.SetDefault("REFRESH_TOKEN_EXPIRY", "240h")
	v.SetDefault("JWT_ISSUER", "user-auth-backend")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("COOKIE_SAMESITE", "none")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("CORS_ORIGIN", "http://localhost:8081")
	v.SetDefault("AUTH_RATE_LIMIT", "5-M")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("UPLOAD_TEMP_DIR", "./public/temp")
	v.SetDefault("MAX_UPLOAD_SIZE", 8<<20)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_SERVICE_NAME", "user-auth-backend")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_KEY_PREFIX", "users")
	v.SetDefault("MEDIA_LOCAL_DIR", "./public/media")
	v.SetDefault("PUBLIC_URL", "")
	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		DatabaseURL:        v.GetString("PGSQL_URL"),
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		AccessTokenSecret:  v.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: v.GetString("REFRESH_TOKEN_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		AccessTokenCookie:  "accessToken",
		RefreshTokenCookie: "refreshToken",
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		CookieDomain:       v.GetString("COOKIE_DOMAIN"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ORIGIN")),
		AuthRateLimit:      v.GetString("AUTH_RATE_LIMIT"),
		RedisURL:           v.GetString("REDIS_URL"),
		UploadTempDir:      v.GetString("UPLOAD_TEMP_DIR"),
		MaxUploadSize:      v.GetInt64("MAX_UPLOAD_SIZE"),
		OTLPTracesEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:        v.GetString("OTEL_SERVICE_NAME"),
		Media: MediaConfig{
			Bucket:        v.GetString("S3_BUCKET"),
			LocalDir:      v.GetString("MEDIA_LOCAL_DIR"),
			LocalBaseURL:  localMediaURL(v.GetString("PUBLIC_URL"), v.GetString("PORT")),
			Region:        v.GetString("S3_REGION"),
			Endpoint:      v.GetString("S3_ENDPOINT"),
			AccessKey:     v.GetString("S3_ACCESS_KEY"),
			SecretKey:     v.GetString("S3_SECRET_KEY"),
			PublicBaseURL: strings.TrimRight(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
			KeyPrefix:     strings.Trim(v.GetString("S3_KEY_PREFIX"), "/"),
		},
	}

	var err error
	if cfg.AccessTokenExpiry, err = parseDuration(v, "ACCESS_TOKEN_EXPIRY"); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenExpiry, err = parseDuration(v, "REFRESH_TOKEN_EXPIRY"); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = parseDuration(v, "STORE_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.CookieSameSite, err = parseSameSite(v.GetString("COOKIE_SAMESITE")); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.AccessTokenSecret == defaultAccessTokenSecret || cfg.RefreshTokenSecret == defaultRefreshTokenSecret {
		log.Println("Warning: token secrets are using development defaults. THIS IS NOT FOR PRODUCTION.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that the token lifecycle depends on.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("config: access and refresh token secrets must differ")
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return errors.New("config: token expiry durations must be positive")
	}
	if c.RefreshTokenExpiry <= c.AccessTokenExpiry {
		return errors.New("config: REFRESH_TOKEN_EXPIRY must be longer than ACCESS_TOKEN_EXPIRY")
	}
	if c.CookieSameSite == http.SameSiteNoneMode && !c.CookieSecure {
		return errors.New("config: COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}
	if !c.IsProduction {
		return nil
	}
	if c.AccessTokenSecret == defaultAccessTokenSecret || c.RefreshTokenSecret == defaultRefreshTokenSecret {
		return errors.New("config: default token secrets are not allowed in production")
	}
	if c.DatabaseURL == "" {
		return errors.New("config: PGSQL_URL is required in production")
	}
	if !c.Media.Enabled() {
		return errors.New("config: S3_BUCKET is required in production")
	}
	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid value for %s (%q): %w", key, raw, err)
	}
	return d, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("config: invalid COOKIE_SAMESITE %q", value)
	}
}

// localMediaURL is where locally stored media is served from when no bucket is configured.
func localMediaURL(publicURL, port string) string {
	if publicURL == "" {
		publicURL = "http://localhost:" + port
	}
	return strings.TrimRight(publicURL, "/") + "/media"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
