package shared

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config is read once at startup and passed by value into constructors.
type Config struct {
	AppEnv          string
	HTTPAddr        string
	MetricsAddr     string
	SupabaseURL     string
	ServiceRole     string
	AdminSecret     string
	UpstreamTimeout time.Duration
	UpstreamRPS     int
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
}

func Load() Config {
	// local development only; a missing .env is not an error
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "prod")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", "")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 20)
	v.SetDefault("UPSTREAM_RPS", 20)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)
	v.SetDefault("MAX_BODY_BYTES", 64<<10)

	c := Config{
		AppEnv:          v.GetString("APP_ENV"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		MetricsAddr:     v.GetString("METRICS_ADDR"),
		SupabaseURL:     strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
		ServiceRole:     v.GetString("SUPABASE_SERVICE_ROLE"),
		AdminSecret:     v.GetString("ADMIN_SECRET"),
		UpstreamTimeout: time.Duration(positive(v.GetInt("UPSTREAM_TIMEOUT_SECONDS"), 20)) * time.Second,
		UpstreamRPS:     positive(v.GetInt("UPSTREAM_RPS"), 20),
		RequestTimeout:  time.Duration(positive(v.GetInt("REQUEST_TIMEOUT_SECONDS"), 15)) * time.Second,
		MaxBodyBytes:    int64(positive(v.GetInt("MAX_BODY_BYTES"), 64<<10)),
	}
	if c.SupabaseURL == "" {
		log.Warn().Msg("SUPABASE_URL is empty")
	}
	if c.ServiceRole == "" {
		log.Warn().Msg("SUPABASE_SERVICE_ROLE is empty")
	}
	if c.AdminSecret == "" {
		log.Warn().Msg("ADMIN_SECRET is empty; admin deletes will be rejected")
	}
	return c
}

func positive(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}
