package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string
	LogLevel       string

	// DATABASE_URL is the runtime connection; DIRECT_URL, when set, is used for migrations.
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Auth      AuthConfig
	Dispatch  DispatchConfig
	Redis     RedisConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig

	// AllowedOrigins lists the front-end origins allowed to call the API from a browser.
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	Audience  string
}

type DispatchConfig struct {
	// Secret signs authoritative status pushes from the dispatch system.
	Secret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	ListTTL  time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func Load() Config {
	// Local dev convenience; production relies on real environment variables.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		LogLevel:       env("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "marketplace"),
			User:     env("DB_USER", "marketplace"),
			Password: env("DB_PASSWORD", "marketplace"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Audience:  env("JWT_AUDIENCE", "marketplace-web"),
		},
		Dispatch: DispatchConfig{
			Secret: os.Getenv("DISPATCH_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
			ListTTL:  envDuration("REDIS_LIST_TTL", 2*time.Minute),
		},
		Metrics: MetricsConfig{
			Enabled: envBool("METRICS_ENABLED", true),
			Addr:    env("METRICS_ADDR", ":9091"),
		},
		RateLimit: RateLimitConfig{
			RPS:   envFloat("RATE_LIMIT_RPS", 10),
			Burst: envInt("RATE_LIMIT_BURST", 20),
		},
		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
