package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	LogLevel string

	// DatabaseDriver selects the store: "sqlite", "postgres" or "memory".
	DatabaseDriver string
	DatabasePath   string
	DatabaseURL    string

	ChunkSize        int
	WriteConcurrency int
	WriteTimeout     time.Duration
	SanitySampleSize int

	MaxUploadSizeBytes int64
	InventoryCacheTTL  time.Duration

	AllowedOrigins     []string
	RateLimitPerSecond float64
	RateLimitBurst     int

	ColumnAliasesPath string
}

var Cfg *AppConfig

const (
	DefaultChunkSize        = 50
	DefaultSanitySampleSize = 5
)

// Default returns the configuration used when no environment is set.
func Default() *AppConfig {
	return &AppConfig{
		Port:               "8080",
		LogLevel:           "info",
		DatabaseDriver:     "sqlite",
		DatabasePath:       "./perfsnap.db",
		ChunkSize:          DefaultChunkSize,
		WriteConcurrency:   1,
		WriteTimeout:       30 * time.Second,
		SanitySampleSize:   DefaultSanitySampleSize,
		MaxUploadSizeBytes: 10 * 1024 * 1024,
		InventoryCacheTTL:  5 * time.Minute,
		AllowedOrigins:     []string{"http://localhost:3000"},
		RateLimitPerSecond: 10,
		RateLimitBurst:     30,
	}
}

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	d := Default()

	cfg := &AppConfig{
		Port:               getEnv("PORT", d.Port),
		LogLevel:           getEnv("LOG_LEVEL", d.LogLevel),
		DatabaseDriver:     strings.ToLower(getEnv("DATABASE_DRIVER", d.DatabaseDriver)),
		DatabasePath:       getEnv("DATABASE_PATH", d.DatabasePath),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ChunkSize:          getEnvAsInt("CHUNK_SIZE", d.ChunkSize),
		WriteConcurrency:   getEnvAsInt("WRITE_CONCURRENCY", d.WriteConcurrency),
		WriteTimeout:       getEnvAsDuration("WRITE_TIMEOUT", d.WriteTimeout),
		SanitySampleSize:   getEnvAsInt("SANITY_SAMPLE_SIZE", d.SanitySampleSize),
		MaxUploadSizeBytes: getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", d.MaxUploadSizeBytes),
		InventoryCacheTTL:  getEnvAsDuration("INVENTORY_CACHE_TTL", d.InventoryCacheTTL),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", strings.Join(d.AllowedOrigins, ","))),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", d.RateLimitPerSecond),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", d.RateLimitBurst),
		ColumnAliasesPath:  getEnv("COLUMN_ALIASES_PATH", ""),
	}

	if cfg.ChunkSize <= 0 {
		log.Printf("WARNING: CHUNK_SIZE must be positive, got %d. Using default %d.", cfg.ChunkSize, DefaultChunkSize)
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.WriteConcurrency <= 0 {
		log.Printf("WARNING: WRITE_CONCURRENCY must be positive, got %d. Using 1.", cfg.WriteConcurrency)
		cfg.WriteConcurrency = 1
	}
	if cfg.SanitySampleSize <= 0 {
		cfg.SanitySampleSize = DefaultSanitySampleSize
	}
	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseURL == "" {
		log.Fatalf("FATAL: DATABASE_URL is required when DATABASE_DRIVER is 'postgres', but it's not set in environment or .env file.")
	}

	Cfg = cfg
	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, Driver=%s, DBPath=%s, ChunkSize=%d, WriteConcurrency=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabaseDriver, Cfg.DatabasePath, Cfg.ChunkSize, Cfg.WriteConcurrency)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
