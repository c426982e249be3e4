package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the scoring batch
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Persistence
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig

	// Scoring batch / audit
	Scoring  ScoringConfig
	Audit    AuditConfig
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver     string // postgres, sqlite
	SQLitePath string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration (edge-count cache)
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	EdgeTTL  time.Duration
}

// ScoringConfig holds batch scoring parameters
type ScoringConfig struct {
	Workers         int
	ChunkSize       int
	WriteRPS        float64 // 0 = unlimited
	MinCompleteness float64
	ScenarioFile    string
	ActiveScenario  string // name@version, empty = file's active entry
}

// AuditConfig holds consistency audit parameters
type AuditConfig struct {
	Tolerance float64
	BatchSize int
}

// ScheduleConfig holds cron expressions (6-field, seconds first)
type ScheduleConfig struct {
	Scoring string
	Audit   string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", "postgres"),
			SQLitePath: getEnv("SQLITE_PATH", "aegis_credit.db"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 16),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			EdgeTTL:  getEnvAsDuration("REDIS_EDGE_TTL", "6h"),
		},

		Scoring: ScoringConfig{
			Workers:         getEnvAsInt("SCORE_WORKERS", 8),
			ChunkSize:       getEnvAsInt("SCORE_CHUNK_SIZE", 50),
			WriteRPS:        getEnvAsFloat("SCORE_WRITE_RPS", 0),
			MinCompleteness: getEnvAsFloat("SCORE_MIN_COMPLETENESS", 0.4),
			ScenarioFile:    getEnv("SCENARIO_FILE", "config/scenarios.yaml"),
			ActiveScenario:  getEnv("SCENARIO_ACTIVE", ""),
		},

		Audit: AuditConfig{
			Tolerance: getEnvAsFloat("AUDIT_TOLERANCE", 5.0),
			BatchSize: getEnvAsInt("AUDIT_BATCH_SIZE", 200),
		},

		Schedule: ScheduleConfig{
			Scoring: getEnv("SCHEDULE_SCORING", "0 0 3 * * *"),
			Audit:   getEnv("SCHEDULE_AUDIT", "0 30 5 * * *"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile loads path into the environment first, then Load()s.
// An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return Load()
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: postgres, sqlite")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scoring.Workers < 1 {
		return fmt.Errorf("SCORE_WORKERS must be >= 1")
	}
	if c.Scoring.ChunkSize < 1 {
		return fmt.Errorf("SCORE_CHUNK_SIZE must be >= 1")
	}
	if c.Scoring.MinCompleteness < 0 || c.Scoring.MinCompleteness > 1 {
		return fmt.Errorf("SCORE_MIN_COMPLETENESS must be in [0, 1]")
	}
	if c.Audit.Tolerance < 0 {
		return fmt.Errorf("AUDIT_TOLERANCE must be >= 0")
	}
	if c.Audit.BatchSize < 1 {
		return fmt.Errorf("AUDIT_BATCH_SIZE must be >= 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
