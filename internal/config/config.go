// Package config provides configuration management for the Brain memory
// engine. It loads settings from environment variables with the BRAIN_
// prefix and provides sensible defaults for all configuration options.
//
// User settings (e.g., user_name) are persisted to the settings table in
// the database. LoadConfigFromDB reads from the database first and falls back
// to environment variables. SaveConfig writes user settings to the database.
package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration settings for the Brain application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Sleep    SleepConfig
	Security SecurityConfig
	Backup   BackupConfig
	Features FeaturesConfig
	User     UserConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 6363)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory (default: ./data)
	PostgresDSN   string // Postgres connection string, used when StorageEngine=postgres
}

// LLMConfig contains embedding provider configuration (spec.md §4.8, §6
// "Environment": EMBEDDING_PROVIDER in {local, openai}). "local" means
// Ollama; there is no text-completion provider because the engine never
// generates text, only embeddings (spec.md §1 Non-goals).
type LLMConfig struct {
	EmbeddingProvider    string // EMBEDDING_PROVIDER: local, openai (default: local)
	OllamaURL            string // Ollama API URL (default: http://localhost:11434)
	OllamaEmbeddingModel string // Ollama model name for embeddings (default: nomic-embed-text)
	OpenAIAPIKey         string // OpenAI API key
	OpenAIEmbeddingModel string // OpenAI embedding model name (default: text-embedding-3-small)
}

// SleepConfig controls the default sleep-cycle phase order and the
// consolidation/relate caps spec.md §4.6/§5 names.
type SleepConfig struct {
	// DefaultPhases is the ordered phase list sleep_cycle() runs when the
	// caller doesn't name specific phases (spec.md §4.6: "default order:
	// connect, relate, themes, calibrate, decay").
	DefaultPhases []string

	// RelateThreshold is the cosine-similarity cutoff the relate phase uses
	// to create RELATED_TO edges (spec.md §4.6: "sim >= 0.75").
	RelateThreshold float64

	// RelateMaxCandidates caps the relate phase's O(n^2) comparison set
	// (spec.md §5: "max 500 candidates in relate's TF fallback").
	RelateMaxCandidates int

	// MaxConsolidationEdges caps new CO_ACCESSED edges per consolidate()
	// call (spec.md §4.6, §9 Open Question: "preserve the cap but expose it
	// as a named constant").
	MaxConsolidationEdges int
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// BackupConfig contains backup configuration.
type BackupConfig struct {
	BackupEnabled          bool   // Enable automatic backups (default: false)
	BackupInterval         string // Backup interval duration (default: 24h)
	BackupPath             string // Path to backup directory (default: ./backups)
	BackupVerify           bool   // Verify backups after creation (default: true)
	BackupRetentionHourly  int    // Number of hourly backups to keep (default: 24)
	BackupRetentionDaily   int    // Number of daily backups to keep (default: 7)
	BackupRetentionWeekly  int    // Number of weekly backups to keep (default: 4)
	BackupRetentionMonthly int    // Number of monthly backups to keep (default: 12)
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	EnableServer bool // Enable the optional status/search HTTP+WS server (default: true)
	EnableBackup bool // Enable the automated backup service (default: false)
}

// UserConfig contains user-specific settings that persist across restarts.
// These settings are stored in the settings table in the database.
type UserConfig struct {
	// UserName is the display name for the user.
	// Env var: BRAIN_USER_NAME
	// Database key: user_name
	UserName string
}

// LoadConfig loads configuration from environment variables with sensible defaults.
// All environment variables use the BRAIN_ prefix.
// User settings (UserConfig) are loaded from environment variables only.
// Use LoadConfigFromDB to also read persisted user settings from the database.
func LoadConfig() (*Config, error) {
	cfg := buildBaseConfig()
	return cfg, nil
}

// LoadConfigFromDB loads configuration from both environment variables and the
// database. The database value takes precedence over the environment variable
// for user settings. Falls back to environment variable when no DB entry exists.
//
// Returns an error if db is nil.
func LoadConfigFromDB(db *sql.DB) (*Config, error) {
	if db == nil {
		return nil, errors.New("config: database connection is required")
	}

	cfg := buildBaseConfig()

	// Load user_name from settings table (DB takes precedence over env var)
	userName, err := getSetting(db, "user_name")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config: failed to load user_name from database: %w", err)
	}

	if userName != "" {
		// DB value overrides env var
		cfg.User.UserName = userName
	}
	// If no DB value, cfg.User.UserName already has the env var value from buildBaseConfig()

	return cfg, nil
}

// SaveConfig persists user configuration settings to the settings table in the
// database. Uses upsert semantics: inserts if not present, updates if already
// stored. This ensures user settings survive application restarts.
//
// Returns an error if db is nil.
func (c *Config) SaveConfig(db *sql.DB) error {
	if db == nil {
		return errors.New("config: database connection is required")
	}

	if err := setSetting(db, "user_name", c.User.UserName); err != nil {
		return fmt.Errorf("config: failed to save user_name: %w", err)
	}

	return nil
}

// getSetting retrieves a single setting value by key from the settings table.
// Returns an empty string and sql.ErrNoRows if the key does not exist.
func getSetting(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// setSetting writes a key-value pair to the settings table using upsert semantics.
func setSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// defaultSleepPhases is spec.md §4.6's default ordered phase list.
var defaultSleepPhases = []string{"connect", "relate", "themes", "calibrate", "decay"}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults. This is the shared base for both LoadConfig and LoadConfigFromDB.
func buildBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("BRAIN_PORT", 6363),
			Host: getEnv("BRAIN_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("BRAIN_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("BRAIN_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("BRAIN_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "local"),
			OllamaURL:            getEnv("BRAIN_OLLAMA_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("BRAIN_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:         getEnv("BRAIN_OPENAI_API_KEY", ""),
			OpenAIEmbeddingModel: getEnv("BRAIN_OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Sleep: SleepConfig{
			DefaultPhases:         defaultSleepPhases,
			RelateThreshold:       0.75,
			RelateMaxCandidates:   500,
			MaxConsolidationEdges: 50,
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("BRAIN_SECURITY_MODE", "development"),
			APIToken:     getEnv("BRAIN_API_TOKEN", ""),
		},
		Backup: BackupConfig{
			BackupEnabled:          getEnvBool("BRAIN_BACKUP_ENABLED", false),
			BackupInterval:         getEnv("BRAIN_BACKUP_INTERVAL", "24h"),
			BackupPath:             getEnv("BRAIN_BACKUP_PATH", "./backups"),
			BackupVerify:           getEnvBool("BRAIN_BACKUP_VERIFY", true),
			BackupRetentionHourly:  getEnvInt("BRAIN_BACKUP_RETENTION_HOURLY", 24),
			BackupRetentionDaily:   getEnvInt("BRAIN_BACKUP_RETENTION_DAILY", 7),
			BackupRetentionWeekly:  getEnvInt("BRAIN_BACKUP_RETENTION_WEEKLY", 4),
			BackupRetentionMonthly: getEnvInt("BRAIN_BACKUP_RETENTION_MONTHLY", 12),
		},
		Features: FeaturesConfig{
			EnableServer: getEnvBool("BRAIN_ENABLE_SERVER", true),
			EnableBackup: getEnvBool("BRAIN_ENABLE_BACKUP", false),
		},
		User: UserConfig{
			UserName: getEnv("BRAIN_USER_NAME", ""),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
