package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Files    FileStoreConfig
	Notif    NotifConfig
	Logging  LoggingConfig

	JWTSecret string
}

type ServerConfig struct {
	ListenAddr  string
	OpsAddr     string
	ReadTimeout time.Duration
	Environment string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	DatabaseName string
	MaxOpenConns int
	MaxIdleConns int
}

type MongoConfig struct {
	// URI is optional; when empty, avatars are stored on disk instead of GridFS.
	URI      string
	Database string
}

type FileStoreConfig struct {
	Root      string
	AvatarDir string
	ChunkSize int
	ThumbMax  int
}

type NotifConfig struct {
	Workers    int
	BufferSize int
}

type LoggingConfig struct {
	Level string
}

// Load reads configuration from the environment, falling back to development
// defaults. godotenv is loaded by main before this runs.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			ListenAddr:  getEnv("LISTEN_ADDR", ":9000"),
			OpsAddr:     getEnv("OPS_ADDR", ":9090"),
			ReadTimeout: time.Duration(getEnvInt("READ_TIMEOUT_SECONDS", 300)) * time.Second,
			Environment: getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "3306"),
			Username:     getEnv("DB_USER", "gomessenger"),
			Password:     getEnv("DB_PASSWORD", ""),
			DatabaseName: getEnv("DB_NAME", "gomessenger"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DB", "gomessenger"),
		},
		Files: FileStoreConfig{
			Root:      getEnv("FILE_STORE_DIR", "data/files"),
			AvatarDir: getEnv("AVATAR_DIR", "data/avatars"),
			ChunkSize: getEnvInt("FILE_CHUNK_SIZE", 32<<10),
			ThumbMax:  getEnvInt("THUMB_MAX_DIM", 400),
		},
		Notif: NotifConfig{
			Workers:    getEnvInt("NOTIF_WORKERS", 2),
			BufferSize: getEnvInt("NOTIF_BUFFER", 256),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
	}

	if cfg.Files.ChunkSize <= 0 {
		return nil, fmt.Errorf("FILE_CHUNK_SIZE must be positive")
	}
	return cfg, nil
}

// DSN builds the MySQL connection string from the database config.
func (cfg *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
