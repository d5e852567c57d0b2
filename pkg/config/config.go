package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envFiles = []string{
	"./cfg/.env",
}

var envVars = []string{
	"DB_DRIVER",
	"DB_HOST",
	"DB_PORT",
	"DB_USER",
	"DB_PASSWORD",
	"DB_NAME",
	"DB_SSLMODE",
	"DB_PATH",

	"SERVICE_PORT",
	"LOG_LEVEL",
	"SHUTDOWN_TIMEOUT",
}

type DBConfig struct {
	Driver   string `mapstructure:"DB_DRIVER"`
	Host     string `mapstructure:"DB_HOST"`
	Port     string `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
	// Path is the database file used by the sqlite3 driver.
	Path string `mapstructure:"DB_PATH"`
}

type ServiceConfig struct {
	Port            string        `mapstructure:"SERVICE_PORT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var (
	DB  DBConfig
	API ServiceConfig
)

var ConfigStructs = []interface{}{
	&DB,
	&API,
}

func setDefaults() {
	viper.SetDefault("DB_DRIVER", "pgx")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "require")
	viper.SetDefault("DB_PATH", "./data/app.db")

	viper.SetDefault("SERVICE_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "debug")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

func loadEnv() {
	slog.Debug("Loading .env files")
	// Missing .env is fine inside containers, the environment is used as is
	err := godotenv.Load(envFiles...)
	if err != nil {
		slog.Warn(".env file not found, using environment variables", "err", err)
	}
	viper.AutomaticEnv()

	for _, v := range envVars {
		viper.BindEnv(v)
	}
}

func loadStructs() error {
	slog.Debug("Loading config structs")
	for _, v := range ConfigStructs {
		if err := viper.Unmarshal(v); err != nil {
			return fmt.Errorf("unmarshal config struct: %w", err)
		}
	}
	return nil
}

func SetupConfigs() error {
	setDefaults()
	loadEnv()
	return loadStructs()
}

// LogLevel maps LOG_LEVEL onto a slog level, falling back to debug.
func LogLevel() slog.Level {
	switch strings.ToLower(API.LogLevel) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func GetDBURL(driver string) string {
	sslmode := DB.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}

	switch driver {
	case "pgx", "postgres", "postgresql":
		u := url.URL{
			Scheme:   "postgresql",
			User:     url.UserPassword(DB.User, DB.Password),
			Host:     DB.Host + ":" + DB.Port,
			Path:     "/" + DB.DBName,
			RawQuery: "sslmode=" + url.QueryEscape(sslmode),
		}
		return u.String()
	case "sqlite3":
		return fmt.Sprintf("file:%s?_foreign_keys=on", DB.Path)
	default:
		return ""
	}
}

// EnsureDataDir creates the parent directory of the sqlite database file.
func EnsureDataDir() error {
	if DB.Driver != "sqlite3" {
		return nil
	}
	dir := filepath.Dir(DB.Path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
