package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort int `validate:"min=1,max=65535"`

	DBDriver    string `validate:"oneof=postgres sqlite"`
	DatabaseURL string `validate:"required"`

	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=text json"`

	QualifiersPerGroup       int `validate:"min=1"`
	AvoidSameGroupFirstRound bool
	SaveRetries              int `validate:"min=1,max=10"`

	GamesPerSet int `validate:"min=1"`
	SetsToWin   int `validate:"min=1"`

	CORSAllowedOrigins []string `validate:"min=1,dive,required"`
}

// Loads the configuration from the environment. A .env file in the
// working directory is loaded first when it exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded, relying on the environment")
	}
	return FromEnv()
}

// Reads the configuration from the environment variables without
// loading a .env file
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL: getEnv("DATABASE_URL", "beachtennis.db"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.ServerPort, err = getEnvAsInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.QualifiersPerGroup, err = getEnvAsInt("QUALIFIERS_PER_GROUP", 2); err != nil {
		return nil, err
	}
	if cfg.AvoidSameGroupFirstRound, err = getEnvAsBool("AVOID_SAME_GROUP_FIRST_ROUND", true); err != nil {
		return nil, err
	}
	if cfg.SaveRetries, err = getEnvAsInt("SAVE_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.GamesPerSet, err = getEnvAsInt("GAMES_PER_SET", 6); err != nil {
		return nil, err
	}
	if cfg.SetsToWin, err = getEnvAsInt("SETS_TO_WIN", 1); err != nil {
		return nil, err
	}

	origins := strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",")
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Configures the standard logrus logger from the log settings
func (c *Config) ConfigureLogger(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// Unset and empty variables fall back to the default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("env var %s: expected integer, got '%s'", key, valueStr)
	}
	return value, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("env var %s: expected boolean, got '%s'", key, valueStr)
	}
	return value, nil
}
