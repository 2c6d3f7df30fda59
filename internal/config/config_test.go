package config

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var keys = []string{
	"SERVER_PORT", "DB_DRIVER", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT",
	"QUALIFIERS_PER_GROUP", "AVOID_SAME_GROUP_FIRST_ROUND", "SAVE_RETRIES",
	"GAMES_PER_SET", "SETS_TO_WIN", "CORS_ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	eq1 := cfg.ServerPort == 8080 && cfg.QualifiersPerGroup == 2 && cfg.SaveRetries == 3
	eq2 := cfg.GamesPerSet == 6 && cfg.SetsToWin == 1 && cfg.AvoidSameGroupFirstRound
	eq3 := len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*"
	if !eq1 || !eq2 || !eq3 {
		t.Fatal("The defaults were not applied")
	}
	if cfg.DBDriver != "sqlite" || cfg.DatabaseURL != "beachtennis.db" || cfg.LogFormat != "text" {
		t.Fatal("The storage and log defaults were not applied")
	}
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "host=localhost dbname=beach")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("AVOID_SAME_GROUP_FIRST_ROUND", "false")
	t.Setenv("SETS_TO_WIN", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerPort != 9000 || cfg.DBDriver != "postgres" || cfg.AvoidSameGroupFirstRound || cfg.SetsToWin != 2 {
		t.Fatal("The environment did not override the defaults")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.example" {
		t.Fatal("The allowed origins were not split")
	}

	logger := logrus.New()
	if err := cfg.ConfigureLogger(logger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatal("The log level was not applied")
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatal("The log format was not applied")
	}
}

func TestInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "eighty")
	if _, err := FromEnv(); err == nil {
		t.Fatal("A non numeric port did not error")
	}

	clearEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	_, err := FromEnv()
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatal("An unknown database driver did not fail validation")
	}
}
