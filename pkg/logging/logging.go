package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	// KeyError is the log attribute key for errors.
	KeyError = "err"

	// KeyDal is the log attribute key for the data access layer name.
	KeyDal = "dal"

	// KeyGuild is the log attribute key for a guild ID.
	KeyGuild = "guild_id"

	// KeyChannel is the log attribute key for a channel ID.
	KeyChannel = "channel_id"

	// KeyUser is the log attribute key for a user ID.
	KeyUser = "user_id"

	// KeyMessage is the log attribute key for a message ID.
	KeyMessage = "message_id"

	// EnvLogLevel is the environment variable for the log level.
	EnvLogLevel = `LOG_LEVEL`
)

// Name is the name of the application the logger is created for.
type Name string

// Config is the configuration for the logger.
type Config struct {
	// appName is the name of the application.
	appName Name

	// level is the minimum level that is logged.
	level slog.Level
}

// NewConfig creates a new logger configuration. The level is read from the LOG_LEVEL environment variable
// and defaults to info.
func NewConfig(appName Name) *Config {
	return &Config{
		appName: appName,
		level:   parseLevel(os.Getenv(EnvLogLevel)),
	}
}

// CommonLogger creates the JSON logger used by every component of the application. It is also set as the default
// slog logger.
func CommonLogger(cfg *Config) (*slog.Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logger config is nil")
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: cfg.level == slog.LevelDebug,
		Level:     cfg.level,
	})

	l := slog.New(h).With(slog.String("app", string(cfg.appName)))
	slog.SetDefault(l)
	return l, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
