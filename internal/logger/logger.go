package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/storefront-promo/internal/config"
)

// Log is the process-wide logger.
var Log = logrus.New()

// Init configures Log from the application configuration.
func Init(cfg *config.Config) {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		Log.Warnf("invalid log level %q, defaulting to info: %v", cfg.LogLevel, err)
		Log.SetLevel(logrus.InfoLevel)
	} else {
		Log.SetLevel(level)
	}

	switch cfg.Environment {
	case "production", "staging":
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	Log.Debugf("logger ready: level=%s environment=%s", Log.GetLevel(), cfg.Environment)
}

// Get returns the configured logger.
func Get() *logrus.Logger {
	return Log
}
