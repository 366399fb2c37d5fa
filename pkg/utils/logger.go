package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func InitLogger() {
	Logger = newLogger(os.Getenv("LOG_LEVEL"), true)
}

func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger
}

// NewConsoleLogger builds a plain-text logger for the interactive CLI, where
// JSON lines would drown the chat output. Level defaults to warn so the
// conversation stays readable.
func NewConsoleLogger(level string) *logrus.Logger {
	if level == "" {
		level = "warn"
	}
	return newLogger(level, false)
}

func newLogger(level string, jsonFormat bool) *logrus.Logger {
	logger := logrus.New()

	if jsonFormat {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
	}

	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.SetOutput(os.Stdout)
	return logger
}
