package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)
	logg.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
}

func parseLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// GetLogger returns the shared JSON logger.
func GetLogger() *logrus.Logger {
	return logg
}

// LogError records err with optional structured fields.
func LogError(err error, fields map[string]interface{}) {
	if err == nil {
		return
	}
	if fields == nil {
		logg.Error(err.Error())
		return
	}
	logg.WithFields(logrus.Fields(fields)).Error(err.Error())
}
