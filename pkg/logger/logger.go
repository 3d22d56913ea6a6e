package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New creates a JSON logger at the given level ("debug", "info", "warn", "error").
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(parseLevel(level))
	return log
}

// Discard returns a logger that writes nothing. Used in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Component returns an entry tagged with the subsystem name.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	if log == nil {
		log = Discard()
	}
	return log.WithField("component", name)
}

func parseLevel(level string) logrus.Level {
	switch level {
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
