package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the service logger. JSON output is used unless format is "text".
func New(level, format string) *logrus.Logger {
	log := logrus.New()

	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
		if level != "" {
			log.WithField("invalid_level", level).Warn("Invalid LOG_LEVEL, using INFO")
		}
	}

	if strings.ToLower(format) == "text" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	log.SetOutput(os.Stdout)
	return log
}

// Component scopes a logger to a named component.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	if log == nil {
		log = Discard()
	}
	return log.WithField("component", name)
}

// Discard returns a logger that drops everything. Used by tests and by
// constructors handed a nil logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
