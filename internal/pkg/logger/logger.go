package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the process logger: text in dev mode, JSON in prod mode.
// An unknown level falls back to info.
func New(mode, level string) *logrus.Logger {
	return NewWithOutput(mode, level, os.Stdout)
}

// NewWithOutput is New writing to out
func NewWithOutput(mode, level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if mode == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	}

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}
