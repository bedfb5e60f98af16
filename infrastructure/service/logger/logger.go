package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the process-wide structured logger. Format is "json" or "text".
func New(level, format, serviceName string) *logrus.Logger {
	l := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		})
	}

	l.SetOutput(os.Stdout)
	l.AddHook(&serviceHook{service: serviceName})

	return l
}

// serviceHook stamps every entry with the emitting service's name.
type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.service
	return nil
}
