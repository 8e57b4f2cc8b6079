package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

var logger *log.Logger

// GetLogger returns the process-wide logger, creating it on first use.
func GetLogger() *log.Logger {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// Init configures the process-wide logger. Unknown levels fall back to info.
func Init(level string, out io.Writer) *log.Logger {
	l := GetLogger()
	if out != nil {
		l.SetOutput(out)
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
	return l
}

// WithFields returns an entry carrying the given fields.
func WithFields(fields log.Fields) *log.Entry {
	return GetLogger().WithFields(fields)
}

func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}
