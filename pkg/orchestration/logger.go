package orchestration

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface used throughout the orchestrator.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// defaultLogger backs the Logger interface with logrus.
type defaultLogger struct {
	entry *logrus.Entry
}

// NewDefaultLogger returns a logrus-backed logger tagged with the component
// name.
func NewDefaultLogger() Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &defaultLogger{
		entry: logger.WithField("component", "orchestra"),
	}
}

// NewLogrusLogger wraps an existing logrus entry in the Logger interface.
func NewLogrusLogger(entry *logrus.Entry) Logger {
	return &defaultLogger{entry: entry}
}

func (l *defaultLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Info(msg)
}

func (l *defaultLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Warn(msg)
}

func (l *defaultLogger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Error(msg)
}

func (l *defaultLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Debug(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
