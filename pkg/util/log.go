package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLogLevel sets the logging level
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetLogOutput sets the log output destination
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat enables JSON log format
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns a logger with a field
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns a logger with multiple fields
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithDevice returns a logger with device context
func WithDevice(device string) *logrus.Entry {
	return Logger.WithField("device", device)
}

// WithOperation returns a logger with operation context
func WithOperation(operation string) *logrus.Entry {
	return Logger.WithField("operation", operation)
}

// Debug logs at debug level on the global logger.
func Debug(args ...interface{}) {
	Logger.Debug(args...)
}

// Debugf logs a formatted message at debug level on the global logger.
func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

// Info logs at info level on the global logger.
func Info(args ...interface{}) {
	Logger.Info(args...)
}

// Infof logs a formatted message at info level on the global logger.
func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

// Warn logs at warn level on the global logger.
func Warn(args ...interface{}) {
	Logger.Warn(args...)
}

// Warnf logs a formatted message at warn level on the global logger.
func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

// Error logs at error level on the global logger.
func Error(args ...interface{}) {
	Logger.Error(args...)
}

// Errorf logs a formatted message at error level on the global logger.
func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

// Fatal logs at fatal level on the global logger and exits the process.
func Fatal(args ...interface{}) {
	Logger.Fatal(args...)
}

// Fatalf logs a formatted message at fatal level on the global logger and
// exits the process.
func Fatalf(format string, args ...interface{}) {
	Logger.Fatalf(format, args...)
}
