// Package logging holds the process-wide diagnostic logger.
// User-facing output goes through internal/cli, not here.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It writes to stderr at warn level until SetLevel is called.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// SetLevel sets the log level from a name. An empty name keeps the current level.
func SetLevel(level string) error {
	// trace and panic levels are not used
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return nil
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "info":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	case "fatal":
		Log.SetLevel(logrus.FatalLevel)
	default:
		return fmt.Errorf("unknown log level %q (want debug, info, warn, error)", level)
	}
	return nil
}

// UseTimestamps switches to full timestamps, for long-running processes.
func UseTimestamps() {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
