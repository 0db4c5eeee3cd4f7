// Package logging constructs the structured logger shared across
// sentinel's services.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a configured logrus logger. level is one of logrus's level
// strings ("debug", "info", "warn", "error"); an unrecognized level
// falls back to info. format selects "json" or text output — anything
// other than "json" uses the text formatter.
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// WithComponent returns an entry tagged with the emitting component's
// name, so log lines across behavioral/risk/access/lateral/policy
// subsystems can be filtered consistently.
func WithComponent(log *logrus.Logger, component string) *logrus.Entry {
	return log.WithField("component", component)
}
