// Package obslog provides the structured, leveled logging every phase
// writes through (§2 EXPANDED ambient stack), grounded on
// rohankatakam-coderisk's logrus.Logger-as-a-field style
// (internal/cache/manager.go, internal/ingestion/orchestrator.go).
package obslog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the logger the Builder and its collaborators share. Text
// formatting with full timestamps matches what a terminal-run ingestion
// tool wants; callers that need JSON (shipping to a log aggregator) can
// swap the formatter after construction.
func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// WithPhase scopes a logger entry to one builder phase, the shape every
// phase-boundary log line in internal/build uses.
func WithPhase(l *logrus.Logger, phase string) *logrus.Entry {
	return l.WithField("phase", phase)
}
