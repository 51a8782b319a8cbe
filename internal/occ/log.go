package occ

import "github.com/sirupsen/logrus"

var log = logrus.WithField("component", "occ")

// SetLogger redirects occ's log lines through l instead of the
// package default.
func SetLogger(l *logrus.Logger) {
	log = l.WithField("component", "occ")
}
