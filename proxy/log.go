package proxy

import "github.com/sirupsen/logrus"

// newLogger builds the proxy's structured logger. Fields are attached
// per-connection (remote address, fingerprint) rather than baked into the
// logger itself, so a single instance is shared across all connection
// goroutines.
func newLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}
