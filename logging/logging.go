// Package logging builds the process logger.
package logging

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// Level maps a configured level name onto logrus. "silent" only lets
// panics through.
func Level(name string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent":
		return logrus.PanicLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "trace":
		return logrus.TraceLevel, nil
	}
	return logrus.InfoLevel, errors.Errorf("unknown log level %q", name)
}

// New returns a logger writing to out in the "text" or "json" format.
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := Level(level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
	return l, nil
}
