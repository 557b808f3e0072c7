package dnp3

import "github.com/sirupsen/logrus"

// _lg is the package logger used by the response context and the default
// EventBuffer implementation (MemoryDatabase does not log). The parser and
// writer never log; see DESIGN.md.
var _lg = logrus.New()

// SetLogger overrides the package logger.
func SetLogger(lg *logrus.Logger) {
	_lg = lg
}

// Logger returns the current package logger.
func Logger() *logrus.Logger {
	return _lg
}
