package log

import (
	"bytes"
	"regexp"
	"sync"
)

type logTarget interface {
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
}

var (
	errorLine   = regexp.MustCompile(`\[ERROR\]|<Error>|SEVERE|Exception`)
	warningLine = regexp.MustCompile(`\[WARN(ING)?\]|<Warning>|WARNING:`)
)

// LineWriter forwards the output of an external tool like configjar line by line
// to the logger, picking the level from the markers the tool prints.
type LineWriter struct {
	logger  logTarget
	pending bytes.Buffer
	mutex   sync.Mutex
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	written := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.pending.Write(p)
			break
		}
		w.pending.Write(p[:i])
		w.emit()
		p = p[i+1:]
	}
	return written, nil
}

func (w *LineWriter) emit() {
	line := string(bytes.TrimRight(w.pending.Bytes(), "\r"))
	w.pending.Reset()

	switch {
	case errorLine.MatchString(line):
		w.logger.Error(line)
	case warningLine.MatchString(line):
		w.logger.Warn(line)
	default:
		w.logger.Info(line)
	}
}

// Flush logs a trailing line without linebreak.
func (w *LineWriter) Flush() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.pending.Len() > 0 {
		w.emit()
	}
}
