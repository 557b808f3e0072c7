package dnp3

import "github.com/sirupsen/logrus"

// WriterOption configures a Writer at construction time, generalizing the
// teacher's client_option.go functional-options builder idiom.
type WriterOption func(w *Writer)

// WithCapacity sets the maximum fragment size. Values <= 0 are ignored and
// DefaultWriterCapacity is kept.
func WithCapacity(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.cap = n
		}
	}
}

// WithLogger overrides the logger a Writer would otherwise inherit from
// the package default. Writer itself never logs (C7 is side-effect free)
// but retains the logger so callers composing fragments alongside it can
// share one sink.
func WithLogger(lg *logrus.Logger) WriterOption {
	return func(w *Writer) {
		if lg != nil {
			w.lg = lg
		}
	}
}
