package mountfs

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Option is a functional option for configuring a Table.
type Option func(*Table)

// WithLogger sets the logger that receives resolution traces at debug level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Table) {
		if l != nil {
			t.log = l
		}
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
