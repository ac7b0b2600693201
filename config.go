package faultfs

import "github.com/aalhour/faultfs/internal/logging"

// Options configures a FileSystem at construction time.
//
// Reference: functional-options pattern mirrored from the teacher's
// internal/options package style (Option func(*options)), trimmed down
// to the knobs a fault-injection facade actually needs: which BaseFS it
// wraps and where it logs.
type Options struct {
	baseFS BaseFS
	logger logging.Logger
}

// Option mutates Options during construction.
type Option func(*Options)

// WithBaseFS overrides the host filesystem the facade wraps. Defaults
// to NewOSBaseFS().
func WithBaseFS(fs BaseFS) Option {
	return func(o *Options) { o.baseFS = fs }
}

// WithLogger overrides the facade's logger. Defaults to a WARN-level
// logging.DefaultLogger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.logger = l }
}

func newOptions(opts ...Option) *Options {
	o := &Options{}
	for _, fn := range opts {
		fn(o)
	}
	if o.baseFS == nil {
		o.baseFS = NewOSBaseFS()
	}
	o.logger = logging.OrDefault(o.logger)
	return o
}
