package img

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLogger attaches a structured logger. The archive logs relocation,
// packing, and sync activity at debug level. Without a logger all output
// is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}
