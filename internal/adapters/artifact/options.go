// Package artifact loads the serialized model bundle: regression model,
// per-feature label encoders, scaler and the feature schema tying them together.
package artifact

import "github.com/okian/salarygauge/pkg/logger"

// Default loader configuration constants.
const (
	defaultMaxBytes = 256 << 20
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithMaxBytes caps the decompressed artifact size.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithLogger sets the logger used to report what was loaded.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}
