package mixer

import (
	"go.uber.org/zap"
)

type Option func(d *Display)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Display) {
		d.logger = logger.With(zap.String("via", "mixer"))
	}
}
