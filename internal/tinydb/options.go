package tinydb

import (
	"go.uber.org/zap"
)

const minInternalNodeMaxCells = 3

type options struct {
	logger           *zap.Logger
	metrics          *Metrics
	maxPages         uint32
	internalMaxCells uint32
}

func defaultOptions() options {
	return options{
		logger:           zap.NewNop(),
		metrics:          NewMetrics(nil),
		maxPages:         DefaultMaxPages,
		internalMaxCells: InternalNodeMaxCells,
	}
}

func newOptions(opts ...Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Pager or a Table.
type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxPages sets the page capacity ceiling, inserts past it fail with ErrTableFull.
func WithMaxPages(maxPages uint32) Option {
	return func(o *options) {
		if maxPages > 0 {
			o.maxPages = maxPages
		}
	}
}

// WithInternalNodeMaxCells lowers the number of keys an internal node holds
// before it splits. Values are clamped to [3, InternalNodeMaxCells].
func WithInternalNodeMaxCells(maxCells uint32) Option {
	return func(o *options) {
		o.internalMaxCells = min(max(maxCells, minInternalNodeMaxCells), InternalNodeMaxCells)
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}
