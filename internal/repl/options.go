package repl

import (
	"go.uber.org/zap"

	"github.com/RichardKnop/tinydb/internal/tinydb"
)

type OutputMode int

const (
	// ModeLine prints one "(id, username, email)" line per record.
	ModeLine OutputMode = iota + 1
	// ModeBox prints records as a boxed table.
	ModeBox
)

type options struct {
	logger       *zap.Logger
	parser       Parser
	mode         OutputMode
	tableOptions []tinydb.Option
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithParser(aParser Parser) Option {
	return func(o *options) {
		o.parser = aParser
	}
}

func WithOutputMode(mode OutputMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithTableOptions sets the options used when .open opens a database file.
func WithTableOptions(opts ...tinydb.Option) Option {
	return func(o *options) {
		o.tableOptions = opts
	}
}
