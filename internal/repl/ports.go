package repl

import (
	"context"

	"github.com/RichardKnop/tinydb/internal/parser"
)

type Parser interface {
	Parse(context.Context, string) (parser.Statement, error)
}
