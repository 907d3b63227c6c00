package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/RichardKnop/tinydb/internal/parser"
	"github.com/RichardKnop/tinydb/internal/pkg/util"
	"github.com/RichardKnop/tinydb/internal/tinydb"
)

const Prompt = "db > "

var recordColumns = []util.Column{
	{Name: "id", Width: 10},
	{Name: "username", Width: tinydb.UsernameSize},
	{Name: "email", Width: 40},
}

// Session executes input lines one at a time against an open table and
// writes the results to out. It is not safe for concurrent use.
type Session struct {
	table        *tinydb.Table
	out          io.Writer
	parser       Parser
	mode         OutputMode
	tableOptions []tinydb.Option
	logger       *zap.Logger
}

// NewSession starts a session over aTable, which may be nil until .open is used.
func NewSession(out io.Writer, aTable *tinydb.Table, opts ...Option) *Session {
	o := options{
		logger: zap.NewNop(),
		mode:   ModeLine,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parser == nil {
		o.parser = parser.New(parser.DefaultCacheSize, o.logger)
	}

	return &Session{
		table:        aTable,
		out:          out,
		parser:       o.parser,
		mode:         o.mode,
		tableOptions: o.tableOptions,
		logger:       o.logger,
	}
}

// Execute runs a single line of input. It returns true once the session
// should end. A returned error is fatal, the table can no longer be trusted
// or written to.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if isMetaCommand(line) {
		return s.doMetaCommand(ctx, line)
	}

	aStatement, err := s.parser.Parse(ctx, line)
	if err != nil {
		s.printPrepareError(line, err)
		return false, nil
	}

	if s.table == nil {
		fmt.Fprintln(s.out, "No table to perform statement!")
		return false, nil
	}

	switch aStatement.Kind {
	case parser.Insert:
		return false, s.executeInsert(ctx, aStatement)
	case parser.Select:
		return false, s.executeSelect(ctx, aStatement)
	}

	return false, nil
}

// Close closes the open table, if any.
func (s *Session) Close(ctx context.Context) error {
	if s.table == nil {
		return nil
	}
	err := s.table.Close(ctx)
	s.table = nil
	return err
}

func (s *Session) printPrepareError(line string, err error) {
	switch {
	case errors.Is(err, parser.ErrStringTooLong):
		fmt.Fprintln(s.out, "String is too long.")
	case errors.Is(err, parser.ErrNegativeID):
		fmt.Fprintln(s.out, "ID must be positive.")
	case errors.Is(err, parser.ErrSyntax):
		fmt.Fprintln(s.out, "Syntax error. Could not parse statement.")
	default:
		fmt.Fprintf(s.out, "Unrecognized keyword at start of '%s'.\n", line)
	}
}

func (s *Session) executeInsert(ctx context.Context, aStatement parser.Statement) error {
	err := s.table.Insert(ctx, aStatement.Record)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Executed.")
		return nil
	case errors.Is(err, tinydb.ErrDuplicateKey):
		fmt.Fprintln(s.out, "Error: Duplicate key.")
		return nil
	case errors.Is(err, tinydb.ErrTableFull):
		fmt.Fprintln(s.out, "Error: Table full.")
		return nil
	case errors.Is(err, tinydb.ErrInvalidRecord):
		fmt.Fprintln(s.out, "String is too long.")
		return nil
	}

	s.logger.Sugar().With(
		"id", int(aStatement.Record.ID),
		"error", err,
	).Error("insert failed")
	return fmt.Errorf("insert: %w", err)
}

func (s *Session) executeSelect(ctx context.Context, aStatement parser.Statement) error {
	if s.mode == ModeBox {
		util.PrintTableHeader(s.out, recordColumns)
	}

	if aStatement.HasID {
		aRecord, ok, err := s.table.Get(ctx, aStatement.Record.ID)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		if ok {
			s.printRecord(aRecord)
		}
	} else if err := s.table.Scan(ctx, func(aRecord tinydb.Record) error {
		s.printRecord(aRecord)
		return nil
	}); err != nil {
		return fmt.Errorf("select: %w", err)
	}

	if s.mode == ModeBox {
		util.PrintTableEnd(s.out, recordColumns)
	}
	fmt.Fprintln(s.out, "Executed.")

	return nil
}

func (s *Session) printRecord(aRecord tinydb.Record) {
	if s.mode == ModeBox {
		util.PrintTableRow(s.out, recordColumns, []any{aRecord.ID, aRecord.Username, aRecord.Email})
		return
	}
	fmt.Fprintln(s.out, aRecord.String())
}
