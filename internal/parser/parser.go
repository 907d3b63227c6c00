package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/RichardKnop/tinydb/internal/tinydb"
	"github.com/RichardKnop/tinydb/pkg/lrucache"
)

var (
	// ErrUnrecognized means the input does not start with a known keyword.
	ErrUnrecognized = errors.New("unrecognized statement")
	// ErrSyntax means the statement has missing or malformed arguments.
	ErrSyntax = errors.New("syntax error")
	// ErrStringTooLong is returned for a username or email wider than its column.
	ErrStringTooLong = fmt.Errorf("%w: string too long", tinydb.ErrInvalidRecord)
	// ErrNegativeID is returned for an id below zero.
	ErrNegativeID = fmt.Errorf("%w: negative id", tinydb.ErrInvalidRecord)
)

const DefaultCacheSize = 256

type StatementKind int

const (
	Insert StatementKind = iota + 1
	Select
)

func (k StatementKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Select:
		return "select"
	default:
		return "unknown"
	}
}

// Statement is a parsed insert or select. A select with HasID set looks up a single key.
type Statement struct {
	Kind   StatementKind
	Record tinydb.Record
	HasID  bool
}

type step int

const (
	stepBeginning step = iota + 1
	stepInsertID
	stepInsertUsername
	stepInsertEmail
	stepSelectID
	stepEnd
)

type parser struct {
	Statement
	tokens []string
	step   step
	cache  *lrucache.Cache[string, Statement]
	logger *zap.Logger
}

func New(cacheSize int, logger *zap.Logger) *parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &parser{
		cache:  lrucache.New[string, Statement](cacheSize),
		logger: logger,
	}
}

// Parse turns one line of input into a statement. Successfully parsed
// statements are cached by their input.
func (p *parser) Parse(ctx context.Context, input string) (Statement, error) {
	input = strings.TrimSpace(input)

	if aStatement, ok := p.cache.Get(input); ok {
		return aStatement, nil
	}

	p.reset(input)
	aStatement, err := p.doParse()
	if err != nil {
		p.logger.Sugar().With(
			"input", input,
			"error", err,
		).Debug("failed to parse statement")
		return Statement{}, err
	}

	p.cache.Put(input, aStatement)

	return aStatement, nil
}

func (p *parser) reset(input string) {
	p.Statement = Statement{}
	p.tokens = strings.Fields(input)
	p.step = stepBeginning
}

func (p *parser) doParse() (Statement, error) {
	for {
		if p.step == stepEnd {
			if len(p.tokens) > 0 {
				return Statement{}, fmt.Errorf("%w: unexpected %q", ErrSyntax, p.peek())
			}
			return p.Statement, nil
		}

		switch p.step {
		case stepBeginning:
			keyword := p.peek()
			switch {
			case keyword == "insert":
				p.Kind = Insert
				p.step = stepInsertID
			case keyword == "select":
				p.Kind = Select
				p.step = stepSelectID
			case strings.HasPrefix(keyword, "insert"):
				// An insert keyword glued to its arguments is still an insert
				return Statement{}, fmt.Errorf("%w: insert needs an id, username and email", ErrSyntax)
			default:
				return Statement{}, ErrUnrecognized
			}
			p.pop()
		case stepInsertID:
			id, err := p.popID()
			if err != nil {
				return Statement{}, err
			}
			p.Record.ID = id
			p.step = stepInsertUsername
		case stepInsertUsername:
			username, err := p.popString("username", tinydb.UsernameSize)
			if err != nil {
				return Statement{}, err
			}
			p.Record.Username = username
			p.step = stepInsertEmail
		case stepInsertEmail:
			email, err := p.popString("email", tinydb.EmailSize)
			if err != nil {
				return Statement{}, err
			}
			p.Record.Email = email
			p.step = stepEnd
		case stepSelectID:
			if len(p.tokens) > 0 {
				id, err := p.popID()
				if err != nil {
					return Statement{}, err
				}
				p.Record.ID = id
				p.HasID = true
			}
			p.step = stepEnd
		}
	}
}

func (p *parser) peek() string {
	if len(p.tokens) == 0 {
		return ""
	}
	return p.tokens[0]
}

func (p *parser) pop() string {
	token := p.peek()
	if len(p.tokens) > 0 {
		p.tokens = p.tokens[1:]
	}
	return token
}

func (p *parser) popID() (uint32, error) {
	token := p.pop()
	if token == "" {
		return 0, fmt.Errorf("%w: missing id", ErrSyntax)
	}

	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not a number", ErrSyntax, token)
	}
	if id < 0 {
		return 0, ErrNegativeID
	}
	if id > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w: id %d does not fit 32 bits", ErrSyntax, id)
	}

	return uint32(id), nil
}

func (p *parser) popString(name string, maxLength int) (string, error) {
	token := p.pop()
	if token == "" {
		return "", fmt.Errorf("%w: missing %s", ErrSyntax, name)
	}
	if len(token) > maxLength {
		return "", fmt.Errorf("%w: %s is %d bytes, max %d", ErrStringTooLong, name, len(token), maxLength)
	}
	return token, nil
}
