// Package condition evaluates breakpoint conditions against a stopped
// debuggee, reproducing the debuggee's own comparison rules.
package condition

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/ahkdebug/internal/dbgp"
	"github.com/dshills/ahkdebug/internal/expr"
	"github.com/dshills/ahkdebug/internal/logging"
)

const (
	// DefaultBaseChainLimit bounds the base-chain walk of "is".
	DefaultBaseChainLimit = 100

	// DefaultRegexCacheSize is the number of compiled patterns kept.
	DefaultRegexCacheSize = 256
)

// Session is the part of a debug session the evaluator reads from.
type Session interface {
	// FetchLatestPropertyWithoutChildren looks fullName up in the innermost
	// frame. A missing property is (nil, nil).
	FetchLatestPropertyWithoutChildren(ctx context.Context, fullName string) (dbgp.Property, error)
}

// Options configures an Evaluator.
type Options struct {
	// Logger receives evaluation diagnostics at debug level.
	Logger *logging.Logger

	// BaseChainLimit bounds how many base levels "is" inspects.
	BaseChainLimit int

	// RegexCacheSize is the number of compiled patterns kept.
	RegexCacheSize int64
}

// Evaluator evaluates condition text. It is safe for concurrent use.
type Evaluator struct {
	session        Session
	log            *logging.Logger
	baseChainLimit int
	regex          *regexCache
}

// NewEvaluator creates an evaluator reading from session.
func NewEvaluator(session Session, opts Options) (*Evaluator, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	limit := opts.BaseChainLimit
	if limit <= 0 {
		limit = DefaultBaseChainLimit
	}

	cache, err := newRegexCache(opts.RegexCacheSize)
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		session:        session,
		log:            log.WithComponent("condition"),
		baseChainLimit: limit,
		regex:          cache,
	}, nil
}

// Close releases the pattern cache.
func (e *Evaluator) Close() {
	e.regex.close()
}

// Eval parses and evaluates text. Unparsable text, missing variables and
// session failures all evaluate to false.
func (e *Evaluator) Eval(ctx context.Context, text string) bool {
	expression, err := expr.Parse(text)
	if err != nil {
		e.log.Debug("%v", err)
		return false
	}

	result, err := e.evaluate(ctx, expression)
	if err != nil {
		e.log.Debug("condition %q: %v", text, err)
		return false
	}
	return result
}

func (e *Evaluator) evaluate(ctx context.Context, expression expr.Expression) (bool, error) {
	switch x := expression.(type) {
	case expr.BinaryExpression:
		return e.evalBinary(ctx, x)
	default:
		op, err := e.resolve(ctx, x)
		if err != nil || !op.resolved {
			return false, err
		}
		return truthy(op.value), nil
	}
}

// operand is one side of a comparison after resolution.
type operand struct {
	// prop is the fetched property, nil for literals.
	prop     dbgp.Property
	value    ResolvedValue
	resolved bool
}

func (e *Evaluator) resolve(ctx context.Context, x expr.Expression) (operand, error) {
	switch x := x.(type) {
	case expr.Primitive:
		return operand{value: Text(literalText(x)), resolved: true}, nil
	case expr.PropertyName:
		p, err := e.session.FetchLatestPropertyWithoutChildren(ctx, x.Path)
		if err != nil {
			return operand{}, err
		}
		if p == nil {
			e.log.Debug("%s is not defined", x.Path)
			return operand{}, nil
		}
		return operand{prop: p, value: valueOf(p), resolved: true}, nil
	}
	return operand{}, nil
}

// literalText is the textual form of a literal: hex numbers in decimal and
// booleans as the debuggee's 1 and 0.
func literalText(p expr.Primitive) string {
	switch p.Kind {
	case expr.KindBoolean:
		if strings.EqualFold(p.Text, "true") {
			return "1"
		}
		return "0"
	case expr.KindNumber:
		if p.Hex {
			if n, err := strconv.ParseInt(p.Text, 0, 64); err == nil {
				return strconv.FormatInt(n, 10)
			}
		}
	}
	return p.Text
}

func valueOf(p dbgp.Property) ResolvedValue {
	switch p := p.(type) {
	case *dbgp.ObjectProperty:
		return Address(p.Address)
	case *dbgp.PrimitiveProperty:
		return Text(p.Value)
	}
	return Text("")
}

func (e *Evaluator) evalBinary(ctx context.Context, b expr.BinaryExpression) (bool, error) {
	var left, right operand

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		left, err = e.resolve(gctx, b.Left)
		return err
	})
	g.Go(func() error {
		var err error
		right, err = e.resolve(gctx, b.Right)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	switch op := b.Operator.(type) {
	case expr.IsOperator:
		result, err := e.isType(ctx, left, b.Right, right)
		if err != nil {
			return false, err
		}
		if op.Negated() {
			result = !result
		}
		return result, nil
	case expr.ComparisonOperator:
		if !left.resolved || !right.resolved {
			return false, nil
		}
		return e.compare(op.Symbol, left.value, right.value), nil
	}
	return false, nil
}

func (e *Evaluator) compare(symbol string, a, b ResolvedValue) bool {
	switch symbol {
	case "=":
		return looseEquals(a, b)
	case "==":
		return strictEquals(a, b)
	case "!=":
		return !looseEquals(a, b)
	case "!==":
		return !strictEquals(a, b)
	case "~=":
		return e.regexMatch(a, b)
	case "<", "<=", ">", ">=":
		return compareIntegers(a, b, symbol)
	}
	return false
}

// regexMatch implements "~=": an unanchored search of subject for the
// pattern literal. Addresses never match.
func (e *Evaluator) regexMatch(subject, pattern ResolvedValue) bool {
	if subject.IsAddress() || pattern.IsAddress() {
		return false
	}
	re, err := e.regex.compile(pattern.String())
	if err != nil {
		e.log.Debug("invalid pattern %q: %v", pattern.String(), err)
		return false
	}
	ok, err := re.MatchString(subject.String())
	if err != nil {
		e.log.Debug("pattern %q: %v", pattern.String(), err)
		return false
	}
	return ok
}
