// Package variables turns the debuggee's property trees into the scopes,
// variables and stack frames a debug adapter host displays.
package variables

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-dap"

	"github.com/dshills/ahkdebug/internal/config"
	"github.com/dshills/ahkdebug/internal/dbgp"
	"github.com/dshills/ahkdebug/internal/logging"
)

// Session is the part of a debug session the manager reads from. Missing
// values are reported as (nil, nil).
type Session interface {
	LanguageMajorVersion() int
	StackGet(ctx context.Context) ([]*dbgp.StackFrame, error)
	ContextNames(ctx context.Context, frame *dbgp.StackFrame) ([]*dbgp.Context, error)
	ContextGet(ctx context.Context, c *dbgp.Context) ([]dbgp.Property, error)
	FetchProperty(ctx context.Context, c *dbgp.Context, fullName string, depth int) (dbgp.Property, error)
	Evaluate(ctx context.Context, text string, frame *dbgp.StackFrame) (dbgp.Property, error)
}

// Options configures a Manager.
type Options struct {
	// Categories replaces the plain context scopes when set.
	Categories config.CategoriesSpec

	// Logger defaults to a no-op logger.
	Logger *logging.Logger
}

// Manager creates and resolves the view objects of one debug session.
type Manager struct {
	session    Session
	registry   *HandleRegistry
	log        *logging.Logger
	categories []*categoryTemplate
}

// NewManager creates a manager. It fails if a category matcher does not
// compile.
func NewManager(session Session, opts Options) (*Manager, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	m := &Manager{
		session:  session,
		registry: NewHandleRegistry(),
		log:      log.WithComponent("variables"),
	}

	for _, data := range NormalizeCategories(opts.Categories) {
		t := &categoryTemplate{data: data}
		for _, spec := range data.Matchers {
			matcher, err := NewMatcher(spec)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", data.Label, err)
			}
			t.matchers = append(t.matchers, matcher)
		}
		m.categories = append(m.categories, t)
	}

	return m, nil
}

// Registry returns the handle registry.
func (m *Manager) Registry() *HandleRegistry { return m.registry }

func (m *Manager) version() int { return m.session.LanguageMajorVersion() }

// NormalizeCategories expands a category specification into category
// definitions. Recommend yields Local, Global without built-ins and
// Built-in Global. In a list, the keywords Local, Global and Static become
// single-source categories, descriptors pass through and anything else is
// skipped.
func NormalizeCategories(spec config.CategoriesSpec) []CategoryData {
	if spec.Recommend {
		return []CategoryData{
			{Label: "Local", Source: []string{"Local"}},
			{
				Label:    "Global",
				Source:   []string{"Global"},
				Matchers: []config.MatcherSpec{{Method: config.MethodExclude, Builtin: boolPtr(true)}},
			},
			{
				Label:    "Built-in Global",
				Source:   []string{"Global"},
				Matchers: []config.MatcherSpec{{Method: config.MethodInclude, Builtin: boolPtr(true)}},
			},
		}
	}

	var out []CategoryData
	for _, item := range spec.Items {
		if item.Descriptor != nil {
			out = append(out, CategoryData{
				Label:    item.Descriptor.Label,
				Source:   item.Descriptor.Source,
				Matchers: item.Descriptor.Matchers,
			})
			continue
		}
		if keyword, ok := selectorKeyword(item.Keyword); ok {
			out = append(out, CategoryData{Label: keyword, Source: []string{keyword}})
		}
	}
	return out
}

func selectorKeyword(s string) (string, bool) {
	for _, keyword := range []string{"Local", "Global", "Static"} {
		if strings.EqualFold(s, keyword) {
			return keyword, true
		}
	}
	return "", false
}

func boolPtr(b bool) *bool { return &b }

// CreateStackFrames lists the current stack, registering each frame.
func (m *Manager) CreateStackFrames(ctx context.Context) ([]dap.StackFrame, error) {
	remote, err := m.session.StackGet(ctx)
	if err != nil {
		return nil, err
	}

	frames := make([]dap.StackFrame, len(remote))
	for i, r := range remote {
		f := &StackFrame{Remote: r}
		f.ID = m.registry.Register(f)
		frames[i] = f.DAP()
	}
	return frames, nil
}

// CreateScopes lists the scopes of a frame: one per context or, when
// categories are configured, one per category.
func (m *Manager) CreateScopes(ctx context.Context, frameID int) ([]dap.Scope, error) {
	frame, err := m.GetStackFrame(frameID)
	if err != nil {
		return nil, err
	}

	contexts, err := m.session.ContextNames(ctx, frame.Remote)
	if err != nil {
		return nil, err
	}

	scopes := make([]*Scope, len(contexts))
	for i, c := range contexts {
		scopes[i] = m.newScope(c)
	}

	if len(m.categories) == 0 {
		out := make([]dap.Scope, len(scopes))
		for i, s := range scopes {
			out[i] = s.DAP()
		}
		return out, nil
	}

	out := make([]dap.Scope, len(m.categories))
	for i, t := range m.categories {
		out[i] = m.newCategory(t, scopes).DAP()
	}
	return out, nil
}

// CreateVariables lists the variables behind a scope, category or variable
// handle. An unknown handle yields no variables.
func (m *Manager) CreateVariables(ctx context.Context, args dap.VariablesArguments) ([]dap.Variable, error) {
	obj, ok := m.registry.Get(args.VariablesReference)
	if !ok {
		m.log.Debug("unknown variables reference %d", args.VariablesReference)
		return nil, nil
	}

	var vars []*Variable
	var err error
	switch o := obj.(type) {
	case *Variable:
		vars, err = o.Children(ctx)
		vars = page(vars, args)
	case *Scope:
		vars, err = o.Variables(ctx)
	case *Category:
		vars, err = o.Variables(ctx)
	default:
		return nil, fmt.Errorf("%w: handle %d is a %T", ErrHandleKind, args.VariablesReference, obj)
	}
	if err != nil {
		return nil, err
	}

	out := make([]dap.Variable, len(vars))
	for i, v := range vars {
		out[i] = v.DAP()
	}
	return out, nil
}

// Evaluate resolves text in a frame for watch and hover requests. A frameID
// of 0 means the innermost frame. The result is nil if text does not
// resolve.
func (m *Manager) Evaluate(ctx context.Context, text string, frameID int) (*Variable, error) {
	var remote *dbgp.StackFrame
	if frameID != 0 {
		frame, err := m.GetStackFrame(frameID)
		if err != nil {
			return nil, err
		}
		remote = frame.Remote
	}

	p, err := m.session.Evaluate(ctx, text, remote)
	if err != nil || p == nil {
		return nil, err
	}
	return m.newVariable(p), nil
}

// GetStackFrame resolves a frame handle. Unlike the other lookups, an
// unknown handle is an error.
func (m *Manager) GetStackFrame(id int) (*StackFrame, error) {
	f, found, err := lookup[*StackFrame](m.registry, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: handle %d", ErrUnknownFrame, id)
	}
	return f, nil
}

// GetScope resolves a scope handle; nil if unknown.
func (m *Manager) GetScope(id int) (*Scope, error) {
	s, _, err := lookup[*Scope](m.registry, id)
	return s, err
}

// GetCategory resolves a category handle; nil if unknown.
func (m *Manager) GetCategory(id int) (*Category, error) {
	c, _, err := lookup[*Category](m.registry, id)
	return c, err
}

// GetObjectVariable resolves a variable handle; nil if unknown.
func (m *Manager) GetObjectVariable(id int) (*Variable, error) {
	v, _, err := lookup[*Variable](m.registry, id)
	return v, err
}
