package variables

import (
	"context"
	"strings"

	"github.com/google/go-dap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/ahkdebug/internal/config"
)

// CategoryData is a normalized category definition.
type CategoryData struct {
	Label string

	// Source names the contexts to draw from; "*" selects all of them.
	Source []string

	Matchers []config.MatcherSpec
}

// selects reports whether a context named name is a source.
func (d *CategoryData) selects(name string) bool {
	for _, s := range d.Source {
		if s == "*" || strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// categoryTemplate is a CategoryData with compiled matchers.
type categoryTemplate struct {
	data     CategoryData
	matchers []*Matcher
}

// Category presents the variables of several scopes through a matcher
// pipeline.
type Category struct {
	// ID is the category's handle.
	ID int

	Label string

	// Sources are the selected scopes in declaration order.
	Sources []*Scope

	matchers []*Matcher
	m        *Manager
}

func (m *Manager) newCategory(t *categoryTemplate, scopes []*Scope) *Category {
	c := &Category{Label: t.data.Label, matchers: t.matchers, m: m}
	for _, s := range scopes {
		if t.data.selects(s.Name()) {
			c.Sources = append(c.Sources, s)
		}
	}
	c.ID = m.registry.Register(c)
	return c
}

// Variables materializes every source scope concurrently, concatenates the
// results in source order and runs the matchers over them in order.
func (c *Category) Variables(ctx context.Context) ([]*Variable, error) {
	results := make([][]*Variable, len(c.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range c.Sources {
		g.Go(func() error {
			vars, err := s.Variables(gctx)
			results[i] = vars
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []*Variable
	for _, vars := range results {
		merged = append(merged, vars...)
	}

	version := c.m.version()
	for _, matcher := range c.matchers {
		merged = matcher.Apply(merged, version)
	}
	return merged, nil
}

// DAP converts the category for the host.
func (c *Category) DAP() dap.Scope {
	return dap.Scope{
		Name:               c.Label,
		VariablesReference: c.ID,
	}
}
