package variables

import (
	"context"
	"sync"

	"github.com/google/go-dap"

	"github.com/dshills/ahkdebug/internal/dbgp"
)

// Scope presents one context of a stack frame.
type Scope struct {
	// ID is the scope's handle.
	ID int

	Context *dbgp.Context

	m *Manager

	mu        sync.Mutex
	loaded    bool
	variables []*Variable
}

func (m *Manager) newScope(c *dbgp.Context) *Scope {
	s := &Scope{Context: c, m: m}
	s.ID = m.registry.Register(s)
	return s
}

// Name returns the context name (Local, Global or Static).
func (s *Scope) Name() string { return s.Context.Name }

// Variables returns the top-level variables of the context, fetching them on
// first use.
func (s *Scope) Variables(ctx context.Context) ([]*Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.variables, nil
	}

	props, err := s.m.session.ContextGet(ctx, s.Context)
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		s.variables = append(s.variables, s.m.newVariable(p))
	}
	s.loaded = true
	return s.variables, nil
}

// DAP converts the scope for the host.
func (s *Scope) DAP() dap.Scope {
	scope := dap.Scope{
		Name:               s.Name(),
		VariablesReference: s.ID,
	}
	if s.Name() == "Local" {
		scope.PresentationHint = "locals"
	}
	return scope
}
