package variables

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ahkdebug/internal/config"
	"github.com/dshills/ahkdebug/internal/dbgp"
)

// mockSession is a testify mock of Session.
type mockSession struct {
	mock.Mock
	version int
}

func (s *mockSession) LanguageMajorVersion() int { return s.version }

func (s *mockSession) StackGet(ctx context.Context) ([]*dbgp.StackFrame, error) {
	args := s.Called(ctx)
	frames, _ := args.Get(0).([]*dbgp.StackFrame)
	return frames, args.Error(1)
}

func (s *mockSession) ContextNames(ctx context.Context, frame *dbgp.StackFrame) ([]*dbgp.Context, error) {
	args := s.Called(ctx, frame)
	contexts, _ := args.Get(0).([]*dbgp.Context)
	return contexts, args.Error(1)
}

func (s *mockSession) ContextGet(ctx context.Context, c *dbgp.Context) ([]dbgp.Property, error) {
	args := s.Called(ctx, c)
	props, _ := args.Get(0).([]dbgp.Property)
	return props, args.Error(1)
}

func (s *mockSession) FetchProperty(ctx context.Context, c *dbgp.Context, fullName string, depth int) (dbgp.Property, error) {
	args := s.Called(ctx, c, fullName, depth)
	p, _ := args.Get(0).(dbgp.Property)
	return p, args.Error(1)
}

func (s *mockSession) Evaluate(ctx context.Context, text string, frame *dbgp.StackFrame) (dbgp.Property, error) {
	args := s.Called(ctx, text, frame)
	p, _ := args.Get(0).(dbgp.Property)
	return p, args.Error(1)
}

func newTestManager(t *testing.T, s *mockSession, categories config.CategoriesSpec) *Manager {
	t.Helper()
	m, err := NewManager(s, Options{Categories: categories})
	require.NoError(t, err)
	return m
}

func str(name, value string) *dbgp.PrimitiveProperty {
	return &dbgp.PrimitiveProperty{
		PropertyBase: dbgp.PropertyBase{Name: name, FullName: name},
		Type:         dbgp.TypeString,
		Value:        value,
	}
}

func integer(name, value string) *dbgp.PrimitiveProperty {
	return &dbgp.PrimitiveProperty{
		PropertyBase: dbgp.PropertyBase{Name: name, FullName: name},
		Type:         dbgp.TypeInteger,
		Value:        value,
	}
}

func undefined(name string) *dbgp.PrimitiveProperty {
	return &dbgp.PrimitiveProperty{
		PropertyBase: dbgp.PropertyBase{Name: name, FullName: name},
		Type:         dbgp.TypeUndefined,
	}
}

func static(p *dbgp.PrimitiveProperty) *dbgp.PrimitiveProperty {
	p.Facet = dbgp.FacetStatic
	return p
}

func object(name, class string, children ...dbgp.Property) *dbgp.ObjectProperty {
	return &dbgp.ObjectProperty{
		PropertyBase:   dbgp.PropertyBase{Name: name, FullName: name},
		ClassName:      class,
		HasChildren:    len(children) > 0,
		NumChildren:    len(children),
		LoadedChildren: true,
		Children:       children,
	}
}

// array builds a loaded array of n integer elements [1]..[n].
func array(name, class string, n int) *dbgp.ObjectProperty {
	children := make([]dbgp.Property, n)
	for i := range children {
		key := fmt.Sprintf("[%d]", i+1)
		children[i] = &dbgp.PrimitiveProperty{
			PropertyBase: dbgp.PropertyBase{
				Name:       key,
				FullName:   name + key,
				IsIndexKey: true,
				Index:      i + 1,
			},
			Type:  dbgp.TypeInteger,
			Value: fmt.Sprint(i + 1),
		}
	}
	obj := object(name, class, children...)
	obj.IsArray = true
	obj.MaxIndex = n
	return obj
}

func props(ps ...dbgp.Property) []dbgp.Property { return ps }

func names(vars []*Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name()
	}
	return out
}
