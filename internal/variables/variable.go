package variables

import (
	"context"
	"sync"

	"github.com/go-analyze/bulk"
	"github.com/google/go-dap"

	"github.com/dshills/ahkdebug/internal/dbgp"
)

const (
	// pagingThreshold is the array length above which the host is told to
	// page through the elements.
	pagingThreshold = 100

	// enumMember is a synthetic member some debuggees emit for enumerators.
	enumMember = "<enum>"
)

// Variable presents one property.
type Variable struct {
	// ID is the variable's handle.
	ID int

	// Property is the snapshot the variable was created from.
	Property dbgp.Property

	m *Manager

	mu       sync.Mutex
	loaded   bool
	children []*Variable
}

func (m *Manager) newVariable(p dbgp.Property) *Variable {
	v := &Variable{Property: p, m: m}
	v.ID = m.registry.Register(v)
	return v
}

// Name returns the property name.
func (v *Variable) Name() string { return v.Property.Base().Name }

// Value returns the formatted value.
func (v *Variable) Value() string {
	return FormatProperty(v.Property, v.m.version())
}

// HasChildren reports whether the variable can be expanded.
func (v *Variable) HasChildren() bool {
	obj, ok := v.Property.(*dbgp.ObjectProperty)
	return ok && (obj.HasChildren || len(obj.Children) > 0)
}

// Children returns the member variables. Members that were not part of the
// snapshot are fetched once, one level deep; later calls reuse the result.
func (v *Variable) Children(ctx context.Context) ([]*Variable, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loaded {
		return v.children, nil
	}

	obj, ok := v.Property.(*dbgp.ObjectProperty)
	if !ok {
		v.loaded = true
		return nil, nil
	}

	members := obj.Children
	if !obj.LoadedChildren {
		p, err := v.m.session.FetchProperty(ctx, obj.Context, obj.FullName, 1)
		if err != nil {
			return nil, err
		}
		members = nil
		if fetched, ok := p.(*dbgp.ObjectProperty); ok {
			members = fetched.Children
		}
	}

	for _, p := range members {
		if p.Base().Name == enumMember {
			continue
		}
		v.children = append(v.children, v.m.newVariable(p))
	}
	v.loaded = true
	return v.children, nil
}

// DAP converts the variable for the host.
func (v *Variable) DAP() dap.Variable {
	b := v.Property.Base()
	dv := dap.Variable{
		Name:         b.Name,
		Value:        v.Value(),
		Type:         v.Property.TypeName(),
		EvaluateName: b.FullName,
	}

	if obj, ok := v.Property.(*dbgp.ObjectProperty); ok {
		dv.Type = obj.ClassName
		if v.HasChildren() {
			dv.VariablesReference = v.ID
		}
		if obj.IsArray && obj.MaxIndex > pagingThreshold {
			dv.IndexedVariables = obj.MaxIndex
			dv.NamedVariables = len(obj.NamedChildren())
		}
	}

	if b.Facet == dbgp.FacetStatic {
		dv.PresentationHint = &dap.VariablePresentationHint{Attributes: []string{"static"}}
	}
	return dv
}

// page applies a host paging request to children.
func page(children []*Variable, args dap.VariablesArguments) []*Variable {
	switch args.Filter {
	case "indexed":
		children = filterIndexKeys(children, true)
	case "named":
		children = filterIndexKeys(children, false)
	}

	if args.Start > 0 {
		if args.Start >= len(children) {
			return nil
		}
		children = children[args.Start:]
	}
	if args.Count > 0 && args.Count < len(children) {
		children = children[:args.Count]
	}
	return children
}

func filterIndexKeys(children []*Variable, indexed bool) []*Variable {
	return bulk.SliceFilter(func(c *Variable) bool {
		return c.Property.Base().IsIndexKey == indexed
	}, children)
}
