package dbgp

import (
	"regexp"
	"strconv"
)

// PrimitiveType is the declared type of a primitive property.
type PrimitiveType string

const (
	TypeString    PrimitiveType = "string"
	TypeInteger   PrimitiveType = "integer"
	TypeFloat     PrimitiveType = "float"
	TypeUndefined PrimitiveType = "undefined"
)

// TypeObject is the declared type reported for object properties.
const TypeObject = "object"

// Facet classifies a property's storage kind.
type Facet int

const (
	FacetNormal Facet = iota
	FacetStatic
	FacetBuiltin
)

// String returns the DBGp spelling of the facet.
func (f Facet) String() string {
	switch f {
	case FacetStatic:
		return "Static"
	case FacetBuiltin:
		return "Builtin"
	default:
		return ""
	}
}

// StackFrame is one entry of a remote stack listing.
type StackFrame struct {
	// Level is the stack depth, 0 being the innermost frame.
	Level int
	// Type is "file" for script frames.
	Type string
	// FileName is the local path decoded from the frame's file URI.
	FileName string
	// Line is 1-based.
	Line int
	// Where is the function or label name.
	Where string
}

// Context is a named variable scope (Local, Global, Static) of one frame.
type Context struct {
	ID    int
	Name  string
	Frame *StackFrame
}

// Property is one node of the debuggee's state tree. It is either a
// *PrimitiveProperty or an *ObjectProperty.
type Property interface {
	// Base returns the fields common to every property.
	Base() *PropertyBase
	// TypeName returns the declared DBGp type.
	TypeName() string

	isProperty()
}

// PropertyBase holds the fields shared by primitive and object properties.
type PropertyBase struct {
	Name string
	// FullName is the access path from the context root, e.g. obj.items[2].
	FullName string
	Facet    Facet
	// IsIndexKey is set for array-style children named [N].
	IsIndexKey bool
	Index      int
	Context    *Context
}

// Base implements Property.
func (b *PropertyBase) Base() *PropertyBase { return b }

// PrimitiveProperty is a string, integer, float or undefined value.
type PrimitiveProperty struct {
	PropertyBase
	Type  PrimitiveType
	Value string
}

// TypeName implements Property.
func (p *PrimitiveProperty) TypeName() string { return string(p.Type) }

func (*PrimitiveProperty) isProperty() {}

// ObjectProperty is a reference to a remote object.
type ObjectProperty struct {
	PropertyBase
	// Address identifies the object only while the debuggee stays stopped.
	Address   int64
	ClassName string
	IsArray   bool
	MaxIndex  int
	// HasChildren reports that the remote object has members, loaded or not.
	HasChildren bool
	NumChildren int
	// LoadedChildren is false when Children has not been fetched yet.
	LoadedChildren bool
	Children       []Property
}

// TypeName implements Property.
func (p *ObjectProperty) TypeName() string { return TypeObject }

func (*ObjectProperty) isProperty() {}

var indexKeyPattern = regexp.MustCompile(`^\[(\d+)\]$`)

// ParseIndexKey reports whether name is an index key ([N]) and returns N.
func ParseIndexKey(name string) (int, bool) {
	m := indexKeyPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IndexedChildren returns the index-keyed children in fetch order.
func (p *ObjectProperty) IndexedChildren() []Property {
	var out []Property
	for _, c := range p.Children {
		if c.Base().IsIndexKey {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the children that are not index-keyed.
func (p *ObjectProperty) NamedChildren() []Property {
	var out []Property
	for _, c := range p.Children {
		if !c.Base().IsIndexKey {
			out = append(out, c)
		}
	}
	return out
}

// detectArray fills IsArray and MaxIndex. Version 2 debuggees report a
// dedicated Array class; version 1 arrays are plain objects whose members
// are all index-keyed.
func (p *ObjectProperty) detectArray(version int) {
	indexed := 0
	maxIndex := 0
	for _, c := range p.Children {
		b := c.Base()
		if b.IsIndexKey {
			indexed++
			if b.Index > maxIndex {
				maxIndex = b.Index
			}
		}
	}

	if version >= 2 {
		p.IsArray = p.ClassName == "Array"
		if !p.IsArray {
			return
		}
		p.MaxIndex = indexed
		if !p.LoadedChildren {
			// Without members the element count is only in numchildren.
			p.MaxIndex = p.NumChildren
			return
		}
		for _, c := range p.Children {
			if prim, ok := c.(*PrimitiveProperty); ok && prim.Name == "Length" {
				if n, err := strconv.Atoi(prim.Value); err == nil {
					p.MaxIndex = n
				}
			}
		}
		return
	}

	p.IsArray = len(p.Children) > 0 && indexed == len(p.Children)
	if p.IsArray {
		p.MaxIndex = maxIndex
	}
}
