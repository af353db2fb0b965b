package variables

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/go-analyze/bulk"

	"github.com/dshills/ahkdebug/internal/config"
	"github.com/dshills/ahkdebug/internal/dbgp"
)

// Matcher is one compiled filter stage of a category.
type Matcher struct {
	exclude bool

	// Predicates; nil or empty means unconfigured.
	pattern   *regexp2.Regexp
	static    *bool
	builtin   *bool
	typ       string
	className string
}

// NewMatcher compiles spec. The name pattern is compiled once here.
func NewMatcher(spec config.MatcherSpec) (*Matcher, error) {
	m := &Matcher{
		static:    spec.Static,
		builtin:   spec.Builtin,
		typ:       spec.Type,
		className: spec.ClassName,
	}

	switch strings.ToLower(spec.Method) {
	case "", config.MethodInclude:
	case config.MethodExclude:
		m.exclude = true
	default:
		return nil, fmt.Errorf("%w: method %q", config.ErrInvalidMatcher, spec.Method)
	}

	if spec.Pattern != "" {
		var opts regexp2.RegexOptions
		if spec.IgnoreCase {
			opts |= regexp2.IgnoreCase
		}
		re, err := regexp2.Compile(spec.Pattern, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", config.ErrInvalidMatcher, spec.Pattern, err)
		}
		m.pattern = re
	}

	return m, nil
}

// Matches reports whether every configured predicate holds for p. The
// method is not applied.
func (m *Matcher) Matches(p dbgp.Property, version int) bool {
	b := p.Base()

	if m.pattern != nil {
		ok, err := m.pattern.MatchString(b.Name)
		if err != nil || !ok {
			return false
		}
	}
	if m.static != nil && (b.Facet == dbgp.FacetStatic) != *m.static {
		return false
	}
	if m.builtin != nil && IsBuiltin(p, version) != *m.builtin {
		return false
	}
	if m.typ != "" && p.TypeName() != m.typ {
		return false
	}
	if m.className != "" {
		obj, ok := p.(*dbgp.ObjectProperty)
		if !ok || obj.ClassName != m.className {
			return false
		}
	}
	return true
}

// Apply keeps (include) or drops (exclude) the variables that match. vars is
// filtered in place.
func (m *Matcher) Apply(vars []*Variable, version int) []*Variable {
	return bulk.SliceFilterInPlace(func(v *Variable) bool {
		return m.Matches(v.Property, version) != m.exclude
	}, vars)
}
