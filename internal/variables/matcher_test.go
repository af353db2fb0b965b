package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ahkdebug/internal/config"
	"github.com/dshills/ahkdebug/internal/dbgp"
)

func TestIsBuiltin(t *testing.T) {
	builtinFacet := integer("Custom", "1")
	builtinFacet.Facet = dbgp.FacetBuiltin

	tests := []struct {
		name    string
		prop    dbgp.Property
		version int
		want    bool
	}{
		{"A_ variable v1", str("A_ScriptDir", "C:\\"), 1, true},
		{"A_ variable v2", str("a_index", "1"), 2, true},
		{"numbered parameter v1", str("1", "arg"), 1, true},
		{"numbered parameter v2", str("1", "arg"), 2, false},
		{"clipboard v1", str("Clipboard", ""), 1, true},
		{"clipboard v2", str("Clipboard", ""), 2, false},
		{"class name v2", object("Array", "Class"), 2, true},
		{"class name v1", object("Array", "Class"), 1, false},
		{"built-in names are exact", object("array", "Class"), 2, false},
		{"builtin facet", builtinFacet, 2, true},
		{"user variable", str("count", "1"), 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBuiltin(tt.prop, tt.version))
		})
	}
}

func TestNewMatcherInvalid(t *testing.T) {
	_, err := NewMatcher(config.MatcherSpec{Method: "keep"})
	assert.ErrorIs(t, err, config.ErrInvalidMatcher)

	_, err = NewMatcher(config.MatcherSpec{Pattern: "("})
	assert.ErrorIs(t, err, config.ErrInvalidMatcher)
}

func TestMatcherMatches(t *testing.T) {
	tests := []struct {
		name string
		spec config.MatcherSpec
		prop dbgp.Property
		want bool
	}{
		{"empty matches everything", config.MatcherSpec{}, str("x", ""), true},
		{"pattern", config.MatcherSpec{Pattern: `^_`}, str("_private", ""), true},
		{"pattern miss", config.MatcherSpec{Pattern: `^_`}, str("public", ""), false},
		{"pattern is case sensitive", config.MatcherSpec{Pattern: `^abc$`}, str("ABC", ""), false},
		{"ignore case", config.MatcherSpec{Pattern: `^abc$`, IgnoreCase: true}, str("ABC", ""), true},
		{"static", config.MatcherSpec{Static: boolPtr(true)}, static(str("s", "")), true},
		{"not static", config.MatcherSpec{Static: boolPtr(true)}, str("s", ""), false},
		{"type", config.MatcherSpec{Type: "integer"}, integer("n", "1"), true},
		{"type miss", config.MatcherSpec{Type: "integer"}, str("n", "1"), false},
		{"class name", config.MatcherSpec{ClassName: "Map"}, object("m", "Map"), true},
		{"class name on primitive", config.MatcherSpec{ClassName: "Map"}, str("m", ""), false},
		{
			"predicates are combined",
			config.MatcherSpec{Pattern: `^A_`, Type: "string"},
			integer("A_Index", "1"),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Matches(tt.prop, 2))
		})
	}
}

func TestMatcherApply(t *testing.T) {
	m := newTestManager(t, &mockSession{version: 2}, config.CategoriesSpec{})
	vars := []*Variable{
		m.newVariable(str("A_Index", "1")),
		m.newVariable(str("count", "1")),
		m.newVariable(object("Map", "Class")),
		m.newVariable(str("name", "")),
	}

	exclude, err := NewMatcher(config.MatcherSpec{Method: config.MethodExclude, Builtin: boolPtr(true)})
	require.NoError(t, err)
	include, err := NewMatcher(config.MatcherSpec{Method: "INCLUDE", Builtin: boolPtr(true)})
	require.NoError(t, err)

	assert.Equal(t, []string{"A_Index", "Map"}, names(include.Apply(append([]*Variable(nil), vars...), 2)))
	assert.Equal(t, []string{"count", "name"}, names(exclude.Apply(vars, 2)))
}
