package config

import (
	"fmt"
	"strings"
)

// RecommendToken selects the built-in category set.
const RecommendToken = "Recommend"

// Matcher methods.
const (
	MethodInclude = "include"
	MethodExclude = "exclude"
)

// CategoriesSpec is the decoded variable category specification: either the
// Recommend token or an ordered list of items.
type CategoriesSpec struct {
	Recommend bool
	Items     []CategoryItem
}

// IsZero reports whether no categories are configured.
func (s CategoriesSpec) IsZero() bool {
	return !s.Recommend && len(s.Items) == 0
}

// CategoryItem is one list element. Exactly one of Keyword or Descriptor is set.
// Keywords are kept verbatim; interpreting them is the consumer's job.
type CategoryItem struct {
	Keyword    string
	Descriptor *CategoryDescriptor
}

// CategoryDescriptor is a structured category.
type CategoryDescriptor struct {
	Label string
	// Source holds the selector names; a single "*" selects every scope.
	Source   []string
	Matchers []MatcherSpec
}

// MatcherSpec is a declarative variable predicate. Nil pointer fields and
// empty strings are unconfigured predicates.
type MatcherSpec struct {
	Method     string
	IgnoreCase bool
	Pattern    string
	Static     *bool
	Builtin    *bool
	Type       string
	ClassName  string
}

// DecodeCategories converts a loosely-typed value (as produced by a TOML or
// JSON decoder) into a CategoriesSpec. List elements that are neither strings
// nor tables are skipped.
func DecodeCategories(raw any) (CategoriesSpec, error) {
	switch v := raw.(type) {
	case nil:
		return CategoriesSpec{}, nil
	case string:
		if v == RecommendToken {
			return CategoriesSpec{Recommend: true}, nil
		}
		return CategoriesSpec{}, fmt.Errorf("%q: %w", v, ErrInvalidCategories)
	case []any:
		var spec CategoriesSpec
		for i, elem := range v {
			switch e := elem.(type) {
			case string:
				spec.Items = append(spec.Items, CategoryItem{Keyword: e})
			case map[string]any:
				desc, err := decodeDescriptor(e)
				if err != nil {
					return CategoriesSpec{}, fmt.Errorf("category %d: %w", i, err)
				}
				spec.Items = append(spec.Items, CategoryItem{Descriptor: desc})
			}
		}
		return spec, nil
	default:
		return CategoriesSpec{}, fmt.Errorf("unexpected %T: %w", raw, ErrInvalidCategories)
	}
}

func decodeDescriptor(m map[string]any) (*CategoryDescriptor, error) {
	desc := &CategoryDescriptor{}
	desc.Label, _ = m["label"].(string)
	if desc.Label == "" {
		return nil, fmt.Errorf("missing label: %w", ErrInvalidCategories)
	}

	switch src := m["source"].(type) {
	case string:
		desc.Source = []string{src}
	case []any:
		for _, s := range src {
			if name, ok := s.(string); ok {
				desc.Source = append(desc.Source, name)
			}
		}
	case nil:
		return nil, fmt.Errorf("category %q: missing source: %w", desc.Label, ErrInvalidCategories)
	default:
		return nil, fmt.Errorf("category %q: source must be string or list: %w", desc.Label, ErrInvalidCategories)
	}

	if matchers, ok := m["matchers"].([]any); ok {
		for i, raw := range matchers {
			mm, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("category %q matcher %d: %w", desc.Label, i, ErrInvalidMatcher)
			}
			spec, err := decodeMatcher(mm)
			if err != nil {
				return nil, fmt.Errorf("category %q matcher %d: %w", desc.Label, i, err)
			}
			desc.Matchers = append(desc.Matchers, spec)
		}
	}
	return desc, nil
}

func decodeMatcher(m map[string]any) (MatcherSpec, error) {
	spec := MatcherSpec{Method: MethodInclude}

	if method, ok := m["method"].(string); ok {
		switch strings.ToLower(method) {
		case MethodInclude:
			spec.Method = MethodInclude
		case MethodExclude:
			spec.Method = MethodExclude
		default:
			return MatcherSpec{}, fmt.Errorf("method %q: %w", method, ErrInvalidMatcher)
		}
	}

	spec.IgnoreCase, _ = m["ignorecase"].(bool)
	if p, ok := m["pattern"].(string); ok {
		spec.Pattern = p
	} else if p, ok := m["namePattern"].(string); ok {
		spec.Pattern = p
	}
	if b, ok := m["static"].(bool); ok {
		spec.Static = &b
	}
	if b, ok := m["builtin"].(bool); ok {
		spec.Builtin = &b
	}
	spec.Type, _ = m["type"].(string)
	spec.ClassName, _ = m["className"].(string)
	return spec, nil
}
