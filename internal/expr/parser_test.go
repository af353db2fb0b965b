package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Operands(t *testing.T) {
	tests := []struct {
		input    string
		expected Expression
	}{
		{"a", PropertyName{Path: "a"}},
		{"  obj.items[1]  ", PropertyName{Path: "obj.items[1]"}},
		{`obj["key name"].x`, PropertyName{Path: `obj["key name"].x`}},
		{"obj[k].y", PropertyName{Path: "obj[k].y"}},
		{"A_Index", PropertyName{Path: "A_Index"}},
		{"#var@$", PropertyName{Path: "#var@$"}},
		{"über", PropertyName{Path: "über"}},
		{"1abc", PropertyName{Path: "1abc"}},
		{"42", Primitive{Kind: KindNumber, Text: "42"}},
		{"-3.5", Primitive{Kind: KindNumber, Text: "-3.5"}},
		{"01", Primitive{Kind: KindNumber, Text: "01"}},
		{"0x1F", Primitive{Kind: KindNumber, Text: "0x1F", Hex: true}},
		{"true", Primitive{Kind: KindBoolean, Text: "true"}},
		{"FALSE", Primitive{Kind: KindBoolean, Text: "FALSE"}},
		{`"hi"`, Primitive{Kind: KindString, Text: "hi"}},
		{`'hi'`, Primitive{Kind: KindString, Text: "hi"}},
		{`"say ""x"""`, Primitive{Kind: KindString, Text: `say "x"`}},
		{"\"a`\"b\"", Primitive{Kind: KindString, Text: `a"b`}},
		{"\"line`nnext`t!\"", Primitive{Kind: KindString, Text: "line\nnext\t!"}},
		{`""`, Primitive{Kind: KindString, Text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_Comparisons(t *testing.T) {
	symbols := []string{"=", "==", "!=", "!==", "<", "<=", ">", ">="}
	for _, sym := range symbols {
		t.Run(sym, func(t *testing.T) {
			for _, input := range []string{"a" + sym + "1", "a " + sym + " 1"} {
				got, err := Parse(input)
				require.NoError(t, err, input)
				assert.Equal(t, BinaryExpression{
					Left:     PropertyName{Path: "a"},
					Operator: ComparisonOperator{Symbol: sym},
					Right:    Primitive{Kind: KindNumber, Text: "1"},
				}, got, input)
			}
		})
	}
}

func TestParse_PropertyOnBothSides(t *testing.T) {
	got, err := Parse("a.b == c[2]")
	require.NoError(t, err)
	assert.Equal(t, BinaryExpression{
		Left:     PropertyName{Path: "a.b"},
		Operator: ComparisonOperator{Symbol: "=="},
		Right:    PropertyName{Path: "c[2]"},
	}, got)
}

func TestParse_RegexOperator(t *testing.T) {
	tests := []struct {
		input   string
		pattern string
	}{
		{"a ~= i)^foo", "i)^foo"},
		{"a ~= ^foo", "^foo"},
		{"a ~= ^foo bar$  ", "^foo bar$"},
		{`a ~= "im)x y"`, "im)x y"},
		{`a ~= "a" b`, `"a" b`},
		{`a~=\d+`, `\d+`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			bin, ok := got.(BinaryExpression)
			require.True(t, ok)
			assert.Equal(t, ComparisonOperator{Symbol: "~="}, bin.Operator)
			assert.Equal(t, Primitive{Kind: KindString, Text: tt.pattern}, bin.Right)
		})
	}
}

func TestParse_IsOperator(t *testing.T) {
	tests := []struct {
		input   string
		token   string
		negated bool
		right   Expression
	}{
		{"obj is Parent", "is", false, PropertyName{Path: "Parent"}},
		{"obj IS NOT Parent", "IS NOT", true, PropertyName{Path: "Parent"}},
		{"x is   not  integer", "is   not", true, PropertyName{Path: "integer"}},
		{"x is number:like", "is", false, Primitive{Kind: KindString, Text: "number:like"}},
		{"x is object:Map", "is", false, Primitive{Kind: KindString, Text: "object:Map"}},
		{`x is "string"`, "is", false, Primitive{Kind: KindString, Text: "string"}},
		{"x is nothing", "is", false, PropertyName{Path: "nothing"}},
		{"x is undefined", "is", false, PropertyName{Path: "undefined"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			bin, ok := got.(BinaryExpression)
			require.True(t, ok)
			op, ok := bin.Operator.(IsOperator)
			require.True(t, ok)
			assert.Equal(t, tt.token, op.Token)
			assert.Equal(t, tt.negated, op.Negated())
			assert.Equal(t, tt.right, bin.Right)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"a ==",
		"a == 1 2",
		`"unterminated`,
		"a.",
		"a[1",
		"a ? b",
		"a is",
		"a ~=   ",
		"a isnot b",
		"-x",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))

			var serr *SyntaxError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, input, serr.Text)
		})
	}
}

func TestExpressionString(t *testing.T) {
	got, err := Parse(`a.b != "x"`)
	require.NoError(t, err)
	assert.Equal(t, `Binary(PropertyName(a.b) != String("x"))`, got.String())
}
