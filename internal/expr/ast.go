// Package expr parses breakpoint condition text into an expression tree.
//
// The grammar is deliberately small: a single operand (evaluated for
// truthiness) or one binary comparison between two operands.
//
//	condition  = operand [ operator operand ]
//	operand    = string | number | boolean | path
//	operator   = "==" | "=" | "!==" | "!=" | "~=" | "<=" | "<" | ">=" | ">"
//	           | "is" | "is not"
//	path       = ident { "." ident | "[" ( digits | string | ident ) "]" }
//
// The right operand of "~=" is a regular expression literal of the form
// <flags>)<pattern> and extends to the end of the text. The right operand of
// "is" may be a type name such as "integer:like" or "object:Map".
package expr

import (
	"fmt"
	"strings"
)

// Expression is a node of a parsed condition. It is one of PropertyName,
// Primitive or BinaryExpression.
type Expression interface {
	fmt.Stringer
	isExpression()
}

// PropertyName references a variable of the debuggee by access path.
type PropertyName struct {
	// Path is the access path as written, e.g. obj.items[1].
	Path string
}

func (PropertyName) isExpression() {}

func (p PropertyName) String() string {
	return "PropertyName(" + p.Path + ")"
}

// PrimitiveKind identifies the literal kind of a Primitive.
type PrimitiveKind uint8

const (
	// KindString is a quoted string or raw literal text.
	KindString PrimitiveKind = iota

	// KindNumber is a decimal or hexadecimal number.
	KindNumber

	// KindBoolean is true or false.
	KindBoolean
)

// String returns a string representation of the kind.
func (k PrimitiveKind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	default:
		return "unknown"
	}
}

// Primitive is a literal value.
type Primitive struct {
	Kind PrimitiveKind

	// Text is the literal value. Strings are unescaped; numbers and
	// booleans keep the text as written.
	Text string

	// Hex is set for numbers written as 0x....
	Hex bool
}

func (Primitive) isExpression() {}

func (p Primitive) String() string {
	return fmt.Sprintf("%s(%q)", p.Kind, p.Text)
}

// Operator is the operator of a BinaryExpression. It is either a
// ComparisonOperator or an IsOperator.
type Operator interface {
	fmt.Stringer
	isOperator()
}

// ComparisonOperator is one of = == != !== ~= < <= > >=.
type ComparisonOperator struct {
	Symbol string
}

func (ComparisonOperator) isOperator() {}

func (o ComparisonOperator) String() string { return o.Symbol }

// IsOperator is a type test, "is" or "is not", as written.
type IsOperator struct {
	Token string
}

func (IsOperator) isOperator() {}

func (o IsOperator) String() string { return o.Token }

// Negated reports whether the token is a negated form.
func (o IsOperator) Negated() bool {
	return strings.Contains(strings.ToLower(o.Token), "not")
}

// BinaryExpression compares two operands.
type BinaryExpression struct {
	Left     Expression
	Operator Operator
	Right    Expression
}

func (BinaryExpression) isExpression() {}

func (b BinaryExpression) String() string {
	return fmt.Sprintf("Binary(%s %s %s)", b.Left, b.Operator, b.Right)
}
