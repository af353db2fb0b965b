package condition

import (
	"context"
	"regexp"
	"strings"

	"github.com/dshills/ahkdebug/internal/dbgp"
	"github.com/dshills/ahkdebug/internal/expr"
)

var (
	integerLike = regexp.MustCompile(`^\s*[+-]?(\d+|0[xX][0-9a-fA-F]+)\s*$`)
	floatLike   = regexp.MustCompile(`^\s*[+-]?(\d+\.\d*|\.\d+)\s*$`)
)

// isType implements "is" before negation. An object on both sides tests
// class inheritance; otherwise the right side names a type.
func (e *Evaluator) isType(ctx context.Context, left operand, rightExpr expr.Expression, right operand) (bool, error) {
	leftObj, leftIsObj := left.prop.(*dbgp.ObjectProperty)
	if rightObj, ok := right.prop.(*dbgp.ObjectProperty); ok && leftIsObj {
		return e.inherits(ctx, leftObj, rightObj)
	}

	name := normalizeTypeName(typeNameText(rightExpr, right))
	if left.prop == nil {
		return name == "undefined", nil
	}
	return matchesType(left.prop, name), nil
}

// typeNameText is the type name as written on the right side of "is".
func typeNameText(x expr.Expression, right operand) string {
	switch x := x.(type) {
	case expr.PropertyName:
		return x.Path
	case expr.Primitive:
		return x.Text
	}
	return right.value.String()
}

func normalizeTypeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "int" {
		return "integer"
	}
	if rest, ok := strings.CutPrefix(name, "int:"); ok {
		return "integer:" + rest
	}
	return name
}

// matchesType tests p against a lower-case type name.
func matchesType(p dbgp.Property, name string) bool {
	if p.TypeName() == name {
		return true
	}

	prim, isPrim := p.(*dbgp.PrimitiveProperty)
	switch name {
	case "primitive":
		return isPrim && (prim.Type == dbgp.TypeString || prim.Type == dbgp.TypeInteger || prim.Type == dbgp.TypeFloat)
	case "number":
		return isPrim && (prim.Type == dbgp.TypeInteger || prim.Type == dbgp.TypeFloat)
	case "integer:like":
		return isPrim && integerLike.MatchString(prim.Value)
	case "float:like":
		return isPrim && floatLike.MatchString(prim.Value)
	case "number:like":
		return isPrim && (integerLike.MatchString(prim.Value) || floatLike.MatchString(prim.Value))
	}

	if class, ok := strings.CutPrefix(name, "object:"); ok {
		obj, isObj := p.(*dbgp.ObjectProperty)
		return isObj && strings.EqualFold(obj.ClassName, class)
	}
	return false
}

// inherits walks left's base chain, reading each level's __class, and
// reports whether any level names class. The walk stops when a level has no
// base or after the configured limit.
func (e *Evaluator) inherits(ctx context.Context, left, class *dbgp.ObjectProperty) (bool, error) {
	want := class.FullName
	path := left.FullName

	for i := 0; i < e.baseChainLimit; i++ {
		path += ".base"
		base, err := e.session.FetchLatestPropertyWithoutChildren(ctx, path)
		if err != nil {
			return false, err
		}
		if _, ok := base.(*dbgp.ObjectProperty); !ok {
			return false, nil
		}

		name, err := e.session.FetchLatestPropertyWithoutChildren(ctx, path+".__class")
		if err != nil {
			return false, err
		}
		if prim, ok := name.(*dbgp.PrimitiveProperty); ok && strings.EqualFold(prim.Value, want) {
			return true, nil
		}
	}

	e.log.Debug("base chain of %s exceeds %d levels", left.FullName, e.baseChainLimit)
	return false, nil
}
