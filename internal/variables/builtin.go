package variables

import (
	"github.com/dlclark/regexp2"
	"github.com/go-analyze/bulk"

	"github.com/dshills/ahkdebug/internal/dbgp"
)

// Reserved variable names: A_ variables in both versions, and the numbered
// command line parameters of version 1.
var (
	reservedV1 = regexp2.MustCompile(`^(A_\w+|\d+)$`, regexp2.IgnoreCase)
	reservedV2 = regexp2.MustCompile(`^A_\w+$`, regexp2.IgnoreCase)
)

var builtinGlobalsV1 = bulk.SliceToSet([]string{
	"Clipboard",
	"ClipboardAll",
	"ComSpec",
	"ErrorLevel",
	"ProgramFiles",
})

// Version 2 lists its built-in classes in the global context.
var builtinGlobalsV2 = bulk.SliceToSet([]string{
	"Any",
	"Array",
	"BoundFunc",
	"Buffer",
	"Class",
	"ClipboardAll",
	"Closure",
	"ComObjArray",
	"ComObject",
	"ComValue",
	"ComValueRef",
	"Enumerator",
	"Error",
	"File",
	"Float",
	"Func",
	"Gui",
	"IndexError",
	"InputHook",
	"Integer",
	"KeyError",
	"Map",
	"MemberError",
	"MemoryError",
	"Menu",
	"MenuBar",
	"MethodError",
	"Number",
	"Object",
	"OSError",
	"Primitive",
	"PropertyError",
	"RegExMatchInfo",
	"String",
	"TargetError",
	"TimeoutError",
	"TypeError",
	"UnsetError",
	"UnsetItemError",
	"ValueError",
	"VarRef",
	"ZeroDivisionError",
})

// IsBuiltin reports whether p is provided by the runtime rather than the
// script: it has the Builtin facet, a reserved name, or the exact name of a
// built-in global of the given language version.
func IsBuiltin(p dbgp.Property, version int) bool {
	b := p.Base()
	if b.Facet == dbgp.FacetBuiltin {
		return true
	}

	reserved, globals := reservedV1, builtinGlobalsV1
	if version >= 2 {
		reserved, globals = reservedV2, builtinGlobalsV2
	}

	if ok, err := reserved.MatchString(b.Name); err == nil && ok {
		return true
	}
	_, ok := globals[b.Name]
	return ok
}
