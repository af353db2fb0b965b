package variables

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/ahkdebug/internal/dbgp"
)

func TestFormatPrimitive(t *testing.T) {
	tests := []struct {
		name    string
		prop    dbgp.Property
		version int
		want    string
	}{
		{"string v2", str("s", "abc"), 2, `"abc"`},
		{"integer", integer("n", "42"), 2, "42"},
		{"undefined", undefined("u"), 2, NotInitialized},
		{"control escapes", str("s", "a\nb\tc\r"), 2, "\"a`nb`tc`r\""},
		{"quote v2", str("s", `say "hi"`), 2, "\"say `\"hi`\"\""},
		{"quote v1", str("s", `say "hi"`), 1, `"say ""hi"""`},
		{"bell and form feed", str("s", "\a\b\v\f"), 1, "\"`a`b`v`f\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatProperty(tt.prop, tt.version))
		})
	}
}

func TestFormatObject(t *testing.T) {
	obj := object("o", "Point",
		integer("x", "1"),
		object("base", "Shape", integer("y", "0")),
		str("label", "p"),
		object("nested", "Map", integer("k", "1")),
	)

	assert.Equal(t, `Point { x: 1, label: "p", nested: Map }`, FormatProperty(obj, 2))
}

func TestFormatObjectHidesAngleBase(t *testing.T) {
	obj := object("o", "Object", object("<base>", "Object"), integer("a", "1"))
	assert.Equal(t, "Object { a: 1 }", FormatProperty(obj, 1))
}

func TestFormatObjectNotLoaded(t *testing.T) {
	obj := object("o", "Point")
	obj.HasChildren = true
	obj.LoadedChildren = false
	assert.Equal(t, "Point { … }", FormatProperty(obj, 2))

	arr := array("a", "Array", 0)
	arr.MaxIndex = 7
	arr.LoadedChildren = false
	assert.Equal(t, "Array(7) [ … ]", FormatProperty(arr, 2))
}

func TestFormatArray(t *testing.T) {
	assert.Equal(t, "Array(3) [ 1, 2, 3 ]", FormatProperty(array("a", "Array", 3), 2))
}

func TestFormatArrayCapped(t *testing.T) {
	got := FormatProperty(array("a", "Array", 150), 2)

	assert.True(t, strings.HasPrefix(got, "Array(150) [ 1, 2, "))
	assert.True(t, strings.HasSuffix(got, ", 100, … ]"), got)
	assert.NotContains(t, got, "101")
}

func TestFormatObjectCapped(t *testing.T) {
	children := make([]dbgp.Property, 0, 120)
	for i := range 120 {
		children = append(children, integer("m"+string(rune('a'+i%26))+strings.Repeat("x", i/26), "0"))
	}
	got := FormatProperty(object("o", "Big", children...), 2)

	assert.Equal(t, 100, strings.Count(got, ": 0"))
	assert.True(t, strings.HasSuffix(got, ", … }"))
}
