package variables

import (
	"strconv"
	"strings"

	"github.com/dshills/ahkdebug/internal/dbgp"
)

const (
	// NotInitialized is shown for undefined values.
	NotInitialized = "Not initialized"

	// Ellipsis marks elided content.
	Ellipsis = "…"

	// maxPreviewChildren is how many members a value preview lists.
	maxPreviewChildren = 100
)

// FormatProperty renders p for display. Strings are quoted with the
// debuggee's escape sequences, which differ between language versions for
// embedded quotes. Objects list at most 100 members, one level deep.
func FormatProperty(p dbgp.Property, version int) string {
	switch p := p.(type) {
	case *dbgp.PrimitiveProperty:
		return formatPrimitive(p, version)
	case *dbgp.ObjectProperty:
		return formatObject(p, version)
	}
	return ""
}

func formatPrimitive(p *dbgp.PrimitiveProperty, version int) string {
	switch p.Type {
	case dbgp.TypeUndefined:
		return NotInitialized
	case dbgp.TypeString:
		return quote(p.Value, version)
	default:
		return p.Value
	}
}

func quote(s string, version int) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString("`n")
		case '\r':
			b.WriteString("`r")
		case '\t':
			b.WriteString("`t")
		case '\a':
			b.WriteString("`a")
		case '\b':
			b.WriteString("`b")
		case '\v':
			b.WriteString("`v")
		case '\f':
			b.WriteString("`f")
		case '"':
			if version >= 2 {
				b.WriteString("`\"")
			} else {
				b.WriteString(`""`)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatObject(p *dbgp.ObjectProperty, version int) string {
	if p.IsArray {
		return formatArray(p, version)
	}

	if !p.LoadedChildren {
		return p.ClassName + " " + enclose("{", []string{Ellipsis}, "}")
	}

	var entries []string
	more := false
	for _, c := range p.Children {
		name := c.Base().Name
		if isBaseMember(name) {
			continue
		}
		if len(entries) == maxPreviewChildren {
			more = true
			break
		}
		entries = append(entries, name+": "+previewChild(c, version))
	}
	if more {
		entries = append(entries, Ellipsis)
	}
	return p.ClassName + " " + enclose("{", entries, "}")
}

func formatArray(p *dbgp.ObjectProperty, version int) string {
	head := p.ClassName + "(" + strconv.Itoa(p.MaxIndex) + ")"
	if !p.LoadedChildren {
		return head + " " + enclose("[", []string{Ellipsis}, "]")
	}

	elements := p.IndexedChildren()
	n := min(len(elements), maxPreviewChildren)
	values := make([]string, 0, n+1)
	for _, c := range elements[:n] {
		values = append(values, previewChild(c, version))
	}
	if len(elements) > n {
		values = append(values, Ellipsis)
	}
	return head + " " + enclose("[", values, "]")
}

// enclose joins entries inside padded brackets; an empty list stays unpadded.
func enclose(left string, entries []string, right string) string {
	if len(entries) == 0 {
		return left + right
	}
	return left + " " + strings.Join(entries, ", ") + " " + right
}

// previewChild shows nested objects by class name only.
func previewChild(c dbgp.Property, version int) string {
	if obj, ok := c.(*dbgp.ObjectProperty); ok {
		return obj.ClassName
	}
	return FormatProperty(c, version)
}

// isBaseMember reports the synthetic link to the object's base.
func isBaseMember(name string) bool {
	return name == "base" || name == "<base>"
}
