package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ahkdebug/internal/condition"
	"github.com/dshills/ahkdebug/internal/config"
	"github.com/dshills/ahkdebug/internal/dbgp"
	"github.com/dshills/ahkdebug/internal/expr"
	"github.com/dshills/ahkdebug/internal/logging"
	"github.com/dshills/ahkdebug/internal/variables"
)

func init() {
	color.NoColor = true
}

// fakeDebuggee is a script stopped in Tick with a local counter that
// increments on every run.
type fakeDebuggee struct {
	// breaks is how many runs end in a break before the script exits.
	breaks int

	runs        int
	steps       int
	breakpoints []string

	frame  *dbgp.StackFrame
	local  *dbgp.Context
	global *dbgp.Context
}

func newFakeDebuggee(breaks int) *fakeDebuggee {
	frame := &dbgp.StackFrame{Type: "file", FileName: "/scripts/main.ahk", Line: 7, Where: "Tick"}
	return &fakeDebuggee{
		breaks: breaks,
		frame:  frame,
		local:  &dbgp.Context{ID: 0, Name: "Local", Frame: frame},
		global: &dbgp.Context{ID: 1, Name: "Global", Frame: frame},
	}
}

func (d *fakeDebuggee) counter() *dbgp.PrimitiveProperty {
	return &dbgp.PrimitiveProperty{
		PropertyBase: dbgp.PropertyBase{Name: "hits", FullName: "hits", Context: d.local},
		Type:         dbgp.TypeInteger,
		Value:        strconv.Itoa(d.runs),
	}
}

func (d *fakeDebuggee) point() *dbgp.ObjectProperty {
	x := &dbgp.PrimitiveProperty{
		PropertyBase: dbgp.PropertyBase{Name: "x", FullName: "pt.x", Context: d.global},
		Type:         dbgp.TypeInteger,
		Value:        "3",
	}
	return &dbgp.ObjectProperty{
		PropertyBase:   dbgp.PropertyBase{Name: "pt", FullName: "pt", Context: d.global},
		ClassName:      "Point",
		HasChildren:    true,
		NumChildren:    1,
		LoadedChildren: true,
		Children:       []dbgp.Property{x},
	}
}

func (d *fakeDebuggee) LanguageMajorVersion() int { return 2 }

func (d *fakeDebuggee) StackGet(context.Context) ([]*dbgp.StackFrame, error) {
	return []*dbgp.StackFrame{d.frame}, nil
}

func (d *fakeDebuggee) ContextNames(context.Context, *dbgp.StackFrame) ([]*dbgp.Context, error) {
	return []*dbgp.Context{d.local, d.global}, nil
}

func (d *fakeDebuggee) ContextGet(_ context.Context, c *dbgp.Context) ([]dbgp.Property, error) {
	if c == d.local {
		return []dbgp.Property{d.counter()}, nil
	}
	return []dbgp.Property{d.point()}, nil
}

func (d *fakeDebuggee) FetchProperty(_ context.Context, _ *dbgp.Context, fullName string, _ int) (dbgp.Property, error) {
	if fullName == "pt" {
		return d.point(), nil
	}
	return nil, nil
}

func (d *fakeDebuggee) Evaluate(ctx context.Context, text string, _ *dbgp.StackFrame) (dbgp.Property, error) {
	return d.FetchLatestPropertyWithoutChildren(ctx, text)
}

func (d *fakeDebuggee) FetchLatestPropertyWithoutChildren(_ context.Context, fullName string) (dbgp.Property, error) {
	if fullName == "hits" {
		return d.counter(), nil
	}
	return nil, nil
}

func (d *fakeDebuggee) SetLineBreakpoint(_ context.Context, file string, line int) (string, error) {
	d.breakpoints = append(d.breakpoints, file+":"+strconv.Itoa(line))
	return strconv.Itoa(len(d.breakpoints)), nil
}

func (d *fakeDebuggee) Run(context.Context) (dbgp.Status, error) {
	d.runs++
	if d.runs > d.breaks {
		return dbgp.StatusStopped, nil
	}
	return dbgp.StatusBreak, nil
}

func (d *fakeDebuggee) StepInto(context.Context) (dbgp.Status, error) {
	d.steps++
	return dbgp.StatusBreak, nil
}

func (d *fakeDebuggee) Detach(context.Context) (dbgp.Status, error) {
	return dbgp.StatusStopped, nil
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseCommand(t *testing.T) {
	out, _, err := execute(t, "parse", "count", ">", "10")
	require.NoError(t, err)
	assert.Equal(t, "Binary(PropertyName(count) > Number(\"10\"))\n", out)

	out, _, err = execute(t, "parse", `name ~= "i)^tmp"`)
	require.NoError(t, err)
	assert.Equal(t, "Binary(PropertyName(name) ~= String(\"i)^tmp\"))\n", out)
}

func TestParseCommandSyntaxError(t *testing.T) {
	_, errOut, err := execute(t, "parse", "a ==")
	assert.ErrorIs(t, err, expr.ErrSyntax)
	assert.Contains(t, errOut, "Error:")
}

func TestParseBreakpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    breakpoint
		wantErr bool
	}{
		{in: "main.ahk:12", want: breakpoint{file: "main.ahk", line: 12}},
		{in: `C:\scripts\main.ahk:3`, want: breakpoint{file: `C:\scripts\main.ahk`, line: 3}},
		{in: "main.ahk", wantErr: true},
		{in: "main.ahk:", wantErr: true},
		{in: ":4", wantErr: true},
		{in: "main.ahk:0", wantErr: true},
		{in: "main.ahk:x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBreakpoint(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestEvaluator(t *testing.T, d debuggee) *condition.Evaluator {
	t.Helper()
	ev, err := newEvaluator(d, config.Default(), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(ev.Close)
	return ev
}

func TestBreakAtFirstStatement(t *testing.T) {
	d := newFakeDebuggee(5)
	stopped, err := breakAt(t.Context(), d, newTestEvaluator(t, d), breakOptions{}, logging.Nop())
	require.NoError(t, err)
	assert.True(t, stopped)
	assert.Equal(t, 1, d.steps)
	assert.Zero(t, d.runs)
}

func TestBreakAtCondition(t *testing.T) {
	d := newFakeDebuggee(5)
	stopped, err := breakAt(t.Context(), d, newTestEvaluator(t, d), breakOptions{
		at:        "main.ahk:7",
		condition: "hits >= 3",
	}, logging.Nop())
	require.NoError(t, err)
	assert.True(t, stopped)
	assert.Equal(t, 3, d.runs)
	assert.Equal(t, []string{"main.ahk:7"}, d.breakpoints)
}

func TestBreakAtScriptEnds(t *testing.T) {
	d := newFakeDebuggee(2)
	stopped, err := breakAt(t.Context(), d, newTestEvaluator(t, d), breakOptions{
		at:        "main.ahk:7",
		condition: "hits = 10",
	}, logging.Nop())
	require.NoError(t, err)
	assert.False(t, stopped)
	assert.Equal(t, 3, d.runs)
}

func TestBreakAtMaxHits(t *testing.T) {
	d := newFakeDebuggee(100)
	stopped, err := breakAt(t.Context(), d, newTestEvaluator(t, d), breakOptions{
		at:        "main.ahk:7",
		condition: "hits = 50",
		maxHits:   4,
	}, logging.Nop())
	require.NoError(t, err)
	assert.False(t, stopped)
	assert.Equal(t, 4, d.runs)
}

func TestBreakAtInvalidLocation(t *testing.T) {
	d := newFakeDebuggee(1)
	_, err := breakAt(t.Context(), d, newTestEvaluator(t, d), breakOptions{at: "main.ahk"}, logging.Nop())
	assert.Error(t, err)
	assert.Empty(t, d.breakpoints)
}

func TestRenderResult(t *testing.T) {
	var buf bytes.Buffer
	renderResult(&buf, true)
	renderResult(&buf, false)
	assert.Equal(t, "true\nfalse\n", buf.String())
}

func TestDump(t *testing.T) {
	d := newFakeDebuggee(1)
	d.runs = 4
	m, err := variables.NewManager(d, variables.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dump(t.Context(), &buf, m, 1))
	out := buf.String()

	assert.Contains(t, out, "Tick")
	assert.Contains(t, out, "/scripts/main.ahk:7")
	assert.Contains(t, out, "Local (1)")
	assert.Contains(t, out, "Global (2)")
	assert.Contains(t, out, "Point { x: 3 }")
	assert.Contains(t, out, "pt.x")

	local := out[strings.Index(out, "Local (1)"):strings.Index(out, "Global (2)")]
	assert.Contains(t, local, "hits")
	assert.Contains(t, local, "4")
}

func TestDumpWithCategories(t *testing.T) {
	d := newFakeDebuggee(1)
	m, err := variables.NewManager(d, variables.Options{
		Categories: config.CategoriesSpec{Items: []config.CategoryItem{
			{Descriptor: &config.CategoryDescriptor{
				Label:    "Objects",
				Source:   []string{"*"},
				Matchers: []config.MatcherSpec{{Method: config.MethodInclude, Type: "object"}},
			}},
		}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dump(t.Context(), &buf, m, 0))
	out := buf.String()

	assert.Contains(t, out, "Objects (1)")
	assert.NotContains(t, out, "Local")
	assert.NotContains(t, out, "pt.x")
}
