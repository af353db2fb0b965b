package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/google/go-dap"
	"github.com/olekukonko/tablewriter"

	"github.com/dshills/ahkdebug/internal/variables"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	trueColor    = color.New(color.FgGreen)
	falseColor   = color.New(color.FgRed)
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func renderResult(w io.Writer, result bool) {
	if result {
		trueColor.Fprintln(w, "true")
		return
	}
	falseColor.Fprintln(w, "false")
}

func renderFrames(w io.Writer, frames []dap.StackFrame) {
	table := newTable(w, "#", "Function", "Location")
	for i, f := range frames {
		location := ""
		if f.Source != nil {
			location = f.Source.Path + ":" + strconv.Itoa(f.Line)
		}
		table.Append([]string{strconv.Itoa(i), f.Name, location})
	}
	table.Render()
}

func renderVariables(w io.Writer, vars []dap.Variable) {
	table := newTable(w, "Name", "Type", "Value")
	for _, v := range vars {
		name := v.EvaluateName
		if name == "" {
			name = v.Name
		}
		table.Append([]string{name, v.Type, v.Value})
	}
	table.Render()
}

// collectVariables lists the variables behind ref, expanding members depth
// levels deep. Members follow their parent.
func collectVariables(ctx context.Context, m *variables.Manager, ref, depth int) ([]dap.Variable, error) {
	vars, err := m.CreateVariables(ctx, dap.VariablesArguments{VariablesReference: ref})
	if err != nil {
		return nil, err
	}

	var rows []dap.Variable
	for _, v := range vars {
		rows = append(rows, v)
		if depth <= 0 || v.VariablesReference == 0 {
			continue
		}
		members, err := collectVariables(ctx, m, v.VariablesReference, depth-1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, members...)
	}
	return rows, nil
}

// dump prints the stack of the stopped script and the scopes of its
// innermost frame.
func dump(ctx context.Context, w io.Writer, m *variables.Manager, depth int) error {
	frames, err := m.CreateStackFrames(ctx)
	if err != nil {
		return err
	}

	headingColor.Fprintln(w, "Stack")
	renderFrames(w, frames)
	if len(frames) == 0 {
		return nil
	}

	scopes, err := m.CreateScopes(ctx, frames[0].Id)
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		vars, err := collectVariables(ctx, m, scope.VariablesReference, depth)
		if err != nil {
			return fmt.Errorf("scope %s: %w", scope.Name, err)
		}
		fmt.Fprintln(w)
		headingColor.Fprintf(w, "%s (%d)\n", scope.Name, len(vars))
		renderVariables(w, vars)
	}
	return nil
}
