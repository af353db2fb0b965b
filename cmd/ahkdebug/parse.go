package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/ahkdebug/internal/expr"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <condition>",
		Short: "Print the syntax tree of a breakpoint condition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := expr.Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e)
			return nil
		},
	}
}
