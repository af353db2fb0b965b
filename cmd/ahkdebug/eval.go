package main

import (
	"strings"

	"github.com/spf13/cobra"
)

type evalOptions struct {
	listen string
	at     string
}

func newEvalCmd(global *globalOptions) *cobra.Command {
	opts := &evalOptions{}

	cmd := &cobra.Command{
		Use:   "eval <condition>",
		Short: "Wait for a break and evaluate a condition",
		Long: `eval accepts one debuggee connection, runs it to the breakpoint given
with --break (or stops at the first statement), prints whether the condition
holds there and detaches.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := global.load(cmd)
			if err != nil {
				return err
			}
			if opts.listen != "" {
				cfg.Listen = opts.listen
			}

			ctx := cmd.Context()
			session, err := attach(ctx, cfg.Listen, cfg, log)
			if err != nil {
				return err
			}
			defer session.Close()

			ev, err := newEvaluator(session, cfg, log)
			if err != nil {
				return err
			}
			defer ev.Close()

			stopped, err := breakAt(ctx, session, ev, breakOptions{at: opts.at}, log)
			if err != nil {
				return err
			}
			if !stopped {
				log.Warn("script ended before breaking")
				return nil
			}

			renderResult(cmd.OutOrStdout(), ev.Eval(ctx, strings.Join(args, " ")))
			_, err = session.Detach(ctx)
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "address to accept the debuggee on (default from configuration)")
	cmd.Flags().StringVarP(&opts.at, "break", "b", "", "breakpoint location as file:line")
	return cmd
}
