package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/ahkdebug/internal/variables"
)

type inspectOptions struct {
	listen    string
	at        string
	condition string
	maxHits   int
	depth     int
	stop      bool
}

func newInspectCmd(global *globalOptions) *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the stack and variables of a stopped script",
		Long: `inspect accepts one debuggee connection and runs it to the breakpoint
given with --break until --condition holds (or stops at the first statement).
It then prints the stack and every scope of the innermost frame, grouped by
the variable categories of the configuration file when present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			session.OnOutput(func(_, text string) {
				cmd.ErrOrStderr().Write([]byte(text))
			})

			ev, err := newEvaluator(session, cfg, log)
			if err != nil {
				return err
			}
			defer ev.Close()

			m, err := variables.NewManager(session, variables.Options{
				Categories: cfg.Categories,
				Logger:     log,
			})
			if err != nil {
				return err
			}

			stopped, err := breakAt(ctx, session, ev, breakOptions{
				at:        opts.at,
				condition: opts.condition,
				maxHits:   opts.maxHits,
			}, log)
			if err != nil {
				return err
			}
			if !stopped {
				log.Warn("script ended before breaking")
				return nil
			}

			if err := dump(ctx, cmd.OutOrStdout(), m, opts.depth); err != nil {
				return err
			}

			if opts.stop {
				_, err = session.Stop(ctx)
			} else {
				_, err = session.Detach(ctx)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "address to accept the debuggee on (default from configuration)")
	cmd.Flags().StringVarP(&opts.at, "break", "b", "", "breakpoint location as file:line")
	cmd.Flags().StringVar(&opts.condition, "condition", "", "condition that must hold at the breakpoint")
	cmd.Flags().IntVar(&opts.maxHits, "max-hits", 0, "give up after this many breakpoint hits (0 is unbounded)")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 0, "expand object members this many levels")
	cmd.Flags().BoolVar(&opts.stop, "stop", false, "terminate the script afterwards instead of detaching")
	return cmd
}
