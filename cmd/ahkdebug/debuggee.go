package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/ahkdebug/internal/condition"
	"github.com/dshills/ahkdebug/internal/config"
	"github.com/dshills/ahkdebug/internal/dbgp"
	"github.com/dshills/ahkdebug/internal/logging"
	"github.com/dshills/ahkdebug/internal/variables"
)

// debuggee is the session surface the commands drive.
type debuggee interface {
	variables.Session
	condition.Session
	SetLineBreakpoint(ctx context.Context, file string, line int) (string, error)
	Run(ctx context.Context) (dbgp.Status, error)
	StepInto(ctx context.Context) (dbgp.Status, error)
	Detach(ctx context.Context) (dbgp.Status, error)
}

// attach waits for a debuggee to connect on address and opens a session.
func attach(ctx context.Context, address string, cfg *config.Config, log *logging.Logger) (*dbgp.Session, error) {
	log.Info("waiting for debuggee on %s", address)
	transport, err := dbgp.Listen(ctx, address)
	if err != nil {
		return nil, err
	}

	client := dbgp.NewClient(transport, log)
	session, err := dbgp.NewSession(ctx, client, dbgp.SessionOptions{
		MaxChildren:    cfg.MaxChildren,
		MaxData:        cfg.MaxData,
		Logger:         log,
		CommandTimeout: cfg.CommandTimeout,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	return session, nil
}

// breakpoint is a file:line location.
type breakpoint struct {
	file string
	line int
}

// parseBreakpoint splits file:line at the last colon so drive letters
// survive.
func parseBreakpoint(s string) (breakpoint, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return breakpoint{}, fmt.Errorf("breakpoint %q: want file:line", s)
	}
	line, err := strconv.Atoi(s[i+1:])
	if err != nil || line < 1 {
		return breakpoint{}, fmt.Errorf("breakpoint %q: invalid line", s)
	}
	return breakpoint{file: s[:i], line: line}, nil
}

// breakOptions selects where the script is stopped.
type breakOptions struct {
	// at is the breakpoint location; empty stops at the first statement.
	at string

	// condition must hold at the breakpoint; empty always holds.
	condition string

	// maxHits bounds how often the breakpoint is passed; 0 is unbounded.
	maxHits int
}

// breakAt runs d until it breaks where opts.condition holds. It returns false
// if the script ended or the hit limit was reached first.
func breakAt(ctx context.Context, d debuggee, ev *condition.Evaluator, opts breakOptions, log *logging.Logger) (bool, error) {
	if opts.at == "" {
		status, err := d.StepInto(ctx)
		if err != nil {
			return false, err
		}
		return status == dbgp.StatusBreak, nil
	}

	bp, err := parseBreakpoint(opts.at)
	if err != nil {
		return false, err
	}
	id, err := d.SetLineBreakpoint(ctx, bp.file, bp.line)
	if err != nil {
		return false, fmt.Errorf("set breakpoint: %w", err)
	}
	log.Debug("breakpoint %s set at %s:%d", id, bp.file, bp.line)

	for hits := 1; ; hits++ {
		status, err := d.Run(ctx)
		if err != nil {
			return false, err
		}
		if status != dbgp.StatusBreak {
			return false, nil
		}
		if opts.condition == "" || ev.Eval(ctx, opts.condition) {
			return true, nil
		}
		if opts.maxHits > 0 && hits >= opts.maxHits {
			log.Info("condition %q never held in %d hits", opts.condition, hits)
			return false, nil
		}
	}
}

func newEvaluator(d debuggee, cfg *config.Config, log *logging.Logger) (*condition.Evaluator, error) {
	return condition.NewEvaluator(d, condition.Options{
		Logger:         log,
		BaseChainLimit: cfg.BaseChainLimit,
	})
}
