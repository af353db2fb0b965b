package dbgp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/ahkdebug/internal/logging"
)

// Status is the debuggee execution status reported by continuation commands.
type Status string

const (
	StatusStarting Status = "starting"
	StatusBreak    Status = "break"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	// MaxChildren is applied with feature_set max_children.
	MaxChildren int
	// MaxData is applied with feature_set max_data.
	MaxData int
	// Logger receives protocol traces. Defaults to a no-op logger.
	Logger *logging.Logger
	// CommandTimeout bounds each round trip except continuations, which
	// wait for the script to break. Zero means unbounded.
	CommandTimeout time.Duration
}

// Session is a RemoteSession over a DBGp client.
type Session struct {
	client  *Client
	id      string
	log     *logging.Logger
	timeout time.Duration

	init        *InitPacket
	version     int
	versionText string

	// depthMu serializes max_depth changes with the command that relies on them.
	depthMu sync.Mutex
	depth   int

	// stateMu guards status and the latest-context cache.
	stateMu  sync.Mutex
	status   Status
	contexts []*Context

	fetches singleflight.Group
}

// NewSession waits for the debuggee's init packet and negotiates features.
func NewSession(ctx context.Context, client *Client, opts SessionOptions) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	s := &Session{
		client:  client,
		id:      uuid.NewString(),
		timeout: opts.CommandTimeout,
		status:  StatusStarting,
		depth:   -1,
	}
	s.log = log.WithComponent("session").WithField("session", s.id)

	init, err := client.WaitInit(ctx)
	if err != nil {
		return nil, err
	}
	s.init = init
	s.log.Info("debuggee connected: %s (%s)", init.AppID, init.FileURI)

	resp, err := s.send(ctx, Command{Name: "feature_get", Args: []string{"-n", "language_version"}})
	if err != nil {
		return nil, fmt.Errorf("get language version: %w", err)
	}
	s.versionText = strings.TrimSpace(resp.Text)
	s.version, err = ParseLanguageVersion(s.versionText)
	if err != nil {
		s.log.Warn("%v; assuming version 1", err)
		s.version = 1
	}

	features := [][2]string{}
	if opts.MaxChildren > 0 {
		features = append(features, [2]string{"max_children", strconv.Itoa(opts.MaxChildren)})
	}
	if opts.MaxData > 0 {
		features = append(features, [2]string{"max_data", strconv.Itoa(opts.MaxData)})
	}
	for _, f := range features {
		if _, err := s.send(ctx, Command{Name: "feature_set", Args: []string{"-n", f[0], "-v", f[1]}}); err != nil {
			return nil, fmt.Errorf("set %s: %w", f[0], err)
		}
	}

	return s, nil
}

// ID returns the session id used in logs.
func (s *Session) ID() string { return s.id }

// Init returns the debuggee's init packet.
func (s *Session) Init() *InitPacket { return s.init }

// LanguageMajorVersion returns 1 or 2.
func (s *Session) LanguageMajorVersion() int { return s.version }

// LanguageVersion returns the full version text reported by the debuggee.
func (s *Session) LanguageVersion() string { return s.versionText }

// Status returns the last known execution status.
func (s *Session) Status() Status {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.status
}

// OnOutput forwards stream packets to handler.
func (s *Session) OnOutput(handler func(stream, text string)) {
	s.client.OnStream(func(st *Stream) {
		handler(st.Type, st.Text())
	})
}

// Close closes the underlying client.
func (s *Session) Close() error {
	return s.client.Close()
}

// StackGet lists the current stack, innermost frame first.
func (s *Session) StackGet(ctx context.Context) ([]*StackFrame, error) {
	resp, err := s.send(ctx, Command{Name: "stack_get"})
	if err != nil {
		return nil, err
	}

	frames := make([]*StackFrame, len(resp.Stack))
	for i, f := range resp.Stack {
		frames[i] = &StackFrame{
			Level:    f.Level,
			Type:     f.Type,
			FileName: URIToPath(f.Filename),
			Line:     f.Lineno,
			Where:    f.Where,
		}
	}
	return frames, nil
}

// ContextNames lists the contexts of frame.
func (s *Session) ContextNames(ctx context.Context, frame *StackFrame) ([]*Context, error) {
	resp, err := s.send(ctx, Command{Name: "context_names", Args: []string{"-d", strconv.Itoa(frame.Level)}})
	if err != nil {
		return nil, err
	}

	contexts := make([]*Context, len(resp.Contexts))
	for i, c := range resp.Contexts {
		contexts[i] = &Context{ID: c.ID, Name: c.Name, Frame: frame}
	}
	return contexts, nil
}

// ContextGet lists the top-level properties of c with one level of children.
func (s *Session) ContextGet(ctx context.Context, c *Context) ([]Property, error) {
	s.depthMu.Lock()
	defer s.depthMu.Unlock()

	if err := s.setDepth(ctx, 1); err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, Command{
		Name: "context_get",
		Args: []string{"-d", strconv.Itoa(c.Frame.Level), "-c", strconv.Itoa(c.ID)},
	})
	if err != nil {
		return nil, err
	}

	props := make([]Property, len(resp.Properties))
	for i := range resp.Properties {
		props[i] = resp.Properties[i].toProperty(c, s.version)
	}
	return props, nil
}

// FetchProperty fetches fullName in c with depth levels of children.
// A property that does not exist yields (nil, nil).
func (s *Session) FetchProperty(ctx context.Context, c *Context, fullName string, depth int) (Property, error) {
	key := fmt.Sprintf("%d/%d/%d/%s", c.Frame.Level, c.ID, depth, fullName)
	ch := s.fetches.DoChan(key, func() (any, error) {
		// Other callers may share this fetch, so it outlives ctx's cancellation.
		return s.fetchProperty(context.WithoutCancel(ctx), c, fullName, depth)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil || r.Val == nil {
			return nil, r.Err
		}
		return r.Val.(Property), nil
	}
}

func (s *Session) fetchProperty(ctx context.Context, c *Context, fullName string, depth int) (Property, error) {
	s.depthMu.Lock()
	defer s.depthMu.Unlock()

	if err := s.setDepth(ctx, depth); err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, Command{
		Name: "property_get",
		Args: []string{"-d", strconv.Itoa(c.Frame.Level), "-c", strconv.Itoa(c.ID), "-n", fullName},
	})
	if err != nil {
		if IsCode(err, CodePropertyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Properties) == 0 {
		return nil, nil
	}
	return resp.Properties[0].toProperty(c, s.version), nil
}

// setDepth applies the max_depth feature if it differs from the last value.
// Callers hold depthMu.
func (s *Session) setDepth(ctx context.Context, depth int) error {
	if s.depth == depth {
		return nil
	}
	_, err := s.send(ctx, Command{Name: "feature_set", Args: []string{"-n", "max_depth", "-v", strconv.Itoa(depth)}})
	if err != nil {
		return fmt.Errorf("set max_depth: %w", err)
	}
	s.depth = depth
	return nil
}

// latestContexts returns the contexts of the innermost frame of the current
// stop, cached until the debuggee resumes.
func (s *Session) latestContexts(ctx context.Context) ([]*Context, error) {
	s.stateMu.Lock()
	cached := s.contexts
	s.stateMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	frames, err := s.StackGet(ctx)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, nil
	}
	contexts, err := s.ContextNames(ctx, frames[0])
	if err != nil {
		return nil, err
	}

	s.stateMu.Lock()
	s.contexts = contexts
	s.stateMu.Unlock()
	return contexts, nil
}

// FetchLatestProperty looks fullName up in each context of the innermost
// frame, in context order, with one level of children.
func (s *Session) FetchLatestProperty(ctx context.Context, fullName string) (Property, error) {
	return s.fetchLatest(ctx, fullName, 1)
}

// FetchLatestPropertyWithoutChildren is FetchLatestProperty without members.
func (s *Session) FetchLatestPropertyWithoutChildren(ctx context.Context, fullName string) (Property, error) {
	return s.fetchLatest(ctx, fullName, 0)
}

func (s *Session) fetchLatest(ctx context.Context, fullName string, depth int) (Property, error) {
	contexts, err := s.latestContexts(ctx)
	if err != nil {
		return nil, err
	}
	return s.findInContexts(ctx, contexts, fullName, depth)
}

// findInContexts returns the first defined property; if every context
// reports it undefined, the first undefined result is returned.
func (s *Session) findInContexts(ctx context.Context, contexts []*Context, fullName string, depth int) (Property, error) {
	var fallback Property
	for _, c := range contexts {
		p, err := s.FetchProperty(ctx, c, fullName, depth)
		if err != nil {
			if IsCode(err, CodeNoSuchContext) {
				continue
			}
			return nil, err
		}
		if p == nil {
			continue
		}
		if prim, ok := p.(*PrimitiveProperty); ok && prim.Type == TypeUndefined {
			if fallback == nil {
				fallback = p
			}
			continue
		}
		return p, nil
	}
	return fallback, nil
}

// Evaluate resolves text as a property path in frame's contexts. A nil frame
// means the innermost frame.
func (s *Session) Evaluate(ctx context.Context, text string, frame *StackFrame) (Property, error) {
	if frame == nil {
		return s.FetchLatestProperty(ctx, text)
	}
	contexts, err := s.ContextNames(ctx, frame)
	if err != nil {
		if IsCode(err, CodeInvalidStackDepth) {
			return nil, nil
		}
		return nil, err
	}
	return s.findInContexts(ctx, contexts, text, 1)
}

// SetLineBreakpoint sets a line breakpoint and returns its id.
func (s *Session) SetLineBreakpoint(ctx context.Context, file string, line int) (string, error) {
	resp, err := s.send(ctx, Command{
		Name: "breakpoint_set",
		Args: []string{"-t", "line", "-f", PathToURI(file), "-n", strconv.Itoa(line)},
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Run resumes until the next break.
func (s *Session) Run(ctx context.Context) (Status, error) { return s.continuation(ctx, "run") }

// StepInto steps into the next call.
func (s *Session) StepInto(ctx context.Context) (Status, error) {
	return s.continuation(ctx, "step_into")
}

// StepOver steps over the next statement.
func (s *Session) StepOver(ctx context.Context) (Status, error) {
	return s.continuation(ctx, "step_over")
}

// StepOut runs until the current function returns.
func (s *Session) StepOut(ctx context.Context) (Status, error) {
	return s.continuation(ctx, "step_out")
}

// Stop terminates the debuggee.
func (s *Session) Stop(ctx context.Context) (Status, error) { return s.continuation(ctx, "stop") }

// Detach lets the debuggee continue without the debugger.
func (s *Session) Detach(ctx context.Context) (Status, error) {
	return s.continuation(ctx, "detach")
}

// send issues a non-continuation command under the command timeout.
func (s *Session) send(ctx context.Context, cmd Command) (*Response, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.Send(ctx, cmd)
}

func (s *Session) continuation(ctx context.Context, name string) (Status, error) {
	// Everything fetched for the previous stop is now stale.
	s.stateMu.Lock()
	s.status = StatusRunning
	s.contexts = nil
	s.stateMu.Unlock()

	resp, err := s.client.Send(ctx, Command{Name: name})
	if err != nil {
		if errors.Is(err, ErrClosed) || errors.Is(err, io.EOF) {
			s.setStatus(StatusStopped)
			return StatusStopped, nil
		}
		return "", err
	}

	status := Status(resp.Status)
	s.setStatus(status)
	s.log.Debug("%s -> %s (%s)", name, status, resp.Reason)
	return status, nil
}

func (s *Session) setStatus(status Status) {
	s.stateMu.Lock()
	s.status = status
	s.stateMu.Unlock()
}
