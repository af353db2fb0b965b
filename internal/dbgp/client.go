package dbgp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/ahkdebug/internal/logging"
)

// Command is one DBGp command: a name, flag arguments and optional data.
type Command struct {
	Name string
	// Args are flag/value pairs, e.g. {"-n", "obj.x"}.
	Args []string
	// Data is sent base64 encoded after "--".
	Data []byte
}

// Client sends DBGp commands and routes responses by transaction id.
type Client struct {
	transport Transport
	log       *logging.Logger
	txid      int64
	pending   map[int]*pendingCommand
	pendingMu sync.Mutex
	// stopped is set under pendingMu once the receive loop has exited.
	stopped bool
	init      chan *InitPacket
	initOnce  sync.Once
	onStream  func(*Stream)
	handlerMu sync.RWMutex
	done      chan struct{}
	closeOnce sync.Once
	err       error
	errMu     sync.RWMutex
}

// pendingCommand tracks a command awaiting its response.
type pendingCommand struct {
	done      chan struct{}
	closeOnce sync.Once
	response  *Response
	err       error
}

func (p *pendingCommand) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// NewClient creates a client and starts its receive loop.
func NewClient(transport Transport, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	c := &Client{
		transport: transport,
		log:       log.WithComponent("dbgp"),
		pending:   make(map[int]*pendingCommand),
		init:      make(chan *InitPacket, 1),
		done:      make(chan struct{}),
	}
	go c.receiveLoop()
	return c
}

// Close closes the client and the transport.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return c.transport.Close()
}

// Error returns the error that terminated the receive loop, if any.
func (c *Client) Error() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	return c.err
}

// OnStream sets the handler for output stream packets.
func (c *Client) OnStream(handler func(*Stream)) {
	c.handlerMu.Lock()
	c.onStream = handler
	c.handlerMu.Unlock()
}

// WaitInit blocks until the debuggee's init packet arrives.
func (c *Client) WaitInit(ctx context.Context) (*InitPacket, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p, ok := <-c.init:
		if !ok {
			if err := c.Error(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNoInit, err)
			}
			return nil, ErrNoInit
		}
		return p, nil
	}
}

func (c *Client) receiveLoop() {
	defer c.initOnce.Do(func() { close(c.init) })

	for {
		content, err := c.transport.Receive()
		if err != nil {
			select {
			case <-c.done:
				err = ErrClosed
			default:
			}
			c.shutdown(err)
			return
		}

		select {
		case <-c.done:
			c.shutdown(ErrClosed)
			return
		default:
		}

		c.handlePacket(content)
	}
}

// shutdown records err, fails every pending command and makes later
// commands fail immediately.
func (c *Client) shutdown(err error) {
	c.errMu.Lock()
	c.err = err
	c.errMu.Unlock()

	c.pendingMu.Lock()
	c.stopped = true
	for _, cmd := range c.pending {
		cmd.err = err
		cmd.close()
	}
	c.pending = make(map[int]*pendingCommand)
	c.pendingMu.Unlock()
}

func (c *Client) handlePacket(content []byte) {
	p, err := decodePacket(content)
	if err != nil {
		c.log.Warn("dropping packet: %v", err)
		return
	}

	switch {
	case p.init != nil:
		c.initOnce.Do(func() {
			c.init <- p.init
			close(c.init)
		})
	case p.response != nil:
		c.handleResponse(p.response)
	case p.stream != nil:
		c.handlerMu.RLock()
		handler := c.onStream
		c.handlerMu.RUnlock()
		if handler != nil {
			handler(p.stream)
		}
	}
}

func (c *Client) handleResponse(resp *Response) {
	c.pendingMu.Lock()
	cmd, ok := c.pending[resp.TransactionID]
	if ok {
		delete(c.pending, resp.TransactionID)
	}
	c.pendingMu.Unlock()

	if !ok {
		c.log.Debug("response for unknown transaction %d (%s)", resp.TransactionID, resp.Command)
		return
	}

	if resp.Error != nil {
		cmd.err = &CommandError{
			Command: resp.Command,
			Code:    resp.Error.Code,
			Message: strings.TrimSpace(resp.Error.Message),
		}
	}
	cmd.response = resp
	cmd.close()
}

// Send issues cmd and waits for its response. Error responses are returned
// as *CommandError.
func (c *Client) Send(ctx context.Context, cmd Command) (*Response, error) {
	txid := int(atomic.AddInt64(&c.txid, 1))
	line := encodeCommand(cmd, txid)

	pending := &pendingCommand{
		done: make(chan struct{}),
	}

	c.pendingMu.Lock()
	if c.stopped {
		c.pendingMu.Unlock()
		return nil, c.stoppedError(cmd.Name)
	}
	c.pending[txid] = pending
	c.pendingMu.Unlock()

	c.log.Debug("-> %s", line)
	if err := c.transport.Send([]byte(line)); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, txid)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("send %s: %w", cmd.Name, err)
	}

	select {
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, txid)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case <-pending.done:
		if pending.err != nil {
			return pending.response, pending.err
		}
		return pending.response, nil
	}
}

// stoppedError reports a command issued after the receive loop exited. It
// matches ErrClosed and the error that ended the loop.
func (c *Client) stoppedError(name string) error {
	err := c.Error()
	if err == nil || errors.Is(err, ErrClosed) {
		return fmt.Errorf("send %s: %w", name, ErrClosed)
	}
	return fmt.Errorf("send %s: %w: %w", name, ErrClosed, err)
}

// encodeCommand renders "name -i txid args -- base64".
func encodeCommand(cmd Command, txid int) string {
	var b strings.Builder
	b.WriteString(cmd.Name)
	b.WriteString(" -i ")
	b.WriteString(strconv.Itoa(txid))
	for i, arg := range cmd.Args {
		b.WriteByte(' ')
		// Flags are written verbatim; values are quoted when needed.
		if i%2 == 0 && strings.HasPrefix(arg, "-") {
			b.WriteString(arg)
			continue
		}
		b.WriteString(quoteArg(arg))
	}
	if cmd.Data != nil {
		b.WriteString(" -- ")
		b.WriteString(base64.StdEncoding.EncodeToString(cmd.Data))
	}
	return b.String()
}

// quoteArg quotes a value containing whitespace, quotes or NUL-unsafe bytes.
func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"\\") {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
