package dbgp

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// received is one command as seen by the fake debuggee.
type received struct {
	Name string
	TxID int
	Args map[string]string
	Raw  string
}

// fakeDebuggee plays the remote side of a DBGp connection over net.Pipe.
// The respond function returns the inner XML of the response element (or a
// whole document starting with "<response" to control attributes).
type fakeDebuggee struct {
	t       *testing.T
	conn    net.Conn
	respond func(cmd received) string

	mu       sync.Mutex
	commands []received
	done     chan struct{}
}

func newFakeDebuggee(t *testing.T, respond func(cmd received) string) (*fakeDebuggee, net.Conn) {
	t.Helper()
	adapterSide, debuggeeSide := net.Pipe()
	d := &fakeDebuggee{
		t:       t,
		conn:    debuggeeSide,
		respond: respond,
		done:    make(chan struct{}),
	}
	t.Cleanup(func() {
		debuggeeSide.Close()
		adapterSide.Close()
	})
	return d, adapterSide
}

func (d *fakeDebuggee) send(xml string) {
	body := `<?xml version="1.0" encoding="UTF-8"?>` + xml
	_, _ = fmt.Fprintf(d.conn, "%d\x00%s\x00", len(body), body)
}

// serve sends init and answers commands until the connection closes.
func (d *fakeDebuggee) serve(init string) {
	go func() {
		defer close(d.done)
		if init != "" {
			d.send(init)
		}
		r := bufio.NewReader(d.conn)
		for {
			line, err := r.ReadString(0)
			if err != nil {
				return
			}
			cmd := parseReceived(strings.TrimSuffix(line, "\x00"))

			d.mu.Lock()
			d.commands = append(d.commands, cmd)
			d.mu.Unlock()

			body := d.respond(cmd)
			if body == "-" {
				continue
			}
			if !strings.HasPrefix(body, "<response") {
				body = fmt.Sprintf(`<response xmlns="urn:debugger_protocol_v1" command="%s" transaction_id="%d">%s</response>`,
					cmd.Name, cmd.TxID, body)
			}
			d.send(body)
		}
	}()
}

func (d *fakeDebuggee) received() []received {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]received{}, d.commands...)
}

func (d *fakeDebuggee) count(name string) int {
	n := 0
	for _, c := range d.received() {
		if c.Name == name {
			n++
		}
	}
	return n
}

// parseReceived splits "name -i 3 -n x -c 0" into its parts. Quoted values
// are unquoted.
func parseReceived(line string) received {
	cmd := received{Raw: line, Args: map[string]string{}}
	fields := splitArgs(line)
	if len(fields) == 0 {
		return cmd
	}
	cmd.Name = fields[0]
	for i := 1; i+1 < len(fields); i += 2 {
		cmd.Args[fields[i]] = fields[i+1]
	}
	cmd.TxID, _ = strconv.Atoi(cmd.Args["-i"])
	return cmd
}

func splitArgs(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote, escaped, has := false, false, false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			has = true
		case r == ' ' && !inQuote:
			if has || cur.Len() > 0 {
				out = append(out, cur.String())
			}
			cur.Reset()
			has = false
		default:
			cur.WriteRune(r)
		}
	}
	if has || cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

const testInit = `<init xmlns="urn:debugger_protocol_v1" appid="AutoHotkey" ide_key="" session="" thread="1" language="AutoHotkey" protocol_version="1.0" fileuri="file:///C:/scripts/test.ahk"/>`
