package testutil

import (
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

// ConsoleClient drives a line-oriented console host over an in-memory pipe.
type ConsoleClient struct {
	conn net.Conn
	done chan error
	t    *testing.T
}

// NewConsoleClient starts serve on one end of a pipe and returns a client
// holding the other end.
//
// Precondition: serve must return once its input is closed.
// Postcondition: the pipe is closed when the test ends.
func NewConsoleClient(t *testing.T, serve func(in io.Reader, out io.Writer) error) *ConsoleClient {
	t.Helper()
	client, host := net.Pipe()
	c := &ConsoleClient{conn: client, done: make(chan error, 1), t: t}
	go func() {
		err := serve(host, host)
		host.Close()
		c.done <- err
	}()
	t.Cleanup(func() {
		client.Close()
	})
	return c
}

// ReadUntil reads output until substr appears or timeout elapses.
// It returns everything read up to and including the match.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns output containing substr, or fails the test.
func (c *ConsoleClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	var buf strings.Builder
	tmp := make([]byte, 1024)
	for {
		n, err := c.conn.Read(tmp)
		if n > 0 {
			buf.Write(tmp[:n])
			if strings.Contains(buf.String(), substr) {
				return buf.String()
			}
		}
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, buf.String(), err)
		}
	}
}

// Send writes one command line.
func (c *ConsoleClient) Send(line string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\n", line); err != nil {
		c.t.Fatalf("sending %q: %v", line, err)
	}
}

// Wait returns the host's result once it has stopped.
func (c *ConsoleClient) Wait(timeout time.Duration) error {
	c.t.Helper()
	select {
	case err := <-c.done:
		return err
	case <-time.After(timeout):
		c.t.Fatalf("console host did not stop within %s", timeout)
		return nil
	}
}
