package client

import (
	"bytes"
	"testing"
	"time"

	"github.com/nczempin/httpc-direct/transport"
)

// scriptedTransport replays canned reads and records writes.
type scriptedTransport struct {
	fd       int
	connects int
	closes   int
	destroys int

	maxWrite int
	writes   int
	written  bytes.Buffer

	reads   [][]byte
	recvLen []int
}

func newScriptedTransport(reads ...string) *scriptedTransport {
	t := &scriptedTransport{fd: -1}
	for _, r := range reads {
		t.reads = append(t.reads, []byte(r))
	}
	return t
}

func (t *scriptedTransport) Connect(host string, port int) error {
	t.connects++
	t.fd = 42
	return nil
}

func (t *scriptedTransport) ConnectError() error { return nil }

func (t *scriptedTransport) Fd() int { return t.fd }

func (t *scriptedTransport) Write(buf []byte) (int, error) {
	n := len(buf)
	if t.maxWrite > 0 && n > t.maxWrite {
		n = t.maxWrite
	}
	t.writes++
	t.written.Write(buf[:n])
	return n, nil
}

// Read hands out the head segment, as much as fits into buf. An exhausted
// script reads as a closed peer.
func (t *scriptedTransport) Read(buf []byte) (int, error) {
	if len(t.reads) == 0 {
		return 0, nil
	}
	seg := t.reads[0]
	n := copy(buf, seg)
	if n < len(seg) {
		t.reads[0] = seg[n:]
	} else {
		t.reads = t.reads[1:]
	}
	t.recvLen = append(t.recvLen, n)
	return n, nil
}

func (t *scriptedTransport) Close() error {
	if t.fd >= 0 {
		t.closes++
	}
	t.fd = -1
	return nil
}

func (t *scriptedTransport) Destroy() {
	t.Close()
	t.destroys++
}

// readyWaiter reports readiness immediately unless told otherwise.
type readyWaiter struct {
	setups   []int
	waits    map[transport.Op]int
	timeouts map[transport.Op]bool
	closed   bool
}

func newReadyWaiter() *readyWaiter {
	return &readyWaiter{
		waits:    make(map[transport.Op]int),
		timeouts: make(map[transport.Op]bool),
	}
}

func (w *readyWaiter) Setup(fd int) error {
	w.setups = append(w.setups, fd)
	return nil
}

func (w *readyWaiter) Wait(op transport.Op, timeout time.Duration) (transport.WaitStatus, error) {
	w.waits[op]++
	if w.timeouts[op] {
		return transport.WaitTimeout, nil
	}
	return transport.WaitReady, nil
}

func (w *readyWaiter) Close() error {
	w.closed = true
	return nil
}

func newScriptedClient(t *testing.T, tr *scriptedTransport, opts ...Option) (*Client, *readyWaiter) {
	t.Helper()
	w := newReadyWaiter()
	opts = append([]Option{WithTransport(tr), WithWaiter(w)}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, w
}

// splitEvery cuts s into pieces of n bytes.
func splitEvery(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}
