package client

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	httperrors "github.com/nczempin/httpc-direct/errors"
	"github.com/nczempin/httpc-direct/transport"
)

func TestRequest_WireFormat(t *testing.T) {
	tr := newScriptedTransport()
	c, w := newScriptedClient(t, tr)

	_, err := c.NewRequest().
		GET().
		URL("/exec").
		Query("query", "cpu limit 400000").
		Header("Accept", "gzip, deflate, br").
		Send("localhost", 9000)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := "GET /exec?query=cpu%20limit%20400000 HTTP/1.1\r\nAccept: gzip, deflate, br\r\n\r\n"
	if tr.written.String() != want {
		t.Errorf("Expected %q, got %q", want, tr.written.String())
	}
	if tr.connects != 1 {
		t.Errorf("Expected one connect, got %d", tr.connects)
	}
	if len(w.setups) != 1 || w.setups[0] != 42 {
		t.Errorf("Expected waiter set up for fd 42, got %v", w.setups)
	}
}

func TestRequest_WithoutHeaders(t *testing.T) {
	tr := newScriptedTransport()
	c, _ := newScriptedClient(t, tr)

	if _, err := c.NewRequest().GET().URL("/x").Query("a", "1").Query("b c", "2&3").Send("localhost", 9000); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	want := "GET /x?a=1&b%20c=2%263 HTTP/1.1\r\n\r\n"
	if tr.written.String() != want {
		t.Errorf("Expected %q, got %q", want, tr.written.String())
	}
}

func TestRequest_MultipleHeaders(t *testing.T) {
	tr := newScriptedTransport()
	c, _ := newScriptedClient(t, tr)

	c.NewRequest().GET().URL("/").Header("A", "1").Header("B", "2").Send("localhost", 9000)
	want := "GET / HTTP/1.1\r\nA: 1\r\nB: 2\r\n\r\n"
	if tr.written.String() != want {
		t.Errorf("Expected %q, got %q", want, tr.written.String())
	}
}

func TestRequest_OneByteWrites(t *testing.T) {
	tr := newScriptedTransport()
	tr.maxWrite = 1
	c, w := newScriptedClient(t, tr)

	_, err := c.NewRequest().GET().URL("/exec").Query("query", "select 1").Header("Accept", "*/*").Send("localhost", 9000)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	wire := string(c.buf.Written())
	if !strings.HasSuffix(wire, "\r\n\r\n") {
		t.Fatalf("Expected a terminated request in the buffer, got %q", wire)
	}
	if tr.written.String() != wire {
		t.Errorf("Expected %q, got %q", wire, tr.written.String())
	}
	if tr.writes != len(wire) {
		t.Errorf("Expected %d writes, got %d", len(wire), tr.writes)
	}
	if w.waits[transport.OpWrite] != len(wire) {
		t.Errorf("Expected one write wait per write, got %d", w.waits[transport.OpWrite])
	}
}

func TestRequest_StateViolations(t *testing.T) {
	cases := []struct {
		name  string
		build func(*Request) *Request
	}{
		{"url before method", func(r *Request) *Request { return r.URL("/x") }},
		{"query before url", func(r *Request) *Request { return r.GET().Query("a", "b") }},
		{"header before url", func(r *Request) *Request { return r.GET().Header("A", "b") }},
		{"method twice", func(r *Request) *Request { return r.GET().GET() }},
		{"query after header", func(r *Request) *Request { return r.GET().URL("/").Header("A", "b").Query("a", "b") }},
		{"url twice", func(r *Request) *Request { return r.GET().URL("/").URL("/") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newScriptedTransport()
			c, _ := newScriptedClient(t, tr)

			r := tc.build(c.NewRequest())
			if !httperrors.IsState(r.Err(), httperrors.StateErrorInvalidTransition) {
				t.Fatalf("Expected InvalidTransition, got %v", r.Err())
			}
			if _, err := r.Send("localhost", 9000); !httperrors.IsState(err, httperrors.StateErrorInvalidTransition) {
				t.Errorf("Send must report the recorded error, got %v", err)
			}
			if tr.connects != 0 || tr.writes != 0 {
				t.Error("Send must not touch the socket after a state violation")
			}
		})
	}
}

func TestRequest_SendBeforeURL(t *testing.T) {
	tr := newScriptedTransport()
	c, _ := newScriptedClient(t, tr)

	_, err := c.NewRequest().GET().Send("localhost", 9000)
	if !httperrors.IsState(err, httperrors.StateErrorInvalidTransition) {
		t.Errorf("Expected InvalidTransition, got %v", err)
	}
}

func TestRequest_FirstErrorSticks(t *testing.T) {
	tr := newScriptedTransport()
	c, _ := newScriptedClient(t, tr)

	r := c.NewRequest().URL("/a").GET().URL("/b")
	he, ok := r.Err().(*httperrors.HttpError)
	if !ok || !strings.Contains(he.Message, "URL not allowed [state=REQUEST]") {
		t.Errorf("Expected the first violation to be kept, got %v", r.Err())
	}
}

func TestRequest_Overflow(t *testing.T) {
	tr := newScriptedTransport()
	c, _ := newScriptedClient(t, tr, WithBufferSize(32))

	r := c.NewRequest().GET().URL("/" + strings.Repeat("x", 40))
	if !httperrors.IsProtocol(r.Err(), httperrors.ProtocolErrorMessageTooLarge) {
		t.Fatalf("Expected MessageTooLarge, got %v", r.Err())
	}
	if _, err := r.Send("localhost", 9000); err == nil {
		t.Error("Expected Send to fail")
	}
	if tr.writes != 0 {
		t.Error("Expected no writes")
	}
}

func TestRequest_TerminatorOverflow(t *testing.T) {
	tr := newScriptedTransport()
	c, _ := newScriptedClient(t, tr, WithBufferSize(16))

	r := c.NewRequest().GET().URL("/0123456789")
	if r.Err() != nil {
		t.Fatalf("Unexpected error: %v", r.Err())
	}
	if _, err := r.Send("localhost", 9000); !httperrors.IsProtocol(err, httperrors.ProtocolErrorMessageTooLarge) {
		t.Errorf("Expected MessageTooLarge, got %v", err)
	}
}

func TestRequest_NewRequestResetsBuilder(t *testing.T) {
	tr := newScriptedTransport()
	c, _ := newScriptedClient(t, tr)

	c.NewRequest().URL("/broken")
	r := c.NewRequest().GET().URL("/ok")
	if r.Err() != nil {
		t.Fatalf("Expected a clean request, got %v", r.Err())
	}
	if string(c.buf.Written()) != "GET /ok" {
		t.Errorf("Expected the arena to start over, got %q", c.buf.Written())
	}
}

func TestRequest_ReusesConnection(t *testing.T) {
	tr := newScriptedTransport()
	core, logs := observer.New(zap.WarnLevel)
	c, _ := newScriptedClient(t, tr, WithLogger(zap.New(core)))

	for i := 0; i < 3; i++ {
		if _, err := c.NewRequest().GET().URL("/").Send("localhost", 9000); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}
	if tr.connects != 1 {
		t.Errorf("Expected the socket to be reused, got %d connects", tr.connects)
	}
	if logs.Len() != 0 {
		t.Errorf("Expected no warnings, got %d", logs.Len())
	}

	c.NewRequest().GET().URL("/").Send("otherhost", 9001)
	if tr.connects != 1 {
		t.Errorf("Expected the open socket to be reused for a new target, got %d connects", tr.connects)
	}
	if logs.FilterMessage("target changed while connected, reusing socket").Len() != 1 {
		t.Error("Expected a warning about the target change")
	}

	c.Disconnect()
	c.NewRequest().GET().URL("/").Send("otherhost", 9001)
	if tr.connects != 2 {
		t.Errorf("Expected a reconnect after Disconnect, got %d connects", tr.connects)
	}
}

func TestRequest_WriteTimeout(t *testing.T) {
	tr := newScriptedTransport()
	c, w := newScriptedClient(t, tr)
	w.timeouts[transport.OpWrite] = true

	_, err := c.NewRequest().GET().URL("/").Send("localhost", 9000)
	if !httperrors.IsTransport(err, httperrors.TransportErrorTimeout) {
		t.Errorf("Expected Timeout, got %v", err)
	}
	if tr.writes != 0 {
		t.Error("Expected no write after a timed out wait")
	}
}
