//go:build unix

package transport

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func socketPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair failed: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func waiters(t *testing.T) map[string]Waiter {
	t.Helper()
	def, err := NewDefaultWaiter()
	if err != nil {
		t.Fatalf("NewDefaultWaiter failed: %v", err)
	}
	t.Cleanup(func() { def.Close() })
	return map[string]Waiter{
		"poll":    NewPollWaiter(),
		"default": def,
	}
}

func TestWaiter_ReadTimesOut(t *testing.T) {
	for name, w := range waiters(t) {
		t.Run(name, func(t *testing.T) {
			a, _ := socketPair(t)
			if err := w.Setup(a); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			start := time.Now()
			status, err := w.Wait(OpRead, 20*time.Millisecond)
			if status != WaitTimeout || err != nil {
				t.Fatalf("Expected timeout, got %v (%v)", status, err)
			}
			if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
				t.Errorf("Wait returned too early after %v", elapsed)
			}
		})
	}
}

func TestWaiter_ReadReady(t *testing.T) {
	for name, w := range waiters(t) {
		t.Run(name, func(t *testing.T) {
			a, b := socketPair(t)
			if err := w.Setup(a); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}
			if _, err := unix.Write(b, []byte("x")); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			status, err := w.Wait(OpRead, time.Second)
			if status != WaitReady {
				t.Fatalf("Expected ready, got %v (%v)", status, err)
			}
		})
	}
}

func TestWaiter_WriteReady(t *testing.T) {
	for name, w := range waiters(t) {
		t.Run(name, func(t *testing.T) {
			a, _ := socketPair(t)
			if err := w.Setup(a); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			status, err := w.Wait(OpWrite, time.Second)
			if status != WaitReady {
				t.Fatalf("Expected ready, got %v (%v)", status, err)
			}
		})
	}
}

func TestWaiter_SwitchesDescriptor(t *testing.T) {
	for name, w := range waiters(t) {
		t.Run(name, func(t *testing.T) {
			a, _ := socketPair(t)
			c, d := socketPair(t)
			w.Setup(a)
			w.Setup(c)
			unix.Write(d, []byte("x"))

			status, err := w.Wait(OpRead, time.Second)
			if status != WaitReady {
				t.Fatalf("Expected ready on the new descriptor, got %v (%v)", status, err)
			}
		})
	}
}

func TestPollWaiter_WithoutSetup(t *testing.T) {
	w := NewPollWaiter()
	status, err := w.Wait(OpRead, time.Millisecond)
	if status != WaitError || err == nil {
		t.Errorf("Expected WaitError without setup, got %v (%v)", status, err)
	}
}

func TestMillis(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int
	}{
		{-1, -1},
		{0, 0},
		{time.Microsecond, 1},
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 2},
		{2 * time.Second, 2000},
	}
	for _, c := range cases {
		if got := millis(c.in); got != c.want {
			t.Errorf("millis(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
