package singleinstance

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		line    string
		want    Request
		wantErr bool
	}{
		{"CAPTURE 10 20 300 200 1.5\n", Request{Command: CommandCapture, X: 10, Y: 20, Width: 300, Height: 200, Scale: 1.5}, false},
		{"capture 0 0 1 1 1", Request{Command: CommandCapture, Width: 1, Height: 1, Scale: 1}, false},
		{"RELOAD\n", Request{Command: CommandReload}, false},
		{"OPEN\n", Request{Command: CommandOpen}, false},
		{"", Request{}, true},
		{"CAPTURE 1 2 3\n", Request{}, true},
		{"CAPTURE a 2 3 4 1\n", Request{}, true},
		{"CAPTURE 1 2 3 4 x\n", Request{}, true},
		{"RELOAD now\n", Request{}, true},
		{"STDOUT\n", Request{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseRequest(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRequest(%q) err = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRequest(%q) = %+v, expected %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestEncodeParses(t *testing.T) {
	reqs := []Request{
		{Command: CommandCapture, X: -5, Y: 7, Width: 640, Height: 480, Scale: 1.25},
		{Command: CommandReload},
		{Command: CommandOpen},
	}
	for _, r := range reqs {
		got, err := ParseRequest(r.Encode())
		if err != nil || got != r {
			t.Errorf("Encode/Parse mismatch for %+v: got %+v err %v", r, got, err)
		}
	}
}

func TestPortRange(t *testing.T) {
	t.Setenv(PortStartEnvVar, "80")
	t.Setenv(PortEndEnvVar, "70000")
	start, end := PortRange()
	if start != 1024 || end != 65535 {
		t.Errorf("Expected clamped range, got %d-%d", start, end)
	}

	t.Setenv(PortStartEnvVar, "50010")
	t.Setenv(PortEndEnvVar, "50000")
	start, end = PortRange()
	if start != 50000 || end != 50010 {
		t.Errorf("Expected swapped range, got %d-%d", start, end)
	}
}

func TestServerClientRoundTrip(t *testing.T) {
	port := 49700 + int(time.Now().UnixNano()%200)
	t.Setenv(PortStartEnvVar, strconv.Itoa(port))
	t.Setenv(PortEndEnvVar, strconv.Itoa(port))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer srv.Close()

	if p, ok := DetectResidentPort(ctx); !ok || p != port {
		t.Errorf("Expected resident on %d, got %d %v", port, p, ok)
	}

	type reply struct {
		delegated bool
		text      string
		err       error
	}
	replies := make(chan reply, 1)
	go func() {
		d, text, err := NewClient().Delegate(ctx, Request{Command: CommandCapture, X: 1, Y: 2, Width: 3, Height: 4, Scale: 2})
		replies <- reply{d, text, err}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := conn.Request(); got.Command != CommandCapture || got.Width != 3 || got.Scale != 2 {
		t.Errorf("Unexpected request %+v", got)
	}
	if err := conn.RespondSuccess("Screenshot captured!"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	conn.Close()

	r := <-replies
	if !r.delegated || r.err != nil || r.text != "Screenshot captured!" {
		t.Errorf("Unexpected reply %+v", r)
	}

	go func() {
		d, text, err := NewClient().Delegate(ctx, Request{Command: CommandReload})
		replies <- reply{d, text, err}
	}()
	conn, err = srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	_ = conn.RespondError("Invalid shortcut")
	conn.Close()

	r = <-replies
	if !r.delegated || r.err == nil || r.err.Error() != "Invalid shortcut" {
		t.Errorf("Expected delegated error, got %+v", r)
	}
}

func TestClientWithoutResident(t *testing.T) {
	t.Setenv(PortStartEnvVar, "49999")
	t.Setenv(PortEndEnvVar, "49999")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	delegated, _, err := NewClient().Delegate(ctx, Request{Command: CommandOpen})
	if delegated || err != nil {
		t.Errorf("Expected no delegation, got %v %v", delegated, err)
	}
}

// silentListeners binds n consecutive loopback ports that accept connections
// but never reply, and returns the first port.
func silentListeners(t *testing.T, n int) int {
	t.Helper()
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	base := 50200 + int(time.Now().UnixNano()%500)
	for i := 0; i < n; i++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(residentHost, strconv.Itoa(base+i)))
		if err != nil {
			t.Skipf("cannot bind port %d: %v", base+i, err)
		}
		t.Cleanup(func() { ln.Close() })
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				mu.Lock()
				conns = append(conns, conn)
				mu.Unlock()
			}
		}()
	}
	return base
}

func TestDetectResidentPortHonorsContextBudget(t *testing.T) {
	base := silentListeners(t, 5)
	t.Setenv(PortStartEnvVar, strconv.Itoa(base))
	t.Setenv(PortEndEnvVar, strconv.Itoa(base+4))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	begin := time.Now()
	_, ok := DetectResidentPort(ctx)
	elapsed := time.Since(begin)

	if ok {
		t.Error("Expected no resident among silent listeners")
	}
	if elapsed > 600*time.Millisecond {
		t.Errorf("Scan took %v against a 200ms budget", elapsed)
	}
}

func TestDelegateHonorsContextBudget(t *testing.T) {
	base := silentListeners(t, 5)
	t.Setenv(PortStartEnvVar, strconv.Itoa(base))
	t.Setenv(PortEndEnvVar, strconv.Itoa(base+4))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	begin := time.Now()
	delegated, _, _ := NewClient().Delegate(ctx, Request{Command: CommandOpen})
	elapsed := time.Since(begin)

	if delegated {
		t.Error("Expected no delegation to silent listeners")
	}
	if elapsed > 600*time.Millisecond {
		t.Errorf("Delegate took %v against a 200ms budget", elapsed)
	}
}
