package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"crop-to-ai/src/singleinstance"
)

func TestNewRootCmdDefaults(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 50 {
		t.Fatalf("Expected default n=50, got %d", opts.n)
	}
	if opts.mode != "capture" {
		t.Fatalf("Expected default mode=capture, got %q", opts.mode)
	}
	if opts.deadline != 5*time.Second {
		t.Fatalf("Expected default deadline=5s, got %v", opts.deadline)
	}
}

func TestNewRootCmdCustomFlags(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--n", "3", "--mode", "reload", "--deadline", "7s"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 3 || opts.mode != "reload" || opts.deadline != 7*time.Second {
		t.Fatalf("Unexpected options %+v", opts)
	}
}

func TestRequestFor(t *testing.T) {
	if req, err := requestFor("capture"); err != nil || req.Command != singleinstance.CommandCapture || req.Width == 0 {
		t.Errorf("Unexpected capture request %+v %v", req, err)
	}
	if _, err := requestFor("stdout"); err == nil {
		t.Error("Expected unknown mode error")
	}
}

type scriptedClient struct{ calls atomic.Int32 }

func (c *scriptedClient) Delegate(ctx context.Context, req singleinstance.Request) (bool, string, error) {
	switch c.calls.Add(1) % 4 {
	case 0:
		return true, "Screenshot captured!", nil
	case 1:
		return true, "", errors.New("Busy, please retry")
	case 2:
		return true, "", errors.New("clipboard error: locked")
	}
	return false, "", nil
}

func TestRunWithOptionsCounts(t *testing.T) {
	c := runWithOptions(stressOptions{n: 8, deadline: time.Second}, singleinstance.Request{Command: singleinstance.CommandOpen}, &scriptedClient{})
	if c.ok != 2 || c.busy != 2 || c.err != 2 || c.missed != 2 {
		t.Errorf("Unexpected counts %+v", c)
	}

	var buf bytes.Buffer
	report(&buf, 8, c, time.Second)
	if !strings.HasPrefix(buf.String(), "launched=8 ok=2 busy=2 err=2 no-resident=2") {
		t.Errorf("Unexpected report %q", buf.String())
	}
}
