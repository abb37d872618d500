package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSubmitRunsTask(t *testing.T) {
	p := New(1)
	defer p.Close()

	done := make(chan string, 1)
	ok := p.Submit(context.Background(), func(context.Context) (string, error) {
		return "Screenshot captured!", nil
	}, func(text string, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- text
	})
	if !ok {
		t.Fatal("Expected submit to succeed")
	}
	select {
	case got := <-done:
		if got != "Screenshot captured!" {
			t.Errorf("Unexpected result %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for task")
	}
}

func TestSubmitBackPressure(t *testing.T) {
	p := New(1)
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	block := func(context.Context) (string, error) {
		close(started)
		<-release
		return "", nil
	}
	noop := func(string, error) {}

	if !p.Submit(context.Background(), block, noop) {
		t.Fatal("Expected first submit to succeed")
	}
	<-started
	if !p.Submit(context.Background(), func(context.Context) (string, error) { return "", nil }, noop) {
		t.Fatal("Expected queue slot to accept one waiting task")
	}
	if p.Submit(context.Background(), func(context.Context) (string, error) { return "", nil }, noop) {
		t.Error("Expected third submit to be dropped")
	}
	close(release)
}

func TestDeadline(t *testing.T) {
	p := New(1)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	errCh := make(chan error, 1)
	p.Submit(ctx, func(context.Context) (string, error) {
		time.Sleep(500 * time.Millisecond)
		return "late", nil
	}, func(_ string, err error) { errCh <- err })

	if err := <-errCh; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
}

func TestPanicBecomesError(t *testing.T) {
	p := New(1)
	defer p.Close()

	errCh := make(chan error, 1)
	p.Submit(context.Background(), func(context.Context) (string, error) {
		panic("boom")
	}, func(_ string, err error) { errCh <- err })

	if err := <-errCh; err == nil {
		t.Error("Expected error from panicking task")
	}
}
