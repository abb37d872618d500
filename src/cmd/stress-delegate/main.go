package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"crop-to-ai/src/singleinstance"
)

type stressOptions struct {
	n        int
	mode     string
	deadline time.Duration
}

type counts struct {
	ok, busy, err, missed int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-delegate",
		Short:         "Fire concurrent requests at a running crop-to-ai resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFor(opts.mode)
			if err != nil {
				return err
			}
			start := time.Now()
			c := runWithOptions(*opts, req, singleinstance.NewClient())
			report(cmd.OutOrStdout(), opts.n, c, time.Since(start))
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.mode, "mode", "capture", "capture|reload|open")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

// requestFor maps a mode to the request sent; captures use a small fixed region.
func requestFor(mode string) (singleinstance.Request, error) {
	switch mode {
	case "capture":
		return singleinstance.Request{Command: singleinstance.CommandCapture, Width: 64, Height: 64, Scale: 1}, nil
	case "reload":
		return singleinstance.Request{Command: singleinstance.CommandReload}, nil
	case "open":
		return singleinstance.Request{Command: singleinstance.CommandOpen}, nil
	}
	return singleinstance.Request{}, fmt.Errorf("unknown mode %q", mode)
}

func runWithOptions(opts stressOptions, req singleinstance.Request, client singleinstance.Client) counts {
	var wg sync.WaitGroup
	var c counts

	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := client.Delegate(ctx, req)
			switch {
			case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
				atomic.AddInt32(&c.busy, 1)
			case err != nil:
				atomic.AddInt32(&c.err, 1)
			case delegated:
				atomic.AddInt32(&c.ok, 1)
			default:
				atomic.AddInt32(&c.missed, 1)
			}
		}()
	}
	wg.Wait()
	return c
}

func report(w io.Writer, n int, c counts, elapsed time.Duration) {
	fmt.Fprintf(w, "launched=%d ok=%d busy=%d err=%d no-resident=%d elapsed=%s\n", n, c.ok, c.busy, c.err, c.missed, elapsed)
}
