package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"crop-to-ai/src/capture"
)

// Selector defines a synchronous region-selection API owned by the event loop.
// Returns (region, cancelled, error). If cancelled is true, region is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context) (capture.Request, bool, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context) (capture.Request, bool, error)

func (f SelectorFunc) Select(ctx context.Context) (capture.Request, bool, error) { return f(ctx) }

// CommandSelector runs an external region picker (slop, or any tool printing
// "x y width height") and parses its output. The picker reports physical
// pixels, so the scale factor is always 1.
type CommandSelector struct {
	Args []string
	run  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewSelector returns a selector for a shell-style command line.
func NewSelector(commandLine string) (*CommandSelector, error) {
	args, err := splitCommand(commandLine)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New("empty selector command")
	}
	return &CommandSelector{Args: args, run: runCommand}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		log.Debug().Str("stderr", strings.TrimSpace(stderr.String())).Msg("Selector: command stderr")
	}
	return out, err
}

func (s *CommandSelector) Select(ctx context.Context) (capture.Request, bool, error) {
	out, err := s.run(ctx, s.Args[0], s.Args[1:]...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return capture.Request{}, false, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		// Pickers exit non-zero without output when the user presses Escape.
		if errors.As(err, &exitErr) && len(bytes.TrimSpace(out)) == 0 {
			log.Info().Int("exitCode", exitErr.ExitCode()).Msg("Selector: selection cancelled")
			return capture.Request{}, true, nil
		}
		return capture.Request{}, false, fmt.Errorf("selector command failed: %w", err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return capture.Request{}, true, nil
	}
	req, err := ParseRegion(string(out))
	if err != nil {
		return capture.Request{}, false, err
	}
	log.Info().Int("x", req.X).Int("y", req.Y).Int("width", req.Width).Int("height", req.Height).Msg("Selector: region selected")
	return req, false, nil
}

// ParseRegion reads "x y width height" from the first line of picker output.
func ParseRegion(out string) (capture.Request, error) {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(out), "\n", 2)[0])
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return capture.Request{}, fmt.Errorf("unexpected selector output %q", line)
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return capture.Request{}, fmt.Errorf("unexpected selector output %q: %w", line, err)
		}
		v[i] = n
	}
	return capture.Request{X: v[0], Y: v[1], Width: v[2], Height: v[3], ScaleFactor: 1}, nil
}

// splitCommand splits a command line on spaces, honoring single and double quotes.
func splitCommand(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		started bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			started = true
		case r == ' ' || r == '\t':
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}
