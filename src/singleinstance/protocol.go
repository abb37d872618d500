package singleinstance

import (
	"fmt"
	"strconv"
	"strings"
)

// Command names a request sent to the resident.
type Command string

const (
	CommandCapture Command = "CAPTURE"
	CommandReload  Command = "RELOAD"
	CommandOpen    Command = "OPEN"
)

// Request is one line of the wire protocol:
//
//	CAPTURE <x> <y> <width> <height> <scale>
//	RELOAD
//	OPEN
type Request struct {
	Command Command
	X       int
	Y       int
	Width   int
	Height  int
	Scale   float64
}

func (r Request) Encode() string {
	if r.Command == CommandCapture {
		return fmt.Sprintf("%s %d %d %d %d %s\n", r.Command, r.X, r.Y, r.Width, r.Height,
			strconv.FormatFloat(r.Scale, 'g', -1, 64))
	}
	return string(r.Command) + "\n"
}

// ParseRequest decodes one request line, with or without its trailing newline.
func ParseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}, fmt.Errorf("empty request")
	}
	req := Request{Command: Command(strings.ToUpper(fields[0]))}
	switch req.Command {
	case CommandReload, CommandOpen:
		if len(fields) != 1 {
			return Request{}, fmt.Errorf("%s takes no arguments", req.Command)
		}
	case CommandCapture:
		if len(fields) != 6 {
			return Request{}, fmt.Errorf("CAPTURE needs x y width height scale")
		}
		ints := make([]int, 4)
		for i := range ints {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return Request{}, fmt.Errorf("invalid CAPTURE argument %q: %w", fields[i+1], err)
			}
			ints[i] = n
		}
		scale, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return Request{}, fmt.Errorf("invalid CAPTURE scale %q: %w", fields[5], err)
		}
		req.X, req.Y, req.Width, req.Height, req.Scale = ints[0], ints[1], ints[2], ints[3], scale
	default:
		return Request{}, fmt.Errorf("unknown command %q", fields[0])
	}
	return req, nil
}
