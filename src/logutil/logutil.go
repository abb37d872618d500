package logutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName = "crop_to_ai_debug.log"
	maxSizeMB   = 10
	maxArchives = 3
)

// Options controls where the global logger writes.
type Options struct {
	EnableFileLogging bool
	// Console mirrors log lines to stderr in human-readable form.
	Console bool
	Level   string
	// Dir holds the log file; empty means the working directory.
	Dir string
}

// Setup configures the global zerolog logger. With neither file nor console output
// enabled, logs are discarded to keep stdout clean.
func Setup(opts Options) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLevel(opts.Level))

	var writers []io.Writer
	if opts.EnableFileLogging {
		writers = append(writers, &lumberjack.Logger{
			Filename:   FilePath(opts.Dir),
			MaxSize:    maxSizeMB,
			MaxBackups: maxArchives,
		})
	}
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
}

// FilePath returns the log file location for dir.
func FilePath(dir string) string {
	return filepath.Join(dir, logFileName)
}

// ParseLevel maps a config string to a zerolog level, defaulting to debug.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.DebugLevel
	}
	return lvl
}

// SanitizeForLog truncates text and escapes control characters so window titles
// and user strings cannot forge log lines.
func SanitizeForLog(text string) string {
	const maxLogLength = 100
	if len(text) > maxLogLength {
		cut := maxLogLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}

	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			b.WriteString("\\n")
		case r == '\t':
			b.WriteString("\\t")
		case r < 32 || r == 127:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Region formats a rectangle for log lines.
func Region(x, y, w, h int) string {
	return fmt.Sprintf("%dx%d+%d+%d", w, h, x, y)
}
