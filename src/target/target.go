package target

import (
	"strings"
	"time"
)

const (
	DefaultConfirmDelay = 500 * time.Millisecond
	DefaultTimeout      = 10 * time.Second
)

// Rule matches a window title when every word appears in it.
type Rule []string

// Service describes one supported AI chat destination.
type Service struct {
	Name        string
	URLFragment string
	Rules       []Rule
	// ConfirmDelay is how long a freshly focused page gets before the paste.
	ConfirmDelay time.Duration
	Timeout      time.Duration
}

// Services is checked in order; the first URL fragment found in the target URL wins.
var Services = []Service{
	{
		Name:        "Gemini",
		URLFragment: "gemini.google.com",
		Rules:       []Rule{{"gemini"}, {"google ai"}},
	},
	{
		Name:        "ChatGPT",
		URLFragment: "chatgpt.com",
		Rules:       []Rule{{"chatgpt"}},
	},
	{
		Name:        "Claude",
		URLFragment: "claude.ai",
		Rules:       []Rule{{"claude"}},
	},
	{
		Name:        "Grok",
		URLFragment: "grok.com",
		Rules:       []Rule{{"grok"}},
	},
	{
		Name:        "DeepSeek",
		URLFragment: "deepseek.com",
		Rules:       []Rule{{"deepseek"}},
	},
	{
		Name:         "AI Studio",
		URLFragment:  "aistudio.google.com",
		Rules:        []Rule{{"ai studio"}, {"aistudio"}, {"makersuite"}, {"prompt", "google"}},
		ConfirmDelay: 1500 * time.Millisecond,
	},
}

// Lookup returns the service whose URL fragment appears in targetURL.
func Lookup(targetURL string) (Service, bool) {
	u := strings.ToLower(targetURL)
	for _, s := range Services {
		if strings.Contains(u, s.URLFragment) {
			return s.withDefaults(), true
		}
	}
	return Service{}, false
}

// Classify reports whether a window title belongs to the service behind targetURL.
// Unknown targets never match.
func Classify(title, targetURL string) bool {
	s, ok := Lookup(targetURL)
	if !ok {
		return false
	}
	return s.Matches(title)
}

// Matches reports whether any of the service's rules is satisfied by title.
func (s Service) Matches(title string) bool {
	t := strings.ToLower(title)
	for _, rule := range s.Rules {
		if rule.matches(t) {
			return true
		}
	}
	return false
}

func (r Rule) matches(lowerTitle string) bool {
	if len(r) == 0 {
		return false
	}
	for _, word := range r {
		if !strings.Contains(lowerTitle, word) {
			return false
		}
	}
	return true
}

func (s Service) withDefaults() Service {
	if s.ConfirmDelay <= 0 {
		s.ConfirmDelay = DefaultConfirmDelay
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	return s
}

// Tunables returns confirm delay and timeout for targetURL, falling back to defaults
// for URLs no service recognizes.
func Tunables(targetURL string) (confirmDelay, timeout time.Duration) {
	if s, ok := Lookup(targetURL); ok {
		return s.ConfirmDelay, s.Timeout
	}
	return DefaultConfirmDelay, DefaultTimeout
}
