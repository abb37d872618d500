package singleinstance

import (
	"context"
)

// Server owns the loopback endpoint of the resident process.
type Server interface {
	// Start binds the first port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request, or the ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close stops accepting clients.
	Close() error
}

// Conn is one delegated request awaiting its reply.
type Conn interface {
	Request() Request
	// RespondSuccess sends SUCCESS followed by a human-readable message.
	RespondSuccess(text string) error
	// RespondError sends ERROR followed by a human-readable message.
	RespondError(msg string) error
	Close() error
}

// Client delegates commands to a resident server.
type Client interface {
	// Delegate scans the port range for a resident and forwards req. When no
	// resident answers it returns delegated=false and a nil error.
	Delegate(ctx context.Context, req Request) (delegated bool, text string, err error)
}

func NewServer() Server { return newTcpServer() }

func NewClient() Client { return newTcpClient() }
