package singleinstance

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"time"
)

// pingTimeout bounds one PING exchange; the caller's context can shorten it.
const pingTimeout = 300 * time.Millisecond

// DetectResidentPort scans the port range and returns (port, true) for the first
// port answering PONG. The whole scan stops once ctx is done.
func DetectResidentPort(ctx context.Context) (int, bool) {
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(ctx, net.JoinHostPort(residentHost, strconv.Itoa(port))) {
			return port, true
		}
	}
	return 0, false
}

// ping reports whether a resident answers at addr within pingTimeout and the
// deadline of ctx, whichever comes first.
func ping(ctx context.Context, addr string) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if _, err := conn.Write([]byte(pingRequest)); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
