// Package dblock serializes test packages that share one Postgres database.
// The lock is a loopback TCP port: cheap, cross-process, and released
// automatically if the holding process dies.
package dblock

import (
	"net"
	"time"
)

const lockAddr = "127.0.0.1:45433"

// Acquire blocks until the shared database lock is free and returns its
// release func.
func Acquire() func() {
	for {
		ln, err := net.Listen("tcp", lockAddr)
		if err == nil {
			return func() { ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}
