package offline

import (
	"context"
	"errors"
	"net"
	"strings"

	"fieldquote/quotesync/internal/domain/session"
)

var (
	// ErrNoSession is re-exported so callers of this package need one import.
	ErrNoSession = session.ErrNoSession
	// ErrDraftNotFound is returned when a local id does not resolve.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrQuoteNotFound is returned when a server id does not resolve.
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrOffline wraps transport failures where the remote store could not
	// be reached at all.
	ErrOffline = errors.New("offline")
)

var offlineMarkers = []string{
	"network",
	"fetch failed",
	"failed to fetch",
	"connection",
	"offline",
	"timed out",
	"timeout",
}

// IsLikelyOffline classifies err as a connectivity failure: a net.Error or
// deadline in the chain, or any known marker in the message.
func IsLikelyOffline(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOffline) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range offlineMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
