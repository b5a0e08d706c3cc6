package rexec

import "strings"

// transientPatterns are error-stream fragments indicating a recoverable
// connection-layer glitch rather than a real failure. Matching transport
// diagnostics by text is fragile, so the list is fixed and hidden behind
// IsTransient in case the transport ever exposes a structured signal.
var transientPatterns = []string{
	"ssh_exchange_identification", // corrupted banner exchange
	"ssh: handshake failed",
	"unexplained error",           // transfer layer gave up without a cause
	"kex_exchange_identification", // connection reset during key exchange
	"connection reset by peer",
	"connection closed by remote host",
}

// IsTransient reports whether the given error text warrants discarding the
// attempt and retrying instead of aborting.
func IsTransient(text string) bool {
	text = strings.ToLower(text)
	for _, pattern := range transientPatterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}
