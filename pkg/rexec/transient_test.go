package rexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransientMatchesKnownPatterns(t *testing.T) {
	for _, text := range []string{
		"ssh_exchange_identification: banner line contains invalid characters",
		"ssh: handshake failed: EOF",
		"some transport reported an unexplained error (code 255)",
		"kex_exchange_identification: Connection reset by peer",
		"read tcp 10.0.0.1:22: connection reset by peer",
		"Connection closed by remote host",
	} {
		assert.True(t, IsTransient(text), text)
	}
}

func TestIsTransientIsCaseInsensitive(t *testing.T) {
	assert.True(t, IsTransient("SSH_EXCHANGE_IDENTIFICATION: corrupted banner"))
}

func TestIsTransientRejectsOtherFailures(t *testing.T) {
	for _, text := range []string{
		"",
		"permission denied (publickey)",
		"no such file or directory",
		"tool: fatal error in stage 2",
	} {
		assert.False(t, IsTransient(text), text)
	}
}
