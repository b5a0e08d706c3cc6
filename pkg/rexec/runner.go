// Package rexec executes the rewritten command and the bulk file transfers
// on the target, retrying attempts that fail with known-transient
// connection errors and propagating terminal exit codes to the caller.
package rexec

// Runner abstracts the execution target. There are two implementations:
// SSH for a real remote host and Local for debugging against the local
// filesystem. Both are driven through the same Executor retry logic; only
// how a shell command is wrapped and how a copy is performed differ.
type Runner interface {
	// Connect establishes a connection to the execution environment.
	// It is a no-op if a connection already exists.
	Connect() error
	// Shell runs one composed command line and returns its exit status.
	// An error is returned only when no exit status was obtained.
	Shell(cmd *Cmd) (int, error)
	// Upload copies the files named by the relative-path manifest from
	// localRoot into remoteRoot in one bulk operation.
	Upload(localRoot string, paths []string, remoteRoot string) error
	// Download copies the files named by the relative-path manifest
	// from remoteRoot into localRoot in one bulk operation.
	Download(remoteRoot string, paths []string, localRoot string) error
	// Disconnect closes the connection to the execution environment.
	// Any subsequent operation reconnects.
	Disconnect() error
}
