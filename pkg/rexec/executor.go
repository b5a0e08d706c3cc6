package rexec

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// MaxAttempts bounds how often an operation is retried after a transient
// connection failure. Only the attempt count is bounded; a hang inside a
// single attempt is limited solely by the transport's dial timeout.
const MaxAttempts = 3

// ExitError carries a terminal non-zero exit status to the caller so the
// process can exit code-for-code with the step that failed.
type ExitError struct {
	Op   string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Op, e.Code)
}

// ExitCode extracts the process exit code from an error. Failures that did
// not originate in a remote or child process map to 1; connection-layer
// failures carry 255 following the ssh(1) convention.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return 1
}

// connectionExitCode is reported when an attempt failed before the target
// could produce an exit status, mirroring what ssh(1) exits with.
const connectionExitCode = 255

// Executor drives a Runner with the shared retry policy. The user command
// and all transfer-side operations (cleanup, mkdir, upload, download) go
// through the same three-attempt transient retry; they differ only in how
// terminal failures are treated.
type Executor struct {
	*Options
	Runner Runner
}

// NewExecutor creates a new Executor for the given runner.
func NewExecutor(runner Runner, options ...Option) (*Executor, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	return &Executor{
		Options: opts,
		Runner:  runner,
	}, nil
}

// Run executes the user command. A non-zero exit is terminal and surfaces
// as an ExitError; only the transport around the command is retried, never
// the command's own logic. The ignore-transfer-errors escape hatch does not
// apply here.
func (e *Executor) Run(cmd *Cmd) error {
	if e.DryRun {
		e.Logger.Info().Str("cmd", cmd.String()).Msg("Dry run: skipping command")
		return nil
	}

	return e.shell(cmd)
}

// RemoveAll deletes a directory tree on the target. Used to clean the
// remote output area so results of a previous run never leak into this one.
func (e *Executor) RemoveAll(dir string) error {
	return e.transferShell(&Cmd{Command: []string{"rm", "-rf", dir}})
}

// MkdirAll creates the given directories on the target, recursively and
// idempotently.
func (e *Executor) MkdirAll(dirs []string) error {
	return e.transferShell(&Cmd{Command: append([]string{"mkdir", "-p"}, dirs...)})
}

// Upload copies the manifest of relative paths from localRoot to remoteRoot
// in one bulk operation.
func (e *Executor) Upload(localRoot string, paths []string, remoteRoot string) error {
	if e.DryRun {
		e.Logger.Info().Int("files", len(paths)).Str("from", localRoot).Str("to", remoteRoot).Msg("Dry run: skipping upload")
		return nil
	}

	return e.demote(e.transfer("upload", func() error {
		return e.Runner.Upload(localRoot, paths, remoteRoot)
	}))
}

// Download copies the manifest of relative paths from remoteRoot into
// localRoot in one bulk operation.
func (e *Executor) Download(remoteRoot string, paths []string, localRoot string) error {
	if e.DryRun {
		e.Logger.Info().Int("files", len(paths)).Str("from", remoteRoot).Str("to", localRoot).Msg("Dry run: skipping download")
		return nil
	}

	return e.demote(e.transfer("download", func() error {
		return e.Runner.Download(remoteRoot, paths, localRoot)
	}))
}

// transferShell runs a shell step that belongs to the transfer machinery,
// so it is subject to the ignore-transfer-errors escape hatch.
func (e *Executor) transferShell(cmd *Cmd) error {
	if e.DryRun {
		e.Logger.Info().Str("cmd", cmd.String()).Msg("Dry run: skipping shell step")
		return nil
	}

	return e.demote(e.shell(cmd))
}

// shell runs one composed command line with retry. Stdout is echoed after
// every attempt completes. Stderr is echoed only when the attempt is not
// being discarded for retry: a handshake failure on a discarded attempt is
// misleading noise that would make an ultimately-successful run look like
// a failure, so it only surfaces at debug level.
func (e *Executor) shell(cmd *Cmd) error {
	op := cmd.Command[0]

	for attempt := 1; ; attempt++ {
		var stdout, stderr bytes.Buffer
		code, err := e.attemptShell(cmd, &stdout, &stderr)

		e.Stdout.Write(stdout.Bytes())

		if err == nil && code == 0 {
			e.Stderr.Write(stderr.Bytes())
			return nil
		}

		diag := stderr.String()
		if err != nil {
			diag = err.Error()
			code = connectionExitCode
		}

		if attempt >= MaxAttempts || !IsTransient(diag) {
			if err != nil {
				fmt.Fprintln(e.Stderr, diag)
			} else {
				e.Stderr.Write(stderr.Bytes())
			}
			return &ExitError{Op: op, Code: code}
		}

		e.Logger.Debug().Int("attempt", attempt).Str("stderr", strings.TrimSpace(diag)).Msg("Discarding attempt after transient failure")
		e.Runner.Disconnect()
	}
}

func (e *Executor) attemptShell(cmd *Cmd, stdout, stderr *bytes.Buffer) (int, error) {
	if err := e.Runner.Connect(); err != nil {
		return 0, err
	}

	return e.Runner.Shell(&Cmd{
		Command: cmd.Command,
		Env:     cmd.Env,
		Stdout:  stdout,
		Stderr:  stderr,
	})
}

// transfer runs one bulk-copy operation with retry.
func (e *Executor) transfer(op string, attemptOnce func() error) error {
	for attempt := 1; ; attempt++ {
		err := e.Runner.Connect()
		if err == nil {
			err = attemptOnce()
		}
		if err == nil {
			return nil
		}

		if attempt >= MaxAttempts || !IsTransient(err.Error()) {
			return fmt.Errorf("%s: %w", op, err)
		}

		e.Logger.Debug().Int("attempt", attempt).Err(err).Msg("Discarding transfer attempt after transient failure")
		e.Runner.Disconnect()
	}
}

// demote downgrades a terminal transfer failure to success when the
// debugging escape hatch is enabled. This trades correctness for the
// ability to inspect partial remote state.
func (e *Executor) demote(err error) error {
	if err != nil && e.IgnoreTransferErrors {
		e.Logger.Warn().Err(err).Msg("Ignoring transfer failure")
		return nil
	}
	return err
}
