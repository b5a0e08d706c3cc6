package rexec

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	shellFn      func(attempt int, cmd *Cmd) (int, error)
	uploadErrs   []error
	downloadErrs []error

	shellCalls    []*Cmd
	uploadCalls   int
	downloadCalls int
	connects      int
	disconnects   int
}

func (f *fakeRunner) Connect() error {
	f.connects++
	return nil
}

func (f *fakeRunner) Disconnect() error {
	f.disconnects++
	return nil
}

func (f *fakeRunner) Shell(cmd *Cmd) (int, error) {
	f.shellCalls = append(f.shellCalls, cmd)
	if f.shellFn != nil {
		return f.shellFn(len(f.shellCalls), cmd)
	}
	return 0, nil
}

func (f *fakeRunner) Upload(localRoot string, paths []string, remoteRoot string) error {
	f.uploadCalls++
	if len(f.uploadErrs) > 0 {
		err := f.uploadErrs[0]
		f.uploadErrs = f.uploadErrs[1:]
		return err
	}
	return nil
}

func (f *fakeRunner) Download(remoteRoot string, paths []string, localRoot string) error {
	f.downloadCalls++
	if len(f.downloadErrs) > 0 {
		err := f.downloadErrs[0]
		f.downloadErrs = f.downloadErrs[1:]
		return err
	}
	return nil
}

func newTestExecutor(t *testing.T, runner Runner, options ...Option) (*Executor, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	options = append([]Option{WithStdout(stdout), WithStderr(stderr)}, options...)
	e, err := NewExecutor(runner, options...)
	require.NoError(t, err)

	return e, stdout, stderr
}

func TestRunRetriesTransientExactlyThreeTimes(t *testing.T) {
	runner := &fakeRunner{
		shellFn: func(attempt int, cmd *Cmd) (int, error) {
			fmt.Fprintln(cmd.Stderr, "kex_exchange_identification: Connection reset by peer")
			return 255, nil
		},
	}
	e, _, _ := newTestExecutor(t, runner)

	err := e.Run(&Cmd{Command: []string{"tool"}})

	require.Error(t, err)
	assert.Equal(t, 255, ExitCode(err))
	assert.Len(t, runner.shellCalls, MaxAttempts)
	// Each discarded attempt drops the connection so the next one redials.
	assert.Equal(t, MaxAttempts-1, runner.disconnects)
}

func TestRunSingleAttemptOnTerminalFailure(t *testing.T) {
	runner := &fakeRunner{
		shellFn: func(attempt int, cmd *Cmd) (int, error) {
			fmt.Fprintln(cmd.Stderr, "tool: fatal error in stage 2")
			return 2, nil
		},
	}
	e, _, stderr := newTestExecutor(t, runner)

	err := e.Run(&Cmd{Command: []string{"tool"}})

	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
	assert.Len(t, runner.shellCalls, 1)
	assert.Contains(t, stderr.String(), "fatal error in stage 2")
}

func TestRunEchoesOutputOnSuccess(t *testing.T) {
	runner := &fakeRunner{
		shellFn: func(attempt int, cmd *Cmd) (int, error) {
			fmt.Fprintln(cmd.Stdout, "done")
			fmt.Fprintln(cmd.Stderr, "warning: whatever")
			return 0, nil
		},
	}
	e, stdout, stderr := newTestExecutor(t, runner)

	require.NoError(t, e.Run(&Cmd{Command: []string{"tool"}}))
	assert.Contains(t, stdout.String(), "done")
	assert.Contains(t, stderr.String(), "warning: whatever")
}

func TestRunSuppressesStderrOfDiscardedAttempts(t *testing.T) {
	runner := &fakeRunner{
		shellFn: func(attempt int, cmd *Cmd) (int, error) {
			if attempt == 1 {
				fmt.Fprintln(cmd.Stderr, "ssh_exchange_identification: corrupted banner")
				return 255, nil
			}
			fmt.Fprintln(cmd.Stdout, "done")
			return 0, nil
		},
	}
	e, stdout, stderr := newTestExecutor(t, runner)

	require.NoError(t, e.Run(&Cmd{Command: []string{"tool"}}))

	// A retried run must not look like a failure.
	assert.NotContains(t, stderr.String(), "corrupted banner")
	assert.Contains(t, stdout.String(), "done")
	assert.Len(t, runner.shellCalls, 2)
}

func TestRunTreatsConnectionErrorAsTransient(t *testing.T) {
	runner := &fakeRunner{
		shellFn: func(attempt int, cmd *Cmd) (int, error) {
			if attempt == 1 {
				return 0, errors.New("ssh: handshake failed: EOF")
			}
			return 0, nil
		},
	}
	e, _, _ := newTestExecutor(t, runner)

	require.NoError(t, e.Run(&Cmd{Command: []string{"tool"}}))
	assert.Len(t, runner.shellCalls, 2)
}

func TestDryRunExecutesNothing(t *testing.T) {
	runner := &fakeRunner{}
	e, _, _ := newTestExecutor(t, runner, WithDryRun())

	require.NoError(t, e.Run(&Cmd{Command: []string{"tool"}}))
	require.NoError(t, e.Upload("/local/in", []string{"a"}, "rr/input"))
	require.NoError(t, e.Download("rr/output", []string{"b"}, "/local/out"))
	require.NoError(t, e.MkdirAll([]string{"rr/output"}))
	require.NoError(t, e.RemoveAll("rr/output"))

	assert.Zero(t, runner.connects)
	assert.Empty(t, runner.shellCalls)
	assert.Zero(t, runner.uploadCalls)
	assert.Zero(t, runner.downloadCalls)
}

func TestUploadRetriesTransientThenSucceeds(t *testing.T) {
	runner := &fakeRunner{
		uploadErrs: []error{
			errors.New("read tcp: connection reset by peer"),
			errors.New("connection closed by remote host"),
		},
	}
	e, _, _ := newTestExecutor(t, runner)

	require.NoError(t, e.Upload("/local/in", []string{"a"}, "rr/input"))
	assert.Equal(t, 3, runner.uploadCalls)
}

func TestUploadExhaustsRetries(t *testing.T) {
	transient := errors.New("connection reset by peer")
	runner := &fakeRunner{uploadErrs: []error{transient, transient, transient}}
	e, _, _ := newTestExecutor(t, runner)

	err := e.Upload("/local/in", []string{"a"}, "rr/input")

	require.Error(t, err)
	assert.Equal(t, 3, runner.uploadCalls)
	assert.Equal(t, 1, ExitCode(err))
}

func TestUploadTerminalFailureIsNotRetried(t *testing.T) {
	runner := &fakeRunner{uploadErrs: []error{errors.New("permission denied")}}
	e, _, _ := newTestExecutor(t, runner)

	err := e.Upload("/local/in", []string{"a"}, "rr/input")

	require.Error(t, err)
	assert.Equal(t, 1, runner.uploadCalls)
}

func TestIgnoreTransferErrorsDemotesTransferFailures(t *testing.T) {
	runner := &fakeRunner{
		uploadErrs: []error{errors.New("permission denied")},
		shellFn: func(attempt int, cmd *Cmd) (int, error) {
			if cmd.Command[0] == "rm" {
				return 1, nil
			}
			return 3, nil
		},
	}
	e, _, _ := newTestExecutor(t, runner, WithIgnoreTransferErrors())

	// Transfer-side failures become no-ops...
	assert.NoError(t, e.Upload("/local/in", []string{"a"}, "rr/input"))
	assert.NoError(t, e.RemoveAll("rr/output"))

	// ...but the user command is never demoted.
	err := e.Run(&Cmd{Command: []string{"tool"}})
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))
}

func TestShellStepsComposeExpectedCommands(t *testing.T) {
	runner := &fakeRunner{}
	e, _, _ := newTestExecutor(t, runner)

	require.NoError(t, e.RemoveAll("rr/output"))
	require.NoError(t, e.MkdirAll([]string{"rr/output", "rr/output/sub"}))

	require.Len(t, runner.shellCalls, 2)
	assert.Equal(t, []string{"rm", "-rf", "rr/output"}, runner.shellCalls[0].Command)
	assert.Equal(t, []string{"mkdir", "-p", "rr/output", "rr/output/sub"}, runner.shellCalls[1].Command)
}

func TestExitCodeFallsBackToOne(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 7, ExitCode(&ExitError{Op: "tool", Code: 7}))
}
