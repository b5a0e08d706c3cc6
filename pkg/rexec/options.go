package rexec

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"remrun/pkg/sshx"
)

// Options contains the configuration shared by runners and the Executor.
type Options struct {
	Logger  *zerolog.Logger
	Proxy   *sshx.Config
	Timeout time.Duration

	// Stdout and Stderr receive the echoed output of the user command.
	Stdout io.Writer
	Stderr io.Writer

	// DryRun composes every operation and then skips its execution.
	DryRun bool

	// IgnoreTransferErrors demotes terminal transfer failures to
	// success. Debugging aid only; the user command is never affected.
	IgnoreTransferErrors bool
}

// Option applies a configuration option
// for the execution of an operation.
type Option func(options *Options) error

// Apply applies the option functions to the current set of options.
func (o *Options) Apply(options ...Option) (*Options, error) {
	for _, option := range options {
		if err := option(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// GetDefaultOptions returns the default options
// for all operations of this library.
func GetDefaultOptions() *Options {
	logger := zerolog.Nop()

	return &Options{
		Logger:  &logger,
		Timeout: time.Second * 5,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// WithLogger allows to use a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(options *Options) error {
		options.Logger = logger
		return nil
	}
}

// WithProxy configures an SSH bastion host.
func WithProxy(proxy *sshx.Config) Option {
	return func(options *Options) error {
		options.Proxy = proxy
		return nil
	}
}

// WithTimeout allows to set a custom dial timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(options *Options) error {
		options.Timeout = timeout
		return nil
	}
}

// WithStdout redirects the echoed standard output of the user command.
func WithStdout(w io.Writer) Option {
	return func(options *Options) error {
		options.Stdout = w
		return nil
	}
}

// WithStderr redirects the echoed standard error of the user command.
func WithStderr(w io.Writer) Option {
	return func(options *Options) error {
		options.Stderr = w
		return nil
	}
}

// WithDryRun composes every operation without executing it.
func WithDryRun() Option {
	return func(options *Options) error {
		options.DryRun = true
		return nil
	}
}

// WithIgnoreTransferErrors treats failed transfers as successes.
func WithIgnoreTransferErrors() Option {
	return func(options *Options) error {
		options.IgnoreTransferErrors = true
		return nil
	}
}
