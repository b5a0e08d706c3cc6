package ops

import (
	"github.com/rs/zerolog"

	"remrun/pkg/engine"
)

const (
	// Program is used to configure the name of the configuration file.
	Program = "remrun"
	// DefaultConfigPath is the configuration file looked for when no
	// explicit path is given. It is optional; flags alone suffice.
	DefaultConfigPath = Program + ".yml"
)

// Options contains the configuration for an operation.
type Options struct {
	ConfigPath string
	Logger     *zerolog.Logger

	// Overrides carries the configuration assembled from CLI flags,
	// overlaid onto the configuration file.
	Overrides *engine.Config

	DryRun               bool
	IgnoreTransferErrors bool

	// configPathSet distinguishes an explicit --config from the
	// optional default location.
	configPathSet bool
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
		ConfigPath: DefaultConfigPath,
		Logger:     &logger,
	}
}

// WithConfigPath overrides the default configuration path. Unlike the
// default location, an explicitly configured file must exist.
func WithConfigPath(configPath string) Option {
	return func(options *Options) error {
		options.ConfigPath = configPath
		options.configPathSet = true
		return nil
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(options *Options) error {
		options.Logger = logger
		return nil
	}
}

// WithOverrides overlays flag-derived configuration onto the file.
func WithOverrides(overrides *engine.Config) Option {
	return func(options *Options) error {
		options.Overrides = overrides
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
