// Package ops wires configuration, runner selection and the engine into
// the single operation this tool performs: one synchronous remote command
// per invocation.
package ops

import (
	"os"

	"remrun/pkg/engine"
	"remrun/pkg/rexec"
)

// Run executes the given command on the configured target, relocating
// paths under the input and output prefixes. It returns the exit code the
// process should terminate with.
func Run(command []string, options ...Option) (int, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return 1, err
	}

	config, err := loadConfig(opts)
	if err != nil {
		return 1, err
	}

	if opts.Overrides != nil {
		if err := config.Merge(opts.Overrides); err != nil {
			return 1, err
		}
	}
	config.ApplyDefaults()

	runner, err := newRunner(config, opts)
	if err != nil {
		return 1, err
	}
	defer runner.Disconnect()

	executorOpts := []rexec.Option{rexec.WithLogger(opts.Logger)}
	if opts.DryRun {
		executorOpts = append(executorOpts, rexec.WithDryRun())
	}
	if opts.IgnoreTransferErrors {
		executorOpts = append(executorOpts, rexec.WithIgnoreTransferErrors())
	}

	executor, err := rexec.NewExecutor(runner, executorOpts...)
	if err != nil {
		return 1, err
	}

	eng, err := engine.New(config, executor, engine.WithLogger(opts.Logger))
	if err != nil {
		return 1, err
	}

	return eng.Run(command, engine.HarvestEnv(config.EnvPrefix))
}

// loadConfig reads the configuration file. The default location is
// optional; an explicitly requested file must exist.
func loadConfig(opts *Options) (*engine.Config, error) {
	if _, err := os.Stat(opts.ConfigPath); err != nil {
		if os.IsNotExist(err) && !opts.configPathSet {
			return new(engine.Config), nil
		}
		return nil, err
	}

	return engine.LoadConfig(opts.ConfigPath)
}

// newRunner selects the runner implementation once at startup: a real SSH
// target or the local debugging stand-in.
func newRunner(config *engine.Config, opts *Options) (rexec.Runner, error) {
	runnerOpts := []rexec.Option{rexec.WithLogger(opts.Logger)}
	if config.SSHProxy.Host != "" {
		runnerOpts = append(runnerOpts, rexec.WithProxy(&config.SSHProxy))
	}

	if config.Local {
		return rexec.NewLocal(runnerOpts...)
	}

	return rexec.NewSSH(&config.SSH, runnerOpts...)
}
