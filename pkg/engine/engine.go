package engine

import (
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"remrun/pkg/pathmap"
	"remrun/pkg/rexec"
)

// Engine sequences one remote run: classify the command, clean the remote
// output area, create remote directories, upload inputs, execute, download
// outputs. Everything is sequential and blocking; the PathSet built during
// classification is the only mutable state and is read-only once the
// transfers begin.
type Engine struct {
	Logger *zerolog.Logger

	Spec    *Config
	mapping *pathmap.Mapping
	exec    *rexec.Executor
}

// transfer is one bulk copy between a local root and a remote root.
type transfer struct {
	localRoot  string
	paths      []string
	remoteRoot string
}

// New creates a new Engine for the given configuration and executor. The
// configuration is verified and the mapping validated before anything
// touches the network.
func New(config *Config, exec *rexec.Executor, options ...Option) (*Engine, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	if err := config.Verify(); err != nil {
		return nil, err
	}

	mapping, err := pathmap.NewMapping(config.RemoteDir, config.Input, config.Output)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Logger:  opts.Logger,
		Spec:    config,
		mapping: mapping,
		exec:    exec,
	}, nil
}

// Run executes the command on the target, relocating every argument and
// environment value under the configured prefixes. The returned exit code
// mirrors whichever remote or transfer step failed terminally, or 0 on
// full success.
func (e *Engine) Run(argv []string, env map[string]string) (int, error) {
	set := pathmap.NewPathSet()
	rewriter := &pathmap.Rewriter{Mapping: e.mapping, Set: set}

	remoteArgv := rewriter.Args(argv)
	remoteEnv := rewriter.Env(env)

	if err := e.prepareOutputs(set); err != nil {
		return rexec.ExitCode(err), err
	}

	if err := e.uploadInputs(set); err != nil {
		return rexec.ExitCode(err), err
	}

	cmd := &rexec.Cmd{Command: remoteArgv, Env: remoteEnv}
	e.Logger.Info().Str("cmd", cmd.String()).Msg("Running command")
	if err := e.exec.Run(cmd); err != nil {
		// No downloads are attempted after a failed command.
		return rexec.ExitCode(err), err
	}

	if err := e.downloadOutputs(set); err != nil {
		return rexec.ExitCode(err), err
	}

	return 0, nil
}

// prepareOutputs clears the remote output area so results of a previous
// run never leak into this one, then creates the directories the outputs
// will be written into.
func (e *Engine) prepareOutputs(set *pathmap.PathSet) error {
	if e.Spec.Output.Local == "" {
		return nil
	}

	outputRoot := e.mapping.OutputRoot()
	e.Logger.Debug().Str("dir", outputRoot).Msg("Cleaning remote output directory")
	if err := e.exec.RemoveAll(outputRoot); err != nil {
		return err
	}

	dirs := outputDirs(outputRoot, set)
	if len(dirs) == 0 {
		return nil
	}

	e.Logger.Debug().Strs("dirs", dirs).Msg("Creating remote directories")
	return e.exec.MkdirAll(dirs)
}

// outputDirs returns the remote directory portions implied by the union of
// the output sets, deduplicated and sorted.
func outputDirs(outputRoot string, set *pathmap.PathSet) []string {
	dirs := pathmap.StringSet{}
	for _, rel := range set.Outputs.Sorted() {
		dirs.Add(path.Join(outputRoot, path.Dir(rel)))
	}
	if set.NodirOutputs.Len() > 0 {
		dirs.Add(outputRoot)
	}
	return dirs.Sorted()
}

// uploadInputs pushes the discovered inputs and any outputs that already
// exist locally, which the remote command may read before overwriting.
// Bare names are suffixes of the prefix's last path component, so they are
// rooted at the parent directory of the prefix.
func (e *Engine) uploadInputs(set *pathmap.PathSet) error {
	inputRoot := e.mapping.InputRoot()
	outputRoot := e.mapping.OutputRoot()

	uploads := []transfer{
		{e.Spec.Input.Local, set.Inputs.Sorted(), inputRoot},
		{filepath.Dir(e.Spec.Input.Local), set.NodirInputs.Sorted(), inputRoot},
		{e.Spec.Output.Local, set.ExistingOutputs.Sorted(), outputRoot},
		{filepath.Dir(e.Spec.Output.Local), set.ExistingNodirOutputs.Sorted(), outputRoot},
	}

	for _, t := range uploads {
		if len(t.paths) == 0 {
			continue
		}
		e.Logger.Info().Int("files", len(t.paths)).Str("to", t.remoteRoot).Msg("Uploading")
		if err := e.exec.Upload(t.localRoot, t.paths, t.remoteRoot); err != nil {
			return err
		}
	}

	return nil
}

// downloadOutputs fetches the produced outputs back into the local output
// prefix.
func (e *Engine) downloadOutputs(set *pathmap.PathSet) error {
	outputRoot := e.mapping.OutputRoot()

	downloads := []transfer{
		{e.Spec.Output.Local, set.Outputs.Sorted(), outputRoot},
		{filepath.Dir(e.Spec.Output.Local), set.NodirOutputs.Sorted(), outputRoot},
	}

	for _, t := range downloads {
		if len(t.paths) == 0 {
			continue
		}
		e.Logger.Info().Int("files", len(t.paths)).Str("from", t.remoteRoot).Msg("Downloading")
		if err := e.exec.Download(t.remoteRoot, t.paths, t.localRoot); err != nil {
			return err
		}
	}

	return nil
}
