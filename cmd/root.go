package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"remrun/pkg/engine"
	"remrun/pkg/ops"
	"remrun/pkg/pathmap"
	"remrun/pkg/sshx"
)

var version = "dev"

var flags struct {
	configPath string

	host        string
	port        int
	user        string
	keyFile     string
	sshConfig   string
	fingerprint string

	remoteDir          string
	inputPrefix        string
	remoteInputPrefix  string
	outputPrefix       string
	remoteOutputPrefix string
	envPrefix          string

	local                bool
	dryRun               bool
	ignoreTransferErrors bool
	verbose              bool
}

var rootCmd = &cobra.Command{
	Use:   "remrun [flags] -- command [args...]",
	Short: "Run a command remotely with transparent path relocation",
	Long: `Runs a command on a remote host while relocating arguments and
environment values that refer to local paths under the configured
input and output prefixes. Inputs are uploaded before the command
runs, produced outputs are downloaded afterwards, and the remote
exit code becomes the exit code of remrun itself.

Environment variables carrying the configured prefix (REMRUN_ by
default) are forwarded to the remote command with the prefix
stripped and their values relocated like arguments.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	Version:      version,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
		if flags.verbose {
			logger = logger.Level(zerolog.DebugLevel)
		} else {
			logger = logger.Level(zerolog.InfoLevel)
		}

		overrides := &engine.Config{
			SSH: sshx.Config{
				Host:        flags.host,
				Port:        flags.port,
				User:        flags.user,
				KeyFile:     flags.keyFile,
				ConfigFile:  flags.sshConfig,
				Fingerprint: flags.fingerprint,
			},
			RemoteDir: flags.remoteDir,
			Input:     pathmap.Prefix{Local: flags.inputPrefix, Remote: flags.remoteInputPrefix},
			Output:    pathmap.Prefix{Local: flags.outputPrefix, Remote: flags.remoteOutputPrefix},
			EnvPrefix: flags.envPrefix,
			Local:     flags.local,
		}

		opts := []ops.Option{
			ops.WithLogger(&logger),
			ops.WithOverrides(overrides),
		}
		if flags.configPath != "" {
			opts = append(opts, ops.WithConfigPath(flags.configPath))
		}
		if flags.dryRun {
			opts = append(opts, ops.WithDryRun())
		}
		if flags.ignoreTransferErrors {
			opts = append(opts, ops.WithIgnoreTransferErrors())
		}

		code, err := ops.Run(args, opts...)
		if code != 0 {
			if err != nil {
				logger.Error().Err(err).Msg("Run failed")
			}
			// Scripts wrapping this tool rely on exact
			// code-for-code exit transparency.
			os.Exit(code)
		}

		return err
	},
}

func init() {
	f := rootCmd.Flags()

	f.StringVarP(&flags.configPath, "config", "c", "", "path to the configuration file")

	f.StringVarP(&flags.host, "host", "H", "", "target host or ssh_config alias")
	f.IntVarP(&flags.port, "port", "p", 0, "target SSH port")
	f.StringVarP(&flags.user, "user", "u", "", "remote user")
	f.StringVarP(&flags.keyFile, "identity", "i", "", "private key file")
	f.StringVarP(&flags.sshConfig, "ssh-config", "F", "", "ssh_config file to resolve the host with")
	f.StringVar(&flags.fingerprint, "fingerprint", "", "expected SHA256 host key fingerprint")

	f.StringVar(&flags.remoteDir, "remote-dir", "", "remote working directory (default \"remrun\")")
	f.StringVar(&flags.inputPrefix, "input-prefix", "", "local input path prefix")
	f.StringVar(&flags.remoteInputPrefix, "remote-input-prefix", "", "remote input prefix (default \"input\")")
	f.StringVar(&flags.outputPrefix, "output-prefix", "", "local output path prefix")
	f.StringVar(&flags.remoteOutputPrefix, "remote-output-prefix", "", "remote output prefix (default \"output\")")
	f.StringVar(&flags.envPrefix, "env-prefix", "", "prefix marking environment variables to forward (default \"REMRUN_\")")

	f.BoolVar(&flags.local, "local", false, "execute locally instead of on a remote host (debugging aid)")
	f.BoolVarP(&flags.dryRun, "dry-run", "n", false, "compose every operation without executing anything")
	f.BoolVar(&flags.ignoreTransferErrors, "ignore-transfer-errors", false, "treat failed transfers as successes (debugging aid)")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging, including discarded retry attempts")
}

// Execute starts the invocation of the command line interface.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
