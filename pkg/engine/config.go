package engine

import (
	"errors"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"remrun/pkg/pathmap"
	"remrun/pkg/sshx"
)

const (
	// Program is used to configure the name of the configuration file
	// and derived defaults.
	Program = "remrun"

	// DefaultRemoteDir is where run directories live on the target,
	// relative to the login directory.
	DefaultRemoteDir = Program
	// DefaultRemoteInput and DefaultRemoteOutput are the remote-relative
	// prefixes under the remote dir.
	DefaultRemoteInput  = "input"
	DefaultRemoteOutput = "output"
	// DefaultEnvPrefix marks ambient environment variables whose values
	// are rewritten and forwarded to the remote command.
	DefaultEnvPrefix = "REMRUN_"
)

// Config describes one remote run: the target host, the prefix pairs that
// decide which values travel, and the remote working directory.
type Config struct {
	// SSH is the connection configuration for the target host.
	SSH sshx.Config `yaml:"ssh"`

	// SSHProxy describes the SSH connection configuration for an SSH
	// proxy, often also referred to as bastion host or jumpbox.
	SSHProxy sshx.Config `yaml:"ssh-proxy"`

	// RemoteDir is the remote working directory holding the input and
	// output trees.
	RemoteDir string `yaml:"remote-dir"`

	// Input and Output pair a local path prefix with its remote
	// equivalent. An empty local prefix disables the category.
	Input  pathmap.Prefix `yaml:"input"`
	Output pathmap.Prefix `yaml:"output"`

	// EnvPrefix marks environment variables to forward to the command.
	EnvPrefix string `yaml:"env-prefix"`

	// Local executes everything on the local machine instead of a
	// remote target. Debugging aid.
	Local bool `yaml:"local"`
}

// Merge overlays the non-zero fields of the override configuration,
// letting CLI flags take precedence over the configuration file.
func (c *Config) Merge(overrides *Config) error {
	return mergo.Merge(c, *overrides, mergo.WithOverride)
}

// ApplyDefaults fills fields that are still unset after merging.
func (c *Config) ApplyDefaults() {
	if c.RemoteDir == "" {
		c.RemoteDir = DefaultRemoteDir
	}
	if c.Input.Remote == "" {
		c.Input.Remote = DefaultRemoteInput
	}
	if c.Output.Remote == "" {
		c.Output.Remote = DefaultRemoteOutput
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = DefaultEnvPrefix
	}
}

// Verify verifies the configuration. It runs before any network activity;
// the prefix pairs themselves are validated when the mapping is built.
func (c *Config) Verify() error {
	if c == nil {
		return errors.New("configuration empty")
	}

	if !c.Local && c.SSH.Host == "" {
		return errors.New("no target host specified")
	}

	return nil
}

// LoadConfig sets up the configuration parser and loads
// the configuration file.
func LoadConfig(configFile string) (*Config, error) {
	configBytes, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	// Parse YAML config into struct.
	config := new(Config)
	if err := yaml.Unmarshal(configBytes, config); err != nil {
		return nil, err
	}

	return config, nil
}
