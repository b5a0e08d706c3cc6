package rexec

import (
	"remrun/pkg/sshx"
)

// SSH is a runner that executes commands on a remote host via SSH and
// performs transfers over SFTP.
type SSH struct {
	*Options
	Target *sshx.Config

	proxy  *sshx.Client
	client *sshx.Client
}

// NewSSH returns a new SSH-based runner. The connection is established
// lazily on first use so that the retry logic can redial after a transient
// failure was discarded.
func NewSSH(target *sshx.Config, options ...Option) (*SSH, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	return &SSH{
		Options: opts,
		Target:  target,
	}, nil
}

// Connect establishes the SSH connection if necessary, dialing the bastion
// host first when one is configured.
func (runner *SSH) Connect() error {
	if runner.client != nil {
		return nil
	}

	if runner.Proxy != nil && runner.proxy == nil {
		proxy, err := sshx.NewClient(runner.Proxy,
			sshx.WithLogger(runner.Logger),
			sshx.WithTimeout(runner.Timeout),
		)
		if err != nil {
			return err
		}
		runner.proxy = proxy
	}

	client, err := sshx.NewClient(runner.Target,
		sshx.WithLogger(runner.Logger),
		sshx.WithTimeout(runner.Timeout),
		sshx.WithProxy(runner.proxy),
	)
	if err != nil {
		return err
	}
	runner.client = client

	return nil
}

// Shell runs the composed command line on the remote host.
func (runner *SSH) Shell(cmd *Cmd) (int, error) {
	return runner.client.Exec(cmd.String(), cmd.Stdout, cmd.Stderr)
}

// Upload copies the manifest of relative paths to the remote host.
func (runner *SSH) Upload(localRoot string, paths []string, remoteRoot string) error {
	return runner.client.Upload(localRoot, paths, remoteRoot)
}

// Download copies the manifest of relative paths from the remote host.
func (runner *SSH) Download(remoteRoot string, paths []string, localRoot string) error {
	return runner.client.Download(remoteRoot, paths, localRoot)
}

// Disconnect closes the SSH connections in reverse order to how they were
// opened.
func (runner *SSH) Disconnect() error {
	if runner.client != nil {
		if err := runner.client.Close(); err != nil {
			return err
		}
		runner.client = nil
	}

	if runner.proxy != nil {
		if err := runner.proxy.Close(); err != nil {
			return err
		}
		runner.proxy = nil
	}

	return nil
}
