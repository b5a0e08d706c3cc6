package rexec

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Local is a debug runner that executes the composed command on the local
// machine and performs transfers as plain filesystem copies, with the
// remote dir interpreted as a local path.
type Local struct {
	*Options
}

// NewLocal returns a new local debug runner.
func NewLocal(options ...Option) (*Local, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	return &Local{Options: opts}, nil
}

// Connect is a no-op as the local machine is always reachable.
func (runner *Local) Connect() error {
	return nil
}

// Disconnect is a no-op.
func (runner *Local) Disconnect() error {
	return nil
}

// Shell runs the composed command line through sh, mirroring how the SSH
// runner hands it to the remote login shell.
func (runner *Local) Shell(cmd *Cmd) (int, error) {
	proc := exec.Command("sh", "-c", cmd.String())
	proc.Stdout = cmd.Stdout
	proc.Stderr = cmd.Stderr

	if err := proc.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}

	return 0, nil
}

// Upload copies the manifest of relative paths under the simulated remote
// root.
func (runner *Local) Upload(localRoot string, paths []string, remoteRoot string) error {
	return copyAll(localRoot, paths, remoteRoot)
}

// Download copies the manifest of relative paths back out of the simulated
// remote root.
func (runner *Local) Download(remoteRoot string, paths []string, localRoot string) error {
	return copyAll(remoteRoot, paths, localRoot)
}

func copyAll(srcRoot string, paths []string, dstRoot string) error {
	for _, rel := range paths {
		if err := copyFile(filepath.Join(srcRoot, rel), filepath.Join(dstRoot, rel)); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
