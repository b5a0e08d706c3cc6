// Package pathmap decides which command-line arguments and environment
// values denote local paths that must travel between machines, and computes
// their remote-side replacements. Classification is pure string-prefix
// matching against two configured prefix pairs; the PathSet is the only
// mutable state during a rewriting pass.
package pathmap

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
)

// Prefix pairs a local filesystem prefix with its remote-relative
// equivalent. An empty local prefix disables the category entirely.
type Prefix struct {
	Local  string `yaml:"local"`
	Remote string `yaml:"remote"`
}

// Mapping is the immutable classification configuration for one run.
type Mapping struct {
	// RemoteDir is the remote working directory under which the input
	// and output trees live.
	RemoteDir string

	// Input and Output are the configured prefix pairs. The input
	// prefix is always tried first; a value is never classified as both.
	Input  Prefix
	Output Prefix

	// exists reports whether a local path currently exists. Queried per
	// classification, not cached.
	exists func(string) bool
}

// NewMapping normalizes the prefix configuration and validates it. It fails
// before any network activity when a remote prefix would traverse above the
// remote dir or when the remote dir is the filesystem root.
func NewMapping(remoteDir string, input, output Prefix) (*Mapping, error) {
	if path.Clean(remoteDir) == "/" {
		return nil, errors.New("remote dir must not be the filesystem root")
	}

	m := &Mapping{
		RemoteDir: strings.TrimSuffix(remoteDir, "/"),
		Input:     normalizePrefix(input),
		Output:    normalizePrefix(output),
		exists:    fileExists,
	}

	for _, p := range []Prefix{m.Input, m.Output} {
		if p.Remote != "" && strings.HasPrefix(path.Clean(p.Remote), "..") {
			return nil, fmt.Errorf("remote prefix %q must not traverse above the remote dir", p.Remote)
		}
	}

	return m, nil
}

// InputRoot returns the remote directory that uploaded inputs live in.
func (m *Mapping) InputRoot() string {
	return path.Join(m.RemoteDir, m.Input.Remote)
}

// OutputRoot returns the remote directory that produced outputs live in.
func (m *Mapping) OutputRoot() string {
	return path.Join(m.RemoteDir, m.Output.Remote)
}

// normalizePrefix strips trailing path separators so that prefix matching
// and remainder slicing behave uniformly.
func normalizePrefix(p Prefix) Prefix {
	p.Local = strings.TrimSuffix(p.Local, "/")
	p.Remote = strings.TrimSuffix(p.Remote, "/")
	return p
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
