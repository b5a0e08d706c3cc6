package rexec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Cmd describes an already-rewritten command to be executed on the target.
type Cmd struct {
	// Command is the argument vector, paths already remapped.
	Command []string
	// Env holds environment overrides applied around the command.
	Env map[string]string

	Stdout io.Writer
	Stderr io.Writer
}

// String compiles the single shell line executed on the target. Environment
// overrides are applied through env(1) so they reach the command regardless
// of the remote login shell. Keys are emitted in sorted order so the
// composed line is deterministic.
func (c *Cmd) String() string {
	cmd := shellquote.Join(c.Command...)

	if len(c.Env) > 0 {
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, shellquote.Join(c.Env[k])))
		}

		cmd = fmt.Sprintf("env %s %s", strings.Join(pairs, " "), cmd)
	}

	return cmd
}
