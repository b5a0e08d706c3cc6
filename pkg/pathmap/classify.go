package pathmap

import (
	"path"
	"strings"
)

// Classify decides whether value denotes a path under the input or output
// prefix and returns its remote-side replacement, recording the discovered
// relative path into set. Values matching neither prefix are returned
// unchanged with no side effect, which also makes classification of an
// already-rewritten remote value a no-op.
func (m *Mapping) Classify(value string, set *PathSet) string {
	if remote, ok := m.match(value, m.Input, set.Inputs, set.NodirInputs, nil, nil); ok {
		return remote
	}
	if remote, ok := m.match(value, m.Output, set.Outputs, set.NodirOutputs, set.ExistingOutputs, set.ExistingNodirOutputs); ok {
		return remote
	}
	return value
}

// match applies one prefix pair. Existence tracking is only active for the
// output prefix, where existing and existingBare are non-nil.
func (m *Mapping) match(value string, p Prefix, dir, bare, existing, existingBare StringSet) (string, bool) {
	if p.Local == "" || !strings.HasPrefix(value, p.Local) {
		return "", false
	}

	rest := value[len(p.Local):]
	if strings.HasPrefix(rest, "/") {
		rel := strings.TrimPrefix(rest, "/")
		dir.Add(rel)
		if existing != nil && m.exists(value) {
			existing.Add(rel)
		}
		return path.Join(m.RemoteDir, p.Remote, rel), true
	}

	// Bare suffix: the value is a filename variant of the prefix's last
	// path component, e.g. prefix /local/foo matching /local/foo.txt.
	name := path.Base(p.Local) + rest
	bare.Add(name)
	if existingBare != nil && m.exists(value) {
		existingBare.Add(name)
	}
	return path.Join(m.RemoteDir, p.Remote, name), true
}
