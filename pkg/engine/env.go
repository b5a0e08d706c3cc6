package engine

import (
	"os"
	"strings"
)

// HarvestEnv collects the ambient environment variables carrying the given
// prefix, strips the prefix, and returns the resulting override mapping for
// the remote command. An empty prefix harvests nothing.
func HarvestEnv(prefix string) map[string]string {
	env := map[string]string{}
	if prefix == "" {
		return env
	}

	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}

		k, v, ok := strings.Cut(strings.TrimPrefix(kv, prefix), "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}

	return env
}
