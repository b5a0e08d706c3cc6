package pathmap

// Rewriter applies the mapping across argument vectors and environment
// values. Both rewrites feed the same PathSet so a path appearing both as
// an argument and via an environment variable is deduplicated naturally.
type Rewriter struct {
	Mapping *Mapping
	Set     *PathSet
}

// Args rewrites an argument vector, preserving order and length.
func (r *Rewriter) Args(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = r.Mapping.Classify(arg, r.Set)
	}
	return out
}

// Env rewrites the values of an environment mapping, preserving keys.
func (r *Rewriter) Env(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = r.Mapping.Classify(v, r.Set)
	}
	return out
}
