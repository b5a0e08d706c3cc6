package pathmap

import "sort"

// StringSet is an unordered set of relative path strings.
type StringSet map[string]struct{}

// Add inserts v into the set.
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Has reports whether v is a member of the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s StringSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order, suitable for a deterministic
// transfer manifest.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// PathSet accumulates the relative paths discovered while rewriting one
// command. It is written during the classification phase and read-only
// afterwards; set semantics deduplicate paths referenced by more than one
// argument or environment value.
type PathSet struct {
	// Inputs and Outputs hold directory-bearing relative paths under
	// the respective prefixes.
	Inputs  StringSet
	Outputs StringSet

	// NodirInputs and NodirOutputs hold bare filenames whose remainder
	// after the prefix carried no path separator.
	NodirInputs  StringSet
	NodirOutputs StringSet

	// ExistingOutputs and ExistingNodirOutputs are the subsets of the
	// output sets that already exist on the local filesystem at
	// classification time and must be uploaded before the remote run.
	ExistingOutputs      StringSet
	ExistingNodirOutputs StringSet
}

// NewPathSet returns an empty accumulator.
func NewPathSet() *PathSet {
	return &PathSet{
		Inputs:               StringSet{},
		Outputs:              StringSet{},
		NodirInputs:          StringSet{},
		NodirOutputs:         StringSet{},
		ExistingOutputs:      StringSet{},
		ExistingNodirOutputs: StringSet{},
	}
}
