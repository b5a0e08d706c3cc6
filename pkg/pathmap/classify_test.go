package pathmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMapping(t *testing.T, exists bool) *Mapping {
	t.Helper()

	m, err := NewMapping("rr",
		Prefix{Local: "/local/in", Remote: "input"},
		Prefix{Local: "/local/out", Remote: "output"},
	)
	require.NoError(t, err)

	m.exists = func(string) bool { return exists }
	return m
}

func TestClassifyOpaqueValuesUnchanged(t *testing.T) {
	m := testMapping(t, false)
	set := NewPathSet()

	for _, value := range []string{
		"",
		"--flag",
		"/other/path/file.txt",
		"rr/input/data.txt",
		"local/in/data.txt",
	} {
		assert.Equal(t, value, m.Classify(value, set))
	}

	assert.Zero(t, set.Inputs.Len())
	assert.Zero(t, set.NodirInputs.Len())
	assert.Zero(t, set.Outputs.Len())
	assert.Zero(t, set.NodirOutputs.Len())
}

func TestClassifyInputWithSubdir(t *testing.T) {
	m := testMapping(t, false)
	set := NewPathSet()

	remote := m.Classify("/local/in/a/b.txt", set)

	assert.Equal(t, "rr/input/a/b.txt", remote)
	assert.True(t, set.Inputs.Has("a/b.txt"))
	assert.Zero(t, set.NodirInputs.Len())

	// A path referenced by several arguments is recorded exactly once.
	m.Classify("/local/in/a/b.txt", set)
	assert.Equal(t, 1, set.Inputs.Len())
}

func TestClassifyBareSuffix(t *testing.T) {
	m, err := NewMapping("rr",
		Prefix{Local: "/local/foo", Remote: "input"},
		Prefix{},
	)
	require.NoError(t, err)
	m.exists = func(string) bool { return false }

	set := NewPathSet()
	remote := m.Classify("/local/foo.txt", set)

	assert.Equal(t, "rr/input/foo.txt", remote)
	assert.True(t, set.NodirInputs.Has("foo.txt"))
	assert.Zero(t, set.Inputs.Len(), "bare matches must never populate the directory-bearing set")
}

func TestClassifyOutputRecordsExisting(t *testing.T) {
	m := testMapping(t, true)
	set := NewPathSet()

	remote := m.Classify("/local/out/result.txt", set)

	assert.Equal(t, "rr/output/result.txt", remote)
	assert.True(t, set.Outputs.Has("result.txt"))
	assert.True(t, set.ExistingOutputs.Has("result.txt"))
}

func TestClassifyOutputMissingLocally(t *testing.T) {
	m := testMapping(t, false)
	set := NewPathSet()

	m.Classify("/local/out/result.txt", set)

	assert.True(t, set.Outputs.Has("result.txt"))
	assert.Zero(t, set.ExistingOutputs.Len())
}

func TestClassifyBareOutputExisting(t *testing.T) {
	m := testMapping(t, true)
	set := NewPathSet()

	remote := m.Classify("/local/out.log", set)

	assert.Equal(t, "rr/output/out.log", remote)
	assert.True(t, set.NodirOutputs.Has("out.log"))
	assert.True(t, set.ExistingNodirOutputs.Has("out.log"))
}

func TestClassifyIsIdempotent(t *testing.T) {
	m := testMapping(t, false)
	set := NewPathSet()

	remote := m.Classify("/local/in/data.txt", set)
	again := m.Classify(remote, NewPathSet())

	assert.Equal(t, remote, again)
}

func TestClassifyInputWinsOverOutput(t *testing.T) {
	// With identical local prefixes the input category matches first;
	// a value is never classified as both.
	m, err := NewMapping("rr",
		Prefix{Local: "/local/dir", Remote: "input"},
		Prefix{Local: "/local/dir", Remote: "output"},
	)
	require.NoError(t, err)
	m.exists = func(string) bool { return true }

	set := NewPathSet()
	remote := m.Classify("/local/dir/f.txt", set)

	assert.Equal(t, "rr/input/f.txt", remote)
	assert.True(t, set.Inputs.Has("f.txt"))
	assert.Zero(t, set.Outputs.Len())
}

func TestClassifyEmptyPrefixDisablesCategory(t *testing.T) {
	m, err := NewMapping("rr", Prefix{}, Prefix{})
	require.NoError(t, err)

	set := NewPathSet()
	assert.Equal(t, "/local/in/data.txt", m.Classify("/local/in/data.txt", set))
	assert.Zero(t, set.Inputs.Len())
}

func TestNewMappingNormalizesTrailingSeparators(t *testing.T) {
	m, err := NewMapping("rr/",
		Prefix{Local: "/local/in/", Remote: "input/"},
		Prefix{Local: "/local/out/", Remote: "output/"},
	)
	require.NoError(t, err)

	assert.Equal(t, "rr", m.RemoteDir)
	assert.Equal(t, "/local/in", m.Input.Local)
	assert.Equal(t, "input", m.Input.Remote)
}

func TestNewMappingRejectsTraversal(t *testing.T) {
	_, err := NewMapping("rr",
		Prefix{Local: "/local/in", Remote: "../evil"},
		Prefix{},
	)
	assert.Error(t, err)
}

func TestNewMappingRejectsRootRemoteDir(t *testing.T) {
	_, err := NewMapping("/", Prefix{}, Prefix{})
	assert.Error(t, err)
}

func TestRoots(t *testing.T) {
	m := testMapping(t, false)

	assert.Equal(t, "rr/input", m.InputRoot())
	assert.Equal(t, "rr/output", m.OutputRoot())
}
