package dupfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate_CollectsAllProblems(t *testing.T) {
	err := Options{MinSize: -1, MaxDepth: -1, Workers: -1}.Validate()
	require.Error(t, err)

	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "min size")
	assert.Contains(t, err.Error(), "max depth")
	assert.Contains(t, err.Error(), "workers")
}

func TestOptionsValidate_SizeBounds(t *testing.T) {
	assert.NoError(t, Options{MinSize: 10}.Validate())
	assert.NoError(t, Options{MinSize: 10, MaxSize: 10}.Validate())
	assert.Error(t, Options{MinSize: 11, MaxSize: 10}.Validate())
}

func TestResolveWorkers(t *testing.T) {
	assert.Equal(t, 3, resolveWorkers(3))
	assert.Positive(t, resolveWorkers(0))
}

func TestExtensionFilter(t *testing.T) {
	f := newExtensionFilter([]string{".go", "'!_test.go'"})

	assert.True(t, f.allows("main.go"))
	assert.False(t, f.allows("main_test.go"))
	assert.False(t, f.allows("README.md"))

	assert.True(t, newExtensionFilter(nil).allows("anything"))
}

func TestDigestText(t *testing.T) {
	d := Digest{0xab, 0x01}

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Len(t, text, 64)
	assert.Equal(t, "ab01", string(text[:4]))

	var back Digest
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, d, back)

	assert.Error(t, back.UnmarshalText([]byte("abc")))
}
