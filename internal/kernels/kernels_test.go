package kernels

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVecAddSource(t *testing.T) {
	assert.Contains(t, VecAddSource, "__kernel void "+VecAddEntry+"(")
	assert.Contains(t, VecAddSource, "ARRAY_TYPE")
	assert.Contains(t, VecAddSource, "if (i < n)")
}

func TestMaterialize(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "opencl")

	path, err := Materialize(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, VecAddFile), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, VecAddSource, string(got))

	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))
	_, err = Materialize(dir)
	require.NoError(t, err)
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, st.ModTime().Equal(old), "unchanged source must not be rewritten")

	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	_, err = Materialize(dir)
	require.NoError(t, err)
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, VecAddSource, string(got))
}
