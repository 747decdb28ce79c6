package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.dat")

	require.NoError(t, WriteFileAtomic(path, []byte(`{}`), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"loss":""}`), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"loss":""}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "run.dat"), []byte(`{}`), 0o644)
	assert.True(t, errors.IsIOFailure(err))
}

func TestIsTempName(t *testing.T) {
	assert.True(t, IsTempName("._temp.dat.0b1c.tmp"))
	assert.False(t, IsTempName("_temp.dat"))
	assert.False(t, IsTempName(".tmp"))
}
