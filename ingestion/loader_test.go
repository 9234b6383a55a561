package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello world."), 0o644))

		text, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello world.", text)
	})

	t.Run("markdown with upper case extension", func(t *testing.T) {
		path := filepath.Join(dir, "README.MD")
		require.NoError(t, os.WriteFile(path, []byte("# Title\n\nBody."), 0o644))

		text, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "# Title\n\nBody.", text)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "image.png"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "missing.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid pdf", func(t *testing.T) {
		path := filepath.Join(dir, "broken.pdf")
		require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open pdf")
	})
}
