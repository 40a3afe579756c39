package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

func TestDiscoverImageFiles_EmptyArgs(t *testing.T) {
	files, err := DiscoverImageFiles(nil, false, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverImageFiles_SkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	png := touch(t, filepath.Join(dir, "a.png"))
	heic := touch(t, filepath.Join(dir, "b.HEIC"))
	touch(t, filepath.Join(dir, "notes.txt"))
	txt := touch(t, filepath.Join(dir, "explicit.txt"))

	files, err := DiscoverImageFiles([]string{dir, txt}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{png, heic}, files)
}

func TestDiscoverImageFiles_Recursive(t *testing.T) {
	dir := t.TempDir()
	root := touch(t, filepath.Join(dir, "root.jpg"))
	sub := touch(t, filepath.Join(dir, "sub", "inner.jpg"))

	files, err := DiscoverImageFiles([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root, sub}, files)

	files, err = DiscoverImageFiles([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{root}, files)
}

func TestDiscoverImageFiles_Deduplicates(t *testing.T) {
	dir := t.TempDir()
	png := touch(t, filepath.Join(dir, "a.png"))

	files, err := DiscoverImageFiles([]string{dir, png}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{png}, files)
}

func TestDiscoverImageFiles_IncludeExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	keep1 := touch(t, filepath.Join(dir, "scontrino1.png"))
	keep2 := touch(t, filepath.Join(dir, "scontrino2.png"))
	touch(t, filepath.Join(dir, "scontrino_old.png"))
	touch(t, filepath.Join(dir, "photo.png"))

	files, err := DiscoverImageFiles([]string{dir}, false, []string{"scontrino*"}, []string{"*_old*"})
	require.NoError(t, err)
	assert.Equal(t, []string{keep1, keep2}, files)
}

func TestDiscoverImageFiles_NonExistent(t *testing.T) {
	files, err := DiscoverImageFiles([]string{"/nonexistent/directory"}, false, nil, nil)
	require.Error(t, err)
	assert.Nil(t, files)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestMatchesAnyPattern(t *testing.T) {
	patterns := []string{"*.png", "special.*"}
	testCases := []struct {
		filename string
		expected bool
	}{
		{"test.png", true},
		{"/some/dir/test.png", true},
		{"special.gif", true},
		{"test.PNG", false},
		{"photo.jpg", false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, matchesAnyPattern(tc.filename, patterns), "filename=%s", tc.filename)
	}
	assert.False(t, matchesAnyPattern("test.png", nil))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.IncludePatterns = []string{"[bad"}
	assert.Error(t, cfg.Validate())
}
