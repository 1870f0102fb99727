package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestPath(t *testing.T) {
	tests := map[string]string{
		"save":            "save.zip",
		"save.png":        "save.zip",
		"out/dir.v2/save": "out/dir.v2/save.zip",
		"a.b.c":           "a.b.zip",
	}
	for in, want := range tests {
		assert.Equal(t, want, Path(in), in)
	}
}

func TestBundle(t *testing.T) {
	dir := t.TempDir()
	files := []string{filepath.Join(dir, "save1.png"), filepath.Join(dir, "save2.png")}
	for i, f := range files {
		require.NoError(t, os.WriteFile(f, []byte{byte(i), 1, 2, 3}, 0o644))
	}

	archivePath := filepath.Join(dir, "save.zip")
	require.NoError(t, Bundle(files, archivePath, quietLogger()))

	for _, f := range files {
		assert.NoFileExists(t, f)
	}

	r, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 2)
	assert.Equal(t, "save1.png", r.File[0].Name)
	assert.Equal(t, "save2.png", r.File[1].Name)

	rc, err := r.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 2, 3}, data)
}

func TestBundleKeepsOriginalsOnFailure(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "save1.png")
	require.NoError(t, os.WriteFile(present, []byte("data"), 0o644))
	missing := filepath.Join(dir, "save2.png")

	archivePath := filepath.Join(dir, "save.zip")
	err := Bundle([]string{present, missing}, archivePath, quietLogger())
	require.ErrorIs(t, err, ErrArchive)

	assert.FileExists(t, present)
	assert.NoFileExists(t, archivePath)
}

func TestBundleUnwritableArchive(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "save1.png")
	require.NoError(t, os.WriteFile(present, []byte("data"), 0o644))

	err := Bundle([]string{present}, filepath.Join(dir, "missing", "save.zip"), quietLogger())
	require.ErrorIs(t, err, ErrArchive)
	assert.FileExists(t, present)
}
