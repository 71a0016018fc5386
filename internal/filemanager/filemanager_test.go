package filemanager

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

func requireMessage(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryFileSystem, classified.Category())
	require.Equal(t, message, classified.Message())
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ValidateDirectory(dir))

	err := ValidateDirectory(filepath.Join(dir, "missing"))
	requireMessage(t, err, MsgDirectoryNotExist)
	require.True(t, stderrors.Is(err, fs.ErrNotExist))

	file := filepath.Join(dir, "plain.sql")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	requireMessage(t, ValidateDirectory(file), MsgDirectoryNotExist)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "students.sql")
	require.NoError(t, os.WriteFile(file, []byte("CREATE"), 0o600))

	require.NoError(t, ValidateFile(file))
	requireMessage(t, ValidateFile(dir), MsgReadDirectory)

	err := ValidateFile(filepath.Join(dir, "nope.sql"))
	requireMessage(t, err, MsgFileNotExist)
	require.True(t, stderrors.Is(err, fs.ErrNotExist))

	path, ok := mustClassified(t, err).Context().GetString("path")
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "nope.sql"), path)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "deps.txt")
	require.NoError(t, os.WriteFile(file, []byte("a -> b\n"), 0o600))

	content, err := Read(file)
	require.NoError(t, err)
	require.Equal(t, "a -> b\n", content)

	_, err = Read(dir)
	requireMessage(t, err, MsgReadDirectory)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.sql", "a.SQL", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sql"), 0o750))

	files, err := List(dir, ".sql")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.SQL"), filepath.Join(dir, "b.sql")}, files)

	all, err := List(dir, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = List(filepath.Join(dir, "missing"), ".sql")
	requireMessage(t, err, MsgDirectoryNotExist)
}

func mustClassified(t *testing.T, err error) *errors.ClassifiedError {
	t.Helper()
	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	return classified
}
