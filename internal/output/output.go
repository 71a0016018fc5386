// Package output writes normalized schemas to disk.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

const (
	resultExt = ".sql"
	dirPerm   = 0o750
	filePerm  = 0o644
)

// ResultName returns the file name for the normalized form of a dataset:
// "students" at 3NF becomes "students_3nf.sql".
func ResultName(dataset, form string) string {
	stem := strings.TrimSuffix(filepath.Base(dataset), filepath.Ext(dataset))
	return fmt.Sprintf("%s_%s%s", stem, strings.ToLower(form), resultExt)
}

// Write stores content as dir/name, creating dir when needed, and returns
// the written path.
func Write(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "could not create output directory").
			WithContext("path", dir).
			Build()
	}
	path := filepath.Join(dir, name)
	if err := WriteFile(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile replaces path atomically: readers see either the old or the new
// content, never a partial write.
func WriteFile(path, content string) error {
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(filePerm))
	if err != nil {
		return writeError(err, "create pending file", path)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := io.WriteString(pendingFile, content); err != nil {
		return writeError(err, "write pending file", path)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return writeError(err, "atomically replace file", path)
	}
	return nil
}

// Clean removes earlier results from dir. A missing directory is not an
// error.
func Clean(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, writeError(err, "read output directory", dir)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != resultExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, writeError(err, "remove previous result", path)
		}
		removed++
	}
	return removed, nil
}

func writeError(err error, message, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, message).
		WithContext("path", path).
		Build()
}
