// Package filemanager validates and reads the dataset and dependency files
// the normalizer consumes.
package filemanager

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

// User-facing messages reported for invalid paths.
const (
	MsgDirectoryNotExist = "Directory does not exist"
	MsgFileNotExist      = "File does not exist"
	MsgFileNotOpened     = "File did not open"
	MsgReadDirectory     = "Cannot read a directory as a file"
)

// ValidateDirectory fails unless path names an existing directory.
func ValidateDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return pathError(err, MsgDirectoryNotExist, path)
	}
	if !info.IsDir() {
		return pathError(fs.ErrNotExist, MsgDirectoryNotExist, path)
	}
	return nil
}

// ValidateFile fails unless path names an existing regular file.
func ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return pathError(err, MsgFileNotExist, path)
	}
	if info.IsDir() {
		return pathError(fs.ErrInvalid, MsgReadDirectory, path)
	}
	if !info.Mode().IsRegular() {
		return pathError(fs.ErrNotExist, MsgFileNotExist, path)
	}
	return nil
}

// Read returns the whole content of the file at path.
func Read(path string) (string, error) {
	if err := ValidateFile(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", pathError(err, MsgFileNotOpened, path)
	}
	return string(data), nil
}

// List returns the regular files directly inside dir whose extension matches
// ext (case-insensitive), sorted by name. An empty ext lists every file.
func List(dir, ext string) ([]string, error) {
	if err := ValidateDirectory(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pathError(err, MsgFileNotOpened, dir)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func pathError(cause error, message, path string) error {
	return errors.WrapError(cause, errors.CategoryFileSystem, message).
		WithContext("path", path).
		UserAction().
		Build()
}
