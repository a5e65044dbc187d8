package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nvr-ai/go-imageopt/images"
)

// IsImageFile reports whether path has an extension the pipeline handles.
func IsImageFile(path string) bool {
	_, ok := images.ParseFormat(filepath.Ext(path))
	return ok
}

// FindImageFiles lists the image files under dir.
//
// Arguments:
// - dir: Directory to search. A path to a single file is returned as is.
// - recursive: Whether to descend into subdirectories.
//
// Returns:
// - []string: Sorted paths of the image files found.
// - error: Error if the directory cannot be read.
func FindImageFiles(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsImageFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
