package export

import (
	"archive/zip"
	"fmt"
	"os"
	"sort"
)

// WriteZip archives the generated files to destPath. Entries are written in
// sorted path order so the same project always produces the same layout.
func WriteZip(destPath string, files map[string]string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to export")
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	w := zip.NewWriter(f)

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		entry, err := w.Create(path)
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to create entry %s: %w", path, err)
		}
		if _, err := entry.Write([]byte(files[path])); err != nil {
			f.Close()
			return fmt.Errorf("failed to write entry %s: %w", path, err)
		}
	}

	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return f.Close()
}

// WriteDir lays the generated files out as a plain directory tree.
func WriteDir(destDir string, files map[string]string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to export")
	}
	return writeFiles(destDir, files)
}
