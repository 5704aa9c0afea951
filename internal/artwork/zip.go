package artwork

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"hocgassets/internal/fileutil"
)

// Zip packs imagesDir into assetsDir/<name>.zip and returns the archive path.
// Directory entries are written explicitly since some unzip tools do not
// create parents on their own.
func Zip(name, assetsDir, imagesDir string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".zip")
	if name == "" {
		return "", fmt.Errorf("zip: archive name is required")
	}
	info, err := os.Stat(imagesDir)
	if err != nil {
		return "", fmt.Errorf("zip: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("zip: %s is not a directory", imagesDir)
	}
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return "", fmt.Errorf("zip: create assets dir: %w", err)
	}

	archivePath := filepath.Join(assetsDir, name+".zip")
	tmpPath := archivePath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("zip: create archive: %w", err)
	}
	cleanup := func() {
		_ = out.Close()
		_ = os.Remove(tmpPath)
	}

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(imagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(imagesDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		entry := filepath.ToSlash(rel)
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			_, err := zw.Create(entry + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: entry, Method: zip.Deflate})
		if err != nil {
			return err
		}
		_, err = fileutil.CopyTo(w, path)
		return err
	})
	if err != nil {
		cleanup()
		return "", fmt.Errorf("zip: add files: %w", err)
	}
	if err := zw.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("zip: finish archive: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("zip: close archive: %w", err)
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("zip: rename archive: %w", err)
	}
	return archivePath, nil
}
