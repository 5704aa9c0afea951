package artwork

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"hocgassets/internal/fileutil"
	"hocgassets/internal/model"
)

// Sweep lists what Collect removed, or would remove on a dry run.
type Sweep struct {
	Files []string
	Dirs  []string
}

// Referenced returns the image paths recorded for lang, relative to its image
// directory.
func Referenced(db model.Database, lang model.Language) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, card := range db {
		for _, illust := range card.Illustrations {
			if img := illust.ImgPath.Value(lang); img != "" {
				refs[filepath.Clean(filepath.FromSlash(img))] = struct{}{}
			}
		}
	}
	return refs
}

// Collect deletes files under imagesDir that no illustration references for
// lang, then prunes empty directories. .git directories are left alone.
func Collect(db model.Database, lang model.Language, imagesDir string, dryRun bool) (Sweep, error) {
	refs := Referenced(db, lang)
	var sweep Sweep
	err := filepath.WalkDir(imagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(imagesDir, path)
		if err != nil {
			return err
		}
		if _, ok := refs[rel]; ok {
			return nil
		}
		sweep.Files = append(sweep.Files, path)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return Sweep{}, nil
		}
		return Sweep{}, fmt.Errorf("scan %s: %w", imagesDir, err)
	}
	slices.Sort(sweep.Files)
	if dryRun {
		return sweep, nil
	}
	for _, file := range sweep.Files {
		if err := os.Remove(file); err != nil {
			return sweep, fmt.Errorf("remove %s: %w", file, err)
		}
	}
	dirs, err := fileutil.RemoveEmptyDirs(imagesDir, ".git")
	sweep.Dirs = dirs
	if err != nil {
		return sweep, fmt.Errorf("prune %s: %w", imagesDir, err)
	}
	return sweep, nil
}
