package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// DiscoverImageFiles expands files and directories into a sorted,
// de-duplicated list of supported images.
func DiscoverImageFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var imageFiles []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			imageFiles = append(imageFiles, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			files, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		} else if utils.IsSupportedImage(arg) && shouldIncludeFile(arg, includePatterns, excludePatterns) {
			add(arg)
		}
	}

	sort.Strings(imageFiles)
	return imageFiles, nil
}

func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if utils.IsSupportedImage(path) && shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	return files, filepath.WalkDir(dir, walkFn)
}

// shouldIncludeFile applies exclude patterns first, then include patterns.
// An empty include list admits everything not excluded.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern matches the base name against shell globs.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
