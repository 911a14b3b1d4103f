package bwtailwind

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const builtSuffix = ".built.css"

// ResolvePath returns the canonical absolute path of an existing file. The
// path is tried as given first (absolute, or relative to the working
// directory) and then relative to projectDir.
func ResolvePath(projectDir, path string) (string, error) {
	if path == "" {
		return "", errors.Mark(errors.New("empty file path"), ErrInvalidInput)
	}

	candidates := []string{path}
	if !filepath.IsAbs(path) {
		candidates = append(candidates, filepath.Join(projectDir, path))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return "", errors.Wrapf(err, "resolving %q", path)
		}
		canonical, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", errors.Wrapf(err, "resolving %q", path)
		}
		return canonical, nil
	}

	return "", errors.Mark(errors.Newf("the file %q does not exist", path), ErrInvalidInput)
}

// outputPath maps an input stylesheet to the file the binary writes for it.
// Only the base name of the input matters.
func outputPath(varDir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(varDir, strings.TrimSuffix(base, filepath.Ext(base))+builtSuffix)
}
