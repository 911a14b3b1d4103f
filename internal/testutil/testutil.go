package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Setup writes files into a fresh temporary directory and returns its
// canonical path, so it compares equal to symlink-resolved paths.
func Setup(tb testing.TB, files map[string]string) string {
	tb.Helper()

	root, err := filepath.EvalSymlinks(tb.TempDir())
	if err != nil {
		tb.Fatalf("resolving temp dir: %v", err)
	}

	for relPath, content := range files {
		WriteFile(tb, root, relPath, content, 0o600)
	}

	return root
}

func WriteFile(tb testing.TB, root, relPath, content string, perm os.FileMode) string {
	tb.Helper()

	fullPath := filepath.Join(root, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tb.Fatalf("creating directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), perm); err != nil {
		tb.Fatalf("writing file %s: %v", fullPath, err)
	}

	return fullPath
}

// FakeBinary writes an executable shell script standing in for an external
// CLI. It skips the test when no POSIX shell is available.
func FakeBinary(tb testing.TB, root, relPath, script string) string {
	tb.Helper()
	RequireBinary(tb, "sh")

	return WriteFile(tb, root, relPath, "#!/bin/sh\n"+script, 0o755)
}

func RequireBinary(tb testing.TB, name string) {
	tb.Helper()

	if _, err := exec.LookPath(name); err != nil {
		tb.Skipf("skipping: %s not in PATH", name)
	}
}
