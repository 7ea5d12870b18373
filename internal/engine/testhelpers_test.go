package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates path with data and sets mode exactly, bypassing the umask.
func writeFile(t *testing.T, path string, data []byte, mode fs.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o600))
	require.NoError(t, os.Chmod(path, mode))
}

// createTestDir populates root with a mix of entries:
//
//	run.sh      0755 regular
//	tool        0700 regular
//	notes.txt   0644 regular
//	sub/        directory (with an executable inside)
//	link.sh     symlink to an executable outside root
func createTestDir(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	writeFile(t, filepath.Join(root, "run.sh"), []byte("#!/bin/sh\necho run\n"), 0o755)
	writeFile(t, filepath.Join(root, "tool"), []byte("\x7fELF fake binary"), 0o700)
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("not executable"), 0o644)
	writeFile(t, filepath.Join(root, "sub", "nested.sh"), []byte("#!/bin/sh\n"), 0o755)

	outside := filepath.Join(t.TempDir(), "outside.sh")
	writeFile(t, outside, []byte("#!/bin/sh\necho outside\n"), 0o755)
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link.sh")))
}

// listNames returns the sorted entry names of dir.
func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func requireSameFile(t *testing.T, src, dst string, perm fs.FileMode) {
	t.Helper()
	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, want, got, "content of %s", dst)

	info, err := os.Lstat(dst)
	require.NoError(t, err)
	require.True(t, info.Mode().IsRegular(), "%s is not a regular file", dst)
	require.Equal(t, perm, info.Mode().Perm(), "permission of %s", dst)
}
