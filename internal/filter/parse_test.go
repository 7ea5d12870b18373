package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	filterFile := filepath.Join(dir, "filter.rules")

	content := `# This is a comment
+ deploy.sh
- *.sh

- build/
noprefix
`
	require.NoError(t, os.WriteFile(filterFile, []byte(content), 0o644))

	c := NewChain()
	require.NoError(t, c.LoadFile(filterFile))

	// include deploy.sh, exclude *.sh, exclude build/, exclude noprefix.
	require.Len(t, c.rules, 4)
	assert.True(t, c.rules[0].Include)
	assert.False(t, c.rules[1].Include)
	assert.False(t, c.rules[2].Include)
	assert.False(t, c.rules[3].Include)

	assert.True(t, c.Match("deploy.sh", 100))
	assert.False(t, c.Match("run.sh", 100))
	assert.True(t, c.Match("build", 100))
	assert.False(t, c.Match("noprefix", 100))
	assert.True(t, c.Match("tool", 100))
}

func TestLoadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	filterFile := filepath.Join(dir, "empty.rules")
	require.NoError(t, os.WriteFile(filterFile, []byte("# only comments\n\n"), 0o644))

	c := NewChain()
	require.NoError(t, c.LoadFile(filterFile))
	assert.Empty(t, c.rules)
}

func TestLoadFileNotExists(t *testing.T) {
	c := NewChain()
	err := c.LoadFile("/nonexistent/path")
	assert.Error(t, err)
}

func TestLoadFileBadPatternReportsLine(t *testing.T) {
	dir := t.TempDir()
	filterFile := filepath.Join(dir, "bad.rules")
	require.NoError(t, os.WriteFile(filterFile, []byte("- *.tmp\n+ sub/keep\n"), 0o644))

	c := NewChain()
	err := c.LoadFile(filterFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
