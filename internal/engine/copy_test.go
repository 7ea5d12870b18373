package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/xcp/internal/stats"
)

func newTestCopier(cfg Config) *copier {
	c := &copier{cfg: cfg, stats: stats.NewCollector()}
	if cfg.BWLimit > 0 {
		c.limiter = NewBWLimiter(cfg.BWLimit)
	}
	return c
}

func newTestTask(t *testing.T, dir string, data []byte) FileTask {
	t.Helper()
	srcPath := filepath.Join(dir, "src.sh")
	writeFile(t, srcPath, data, 0o755)
	return FileTask{
		Name:    "src.sh",
		SrcPath: srcPath,
		DstPath: filepath.Join(dir, "dst.sh"),
		Size:    int64(len(data)),
		Mode:    0o755,
	}
}

func TestCopyFile_InterruptedTransferIsIoCopyFailed(t *testing.T) {
	dir := t.TempDir()
	task := newTestTask(t, dir, make([]byte, 64*1024))
	c := newTestCopier(Config{Src: dir, Dst: dir, BWLimit: 1024})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.copyFile(ctx, task)
	require.Error(t, err)
	assert.ErrorIs(t, err, IoCopyFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, IoCopyFailed, KindOf(err))
	assert.Contains(t, err.Error(), task.DstPath)

	// The destination was created before the copy failed.
	_, statErr := os.Stat(task.DstPath)
	assert.NoError(t, statErr)
}

func TestTransfer_WriteFailure(t *testing.T) {
	for _, bwlimit := range []int64{0, 1 << 20} {
		name := "direct"
		if bwlimit > 0 {
			name = "rate limited"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			data := []byte("#!/bin/sh\necho hi\n")
			task := newTestTask(t, dir, data)
			writeFile(t, task.DstPath, nil, 0o644)

			src, err := os.Open(task.SrcPath)
			require.NoError(t, err)
			defer src.Close()

			// Writes to a descriptor opened read-only fail with EBADF.
			dst, err := os.Open(task.DstPath)
			require.NoError(t, err)
			defer dst.Close()

			c := newTestCopier(Config{BWLimit: bwlimit})
			_, err = c.transfer(context.Background(), src, dst, task.Size)
			require.Error(t, err)

			got, readErr := os.ReadFile(task.DstPath)
			require.NoError(t, readErr)
			assert.Empty(t, got)
		})
	}
}

func TestCopyFile_RecordsStats(t *testing.T) {
	dir := t.TempDir()
	data := []byte("#!/bin/sh\necho stats\n")
	task := newTestTask(t, dir, data)
	collector := stats.NewCollector()
	c := &copier{cfg: Config{Src: dir, Dst: dir}, stats: collector}

	require.NoError(t, c.copyFile(context.Background(), task))
	requireSameFile(t, task.SrcPath, task.DstPath, 0o755)

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.FilesCopied)
	assert.Equal(t, int64(len(data)), snap.BytesCopied)
}
