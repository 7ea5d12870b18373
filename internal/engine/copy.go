package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bamsammich/xcp/internal/event"
	"github.com/bamsammich/xcp/internal/platform"
)

// joinDst builds the destination path for an entry with exactly one
// separator between the directory and the name, whatever the caller's
// trailing slashes.
func joinDst(dstDir, name string) string {
	return filepath.Join(dstDir, name)
}

// copyFile copies one selected entry. The destination is created (or
// truncated) before the source is opened, matching the order in which
// failures are reported.
func (c *copier) copyFile(ctx context.Context, task FileTask) error {
	c.emit(ctx, event.Event{Type: event.FileStarted, Path: task.Name, Dst: task.DstPath, Size: task.Size})

	if c.cfg.DryRun {
		slog.Debug("would copy", "name", task.Name, "dst", task.DstPath)
		c.stats.AddFilesCopied(1)
		c.emit(ctx, event.Event{Type: event.FileCompleted, Path: task.Name, Dst: task.DstPath, Size: task.Size})
		return nil
	}

	slog.Debug("copying", "name", task.Name, "dst", task.DstPath, "mode", task.Perm())

	if task.srcInfo != nil {
		if info, err := os.Stat(task.DstPath); err == nil && os.SameFile(task.srcInfo, info) {
			return newCopyError(DestinationFileOpenFailed, task.DstPath, ErrSameFile)
		}
	}

	dst, err := openDst(task.DstPath, task.Perm())
	if err != nil {
		return newCopyError(DestinationFileOpenFailed, task.DstPath, err)
	}
	dstClosed := false
	defer func() {
		if !dstClosed {
			dst.Close()
		}
	}()

	// The open mode is filtered by the umask and ignored for an existing
	// file, so the permission is applied explicitly.
	if err := dst.Chmod(task.Perm()); err != nil {
		return newCopyError(DestinationFileOpenFailed, task.DstPath, err)
	}

	src, err := os.Open(task.SrcPath)
	if err != nil {
		return newCopyError(SourceFileOpenFailed, task.SrcPath, err)
	}
	defer src.Close()

	n, err := c.transfer(ctx, src, dst, task.Size)
	if err != nil {
		return newCopyError(IoCopyFailed, task.DstPath, err)
	}

	dstClosed = true
	if err := dst.Close(); err != nil {
		return newCopyError(IoCopyFailed, task.DstPath, err)
	}

	c.stats.AddFilesCopied(1)
	c.stats.AddBytesCopied(n)
	c.emit(ctx, event.Event{Type: event.FileCompleted, Path: task.Name, Dst: task.DstPath, Size: n})

	if c.cfg.Verify {
		return c.verifyTask(ctx, task)
	}
	return nil
}

// openDst opens path for writing, creating or truncating it. An existing
// regular file without owner-write, as left by an earlier copy of a read-only
// source, is made writable and reopened; the caller's chmod then restores the
// exact permission.
func openDst(path string, perm fs.FileMode) (*os.File, error) {
	const flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	f, err := os.OpenFile(path, flags, perm)
	if err == nil || !errors.Is(err, fs.ErrPermission) {
		return f, err
	}

	info, statErr := os.Lstat(path)
	if statErr != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o200 != 0 {
		return nil, err
	}
	if chErr := os.Chmod(path, info.Mode().Perm()|0o200); chErr != nil {
		return nil, err
	}
	f, retryErr := os.OpenFile(path, flags, perm)
	if retryErr != nil {
		if chErr := os.Chmod(path, info.Mode().Perm()); chErr != nil {
			slog.Warn("restore destination mode", "path", path, "error", chErr)
		}
		return nil, retryErr
	}
	slog.Debug("made destination writable", "path", path, "mode", info.Mode().Perm())
	return f, nil
}

// transfer copies the whole source into dst and returns the byte count.
// size is the lstat size; a file that grew or shrank since then is still
// copied up to EOF, and dst ends up exactly as long as what was read.
func (c *copier) transfer(ctx context.Context, src, dst *os.File, size int64) (int64, error) {
	if c.limiter != nil {
		n, err := io.Copy(newRateLimitedWriter(ctx, dst, c.limiter), src)
		if err != nil {
			return n, fmt.Errorf("write: %w", err)
		}
		return n, nil
	}

	result, err := platform.CopyFile(platform.CopyFileParams{
		SrcFd:   src,
		DstFd:   dst,
		SrcSize: size,
	})
	if err != nil {
		return result.BytesWritten, fmt.Errorf("%s: %w", result.Method, err)
	}
	n := result.BytesWritten

	// Pick up anything appended after lstat.
	if _, err := src.Seek(n, io.SeekStart); err != nil {
		return n, fmt.Errorf("seek source: %w", err)
	}
	if _, err := dst.Seek(n, io.SeekStart); err != nil {
		return n, fmt.Errorf("seek destination: %w", err)
	}
	tail, err := io.Copy(dst, src)
	n += tail
	if err != nil {
		return n, fmt.Errorf("copy tail: %w", err)
	}

	// Preallocation may have sized dst for bytes that never arrived.
	if n != size {
		if err := dst.Truncate(n); err != nil {
			return n, fmt.Errorf("truncate: %w", err)
		}
	}

	slog.Debug("copied", "dst", dst.Name(), "bytes", n, "method", result.Method)
	return n, nil
}
