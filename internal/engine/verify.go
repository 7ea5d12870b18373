package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zeebo/blake3"

	"github.com/bamsammich/xcp/internal/event"
	"github.com/bamsammich/xcp/internal/filter"
	"github.com/bamsammich/xcp/internal/stats"
)

// HashFile computes the BLAKE3 hash of the file at path, returning the hex-encoded digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyError records a single failed comparison. A hash that could not be
// computed is reported as "error".
type VerifyError struct {
	Err     error
	Name    string
	SrcHash string
	DstHash string
}

// comparePair hashes both files and compares their permission bits. It
// returns a VerifyError describing the first difference, or nil when content
// and mode match.
func comparePair(name, srcPath, dstPath string) *VerifyError {
	srcHash, err := HashFile(srcPath)
	if err != nil {
		return &VerifyError{Name: name, SrcHash: "error", DstHash: "n/a", Err: err}
	}
	dstHash, err := HashFile(dstPath)
	if err != nil {
		return &VerifyError{Name: name, SrcHash: srcHash, DstHash: "error", Err: err}
	}
	if srcHash != dstHash {
		return &VerifyError{
			Name:    name,
			SrcHash: srcHash,
			DstHash: dstHash,
			Err:     fmt.Errorf("%w: src %s dst %s", ErrChecksumMismatch, srcHash, dstHash),
		}
	}

	srcInfo, err := os.Lstat(srcPath)
	if err != nil {
		return &VerifyError{Name: name, SrcHash: srcHash, DstHash: dstHash, Err: err}
	}
	dstInfo, err := os.Lstat(dstPath)
	if err != nil {
		return &VerifyError{Name: name, SrcHash: srcHash, DstHash: dstHash, Err: err}
	}
	if sp, dp := srcInfo.Mode().Perm(), dstInfo.Mode().Perm(); sp != dp {
		return &VerifyError{
			Name:    name,
			SrcHash: srcHash,
			DstHash: dstHash,
			Err:     fmt.Errorf("%w: src %v dst %v", ErrModeMismatch, sp, dp),
		}
	}
	return nil
}

// verifyTask checks a file right after it was copied.
func (c *copier) verifyTask(ctx context.Context, task FileTask) error {
	if ve := comparePair(task.Name, task.SrcPath, task.DstPath); ve != nil {
		c.stats.AddFilesVerifyFailed(1)
		c.emit(ctx, event.Event{Type: event.VerifyFailed, Path: task.Name, Dst: task.DstPath, Error: ve.Err})
		return newCopyError(VerifyFailed, task.DstPath, ve.Err)
	}
	c.stats.AddFilesVerified(1)
	c.emit(ctx, event.Event{Type: event.VerifyOK, Path: task.Name, Dst: task.DstPath})
	return nil
}

// VerifyConfig controls a standalone verification pass.
type VerifyConfig struct {
	Filter  *filter.Chain
	Events  chan<- event.Event
	Stats   stats.Writer
	SrcRoot string
	DstRoot string
}

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Err      error // fatal error that ended the pass early
	Errors   []VerifyError
	Verified int64
	Failed   int64
}

// Verify compares every file a copy from SrcRoot would select against its
// counterpart in DstRoot by BLAKE3 digest and permission bits. A missing or
// unreadable counterpart counts as a failure. The pass is sequential.
func Verify(ctx context.Context, cfg VerifyConfig) VerifyResult {
	var result VerifyResult
	emitEvent(ctx, cfg.Events, event.Event{Type: event.VerifyStarted, Path: cfg.SrcRoot, Dst: cfg.DstRoot})

	scanner, err := OpenScanner(ScannerConfig{SrcRoot: cfg.SrcRoot})
	if err != nil {
		result.Err = err
		return result
	}
	defer scanner.Close()

	for entry, err := range scanner.Entries(ctx) {
		if err != nil {
			if errors.Is(err, EntryStatFailed) {
				slog.Warn("verify: skipping entry", "name", entry.Name, "error", err)
				continue
			}
			result.Err = err
			return result
		}
		if !IsOwnerExecutable(entry.Info.Mode()) || !cfg.Filter.Match(entry.Name, entry.Info.Size()) {
			continue
		}

		dstPath := joinDst(cfg.DstRoot, entry.Name)
		if ve := comparePair(entry.Name, entry.Path, dstPath); ve != nil {
			result.Failed++
			result.Errors = append(result.Errors, *ve)
			if cfg.Stats != nil {
				cfg.Stats.AddFilesVerifyFailed(1)
			}
			emitEvent(ctx, cfg.Events, event.Event{
				Type:  event.VerifyFailed,
				Path:  entry.Name,
				Dst:   dstPath,
				Error: ve.Err,
			})
			continue
		}

		result.Verified++
		if cfg.Stats != nil {
			cfg.Stats.AddFilesVerified(1)
		}
		emitEvent(ctx, cfg.Events, event.Event{Type: event.VerifyOK, Path: entry.Name, Dst: dstPath})
	}

	return result
}
