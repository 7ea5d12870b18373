package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/bamsammich/xcp/internal/event"
	"github.com/bamsammich/xcp/internal/filter"
	"github.com/bamsammich/xcp/internal/stats"
)

// destDirPerm is requested for a new destination directory; the umask applies.
const destDirPerm fs.FileMode = 0o777

// Config describes a copy operation.
type Config struct {
	Src       string
	Dst       string
	Filter    *filter.Chain      // optional; narrows the selected files by name and size
	Events    chan<- event.Event // optional
	Stats     *stats.Collector   // optional; Run creates one when nil
	BWLimit   int64              // bytes per second, 0 = unlimited
	DryRun    bool
	KeepGoing bool
	Verify    bool
}

// Result is the outcome of a copy operation.
type Result struct {
	Err   error
	Stats stats.Snapshot
}

// CopyExecutables copies every regular file with the owner-execute bit set
// from srcDir into dstDir, creating dstDir if needed. It stops at the first
// error, which is a *CopyError classified by Kind.
func CopyExecutables(ctx context.Context, srcDir, dstDir string) error {
	return Run(ctx, Config{Src: srcDir, Dst: dstDir}).Err
}

// Run executes a copy operation, blocking until complete. The pass is a single
// synchronous walk over the source directory; it never descends into
// subdirectories and never changes the process working directory.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	c := &copier{cfg: cfg, stats: collector}
	if cfg.BWLimit > 0 {
		c.limiter = NewBWLimiter(cfg.BWLimit)
	}

	err := c.run(ctx)
	return Result{
		Stats: collector.Snapshot(),
		Err:   err,
	}
}

type copier struct {
	stats   stats.Writer
	limiter *rate.Limiter
	cfg     Config
}

func (c *copier) run(ctx context.Context) error {
	if c.cfg.Src == "" {
		return newCopyError(SourceOpenFailed, c.cfg.Src, ErrEmptyPath)
	}
	if c.cfg.Dst == "" {
		return newCopyError(DestinationCreateFailed, c.cfg.Dst, ErrEmptyPath)
	}

	if !c.cfg.DryRun {
		if err := c.ensureDestDir(ctx); err != nil {
			return err
		}
	}
	if err := c.checkDistinct(); err != nil {
		return err
	}

	scanner, err := OpenScanner(ScannerConfig{SrcRoot: c.cfg.Src})
	if err != nil {
		return err
	}
	defer scanner.Close()

	c.emit(ctx, event.Event{Type: event.ScanStarted, Path: c.cfg.Src})

	var (
		tally errorTally
		total int64
	)
	for entry, err := range scanner.Entries(ctx) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// A failing directory read ends the pass even in keep-going mode.
			if !errors.Is(err, EntryStatFailed) {
				return err
			}
			c.fail(ctx, entry.Name, "", err)
			if !c.cfg.KeepGoing {
				return err
			}
			tally.add(err)
			continue
		}

		total++
		c.stats.AddEntriesScanned(1)

		task, ok := c.selectEntry(ctx, entry)
		if !ok {
			continue
		}

		if err := c.copyFile(ctx, task); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.fail(ctx, task.Name, task.DstPath, err)
			if !c.cfg.KeepGoing {
				return err
			}
			tally.add(err)
		}
	}

	c.emit(ctx, event.Event{Type: event.ScanComplete, Path: c.cfg.Src, Total: total})

	if err := scanner.Close(); err != nil {
		slog.Warn("close source directory", "error", err)
	}
	return tally.err()
}

// ensureDestDir creates the destination directory. An existing directory
// (or a symlink to one) is accepted; every other failure is fatal.
func (c *copier) ensureDestDir(ctx context.Context) error {
	err := os.Mkdir(c.cfg.Dst, destDirPerm)
	if err == nil {
		c.stats.AddDirsCreated(1)
		slog.Debug("created destination directory", "dir", c.cfg.Dst)
		c.emit(ctx, event.Event{Type: event.DirCreated, Dst: c.cfg.Dst})
		return nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return newCopyError(DestinationCreateFailed, c.cfg.Dst, err)
	}

	info, statErr := os.Stat(c.cfg.Dst)
	if statErr != nil {
		return newCopyError(DestinationCreateFailed, c.cfg.Dst, statErr)
	}
	if !info.IsDir() {
		return newCopyError(DestinationCreateFailed, c.cfg.Dst,
			fmt.Errorf("exists and is not a directory: %w", syscall.ENOTDIR))
	}
	slog.Debug("destination directory already exists", "dir", c.cfg.Dst)
	return nil
}

// checkDistinct rejects a destination that resolves to the source directory,
// where truncating each destination file would destroy its source. Paths that
// cannot be stat'ed are left to the scanner (or, in a dry run, to the real
// run) to report.
func (c *copier) checkDistinct() error {
	srcInfo, err := os.Stat(c.cfg.Src)
	if err != nil {
		return nil //nolint:nilerr // reported by OpenScanner
	}
	dstInfo, err := os.Stat(c.cfg.Dst)
	if err != nil {
		return nil //nolint:nilerr // dry run against a missing destination
	}
	if os.SameFile(srcInfo, dstInfo) {
		return newCopyError(DestinationCreateFailed, c.cfg.Dst, ErrSameDirectory)
	}
	return nil
}

// selectEntry applies the owner-executable predicate and the optional filter.
func (c *copier) selectEntry(ctx context.Context, entry Entry) (FileTask, bool) {
	mode := entry.Info.Mode()
	reason := skipReason(mode)
	if reason == "" && !c.cfg.Filter.Match(entry.Name, entry.Info.Size()) {
		reason = "filtered"
	}
	if reason != "" {
		c.stats.AddFilesSkipped(1)
		slog.Debug("skip", "name", entry.Name, "reason", reason)
		c.emit(ctx, event.Event{Type: event.FileSkipped, Path: entry.Name, Reason: reason})
		return FileTask{}, false
	}

	return FileTask{
		Name:    entry.Name,
		SrcPath: entry.Path,
		DstPath: joinDst(c.cfg.Dst, entry.Name),
		Size:    entry.Info.Size(),
		Mode:    mode,
		srcInfo: entry.Info,
	}, true
}

func (c *copier) fail(ctx context.Context, name, dst string, err error) {
	c.stats.AddFilesFailed(1)
	slog.Debug("entry failed", "name", name, "error", err)
	c.emit(ctx, event.Event{Type: event.FileFailed, Path: name, Dst: dst, Error: err})
}

func (c *copier) emit(ctx context.Context, e event.Event) {
	emitEvent(ctx, c.cfg.Events, e)
}

// emitEvent delivers e unless ch is nil. It blocks until the consumer takes
// the event or ctx is done, so presenters never miss a line.
func emitEvent(ctx context.Context, ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	case <-ctx.Done():
	}
}
