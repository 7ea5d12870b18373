package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"syscall"
)

const defaultBatchSize = 128

// ScannerConfig controls scanner behavior.
type ScannerConfig struct {
	SrcRoot   string
	BatchSize int // directory entries read per getdents call
}

// Entry is one directory entry with its lstat metadata.
type Entry struct {
	Info fs.FileInfo
	Name string
	Path string
}

// Scanner reads the entries of one source directory, lazily and only once.
// It never descends into subdirectories.
type Scanner struct {
	dir *os.File
	cfg ScannerConfig
}

// OpenScanner opens the source directory. The caller must Close the scanner.
func OpenScanner(cfg ScannerConfig) (*Scanner, error) {
	if cfg.SrcRoot == "" {
		return nil, newCopyError(SourceOpenFailed, cfg.SrcRoot, ErrEmptyPath)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	dir, err := os.Open(cfg.SrcRoot)
	if err != nil {
		return nil, newCopyError(SourceOpenFailed, cfg.SrcRoot, err)
	}

	info, err := dir.Stat()
	if err != nil {
		dir.Close()
		return nil, newCopyError(SourceOpenFailed, cfg.SrcRoot, err)
	}
	if !info.IsDir() {
		dir.Close()
		return nil, newCopyError(SourceOpenFailed, cfg.SrcRoot, syscall.ENOTDIR)
	}

	return &Scanner{dir: dir, cfg: cfg}, nil
}

// Entries yields every entry of the directory. Each entry is lstat'ed by its
// full path; a stat failure is yielded as an EntryStatFailed error with the
// entry's name set. Iteration stops early when ctx is done or the consumer
// breaks. The sequence is not restartable.
func (s *Scanner) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, err)
				return
			}

			batch, err := s.dir.ReadDir(s.cfg.BatchSize)
			for _, de := range batch {
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield(Entry{}, ctxErr)
					return
				}
				if !yield(s.stat(de)) {
					return
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Entry{}, &CopyError{
					Kind: SourceOpenFailed,
					Op:   "read source directory",
					Path: s.cfg.SrcRoot,
					Err:  err,
				})
				return
			}
		}
	}
}

func (s *Scanner) stat(de fs.DirEntry) (Entry, error) {
	entry := Entry{
		Name: de.Name(),
		Path: filepath.Join(s.cfg.SrcRoot, de.Name()),
	}
	// DirEntry.Info is lstat-based for entries read from an *os.File.
	info, err := de.Info()
	if err != nil {
		return entry, newCopyError(EntryStatFailed, entry.Path, err)
	}
	entry.Info = info
	return entry, nil
}

// Close releases the directory handle. It is safe to call more than once.
func (s *Scanner) Close() error {
	if s.dir == nil {
		return nil
	}
	err := s.dir.Close()
	s.dir = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", s.cfg.SrcRoot, err)
	}
	return nil
}
