package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a copy failure. A Kind is itself an error so callers can
// test for it with errors.Is(err, engine.SourceOpenFailed).
type Kind int

const (
	DestinationCreateFailed Kind = iota + 1
	SourceOpenFailed
	EntryStatFailed
	DestinationFileOpenFailed
	SourceFileOpenFailed
	IoCopyFailed
	VerifyFailed
)

var kindNames = [...]string{
	DestinationCreateFailed:   "DestinationCreateFailed",
	SourceOpenFailed:          "SourceOpenFailed",
	EntryStatFailed:           "EntryStatFailed",
	DestinationFileOpenFailed: "DestinationFileOpenFailed",
	SourceFileOpenFailed:      "SourceFileOpenFailed",
	IoCopyFailed:              "IoCopyFailed",
	VerifyFailed:              "VerifyFailed",
}

// kindOps names the operation that failed, for messages.
var kindOps = [...]string{
	DestinationCreateFailed:   "create destination directory",
	SourceOpenFailed:          "open source directory",
	EntryStatFailed:           "lstat",
	DestinationFileOpenFailed: "open destination file",
	SourceFileOpenFailed:      "open source file",
	IoCopyFailed:              "copy",
	VerifyFailed:              "verify",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

func (k Kind) Error() string { return k.String() }

func (k Kind) op() string {
	if k > 0 && int(k) < len(kindOps) {
		return kindOps[k]
	}
	return "unknown operation"
}

// ErrEmptyPath is the cause when a required path argument is empty.
var ErrEmptyPath = errors.New("empty path")

// ErrSameDirectory is the cause when the destination resolves to the source
// directory itself.
var ErrSameDirectory = errors.New("destination is the source directory")

// ErrSameFile is the cause when a destination path already names the source
// file, for example through a hard link.
var ErrSameFile = errors.New("destination is the source file")

// ErrChecksumMismatch is the cause of a VerifyFailed error when both files
// were readable but their digests differ.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrModeMismatch is the cause of a VerifyFailed error when the contents
// match but the permission bits differ.
var ErrModeMismatch = errors.New("mode mismatch")

// CopyError is a failure of one operation on one path.
type CopyError struct {
	Err  error
	Op   string // overrides the Kind's default operation name
	Path string
	Kind Kind
}

func (e *CopyError) Error() string {
	op := e.Op
	if op == "" {
		op = e.Kind.op()
	}
	return fmt.Sprintf("%s %s: %v", op, e.Path, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// Is reports whether target is this error's Kind.
func (e *CopyError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of the first CopyError in err's chain, or 0.
func KindOf(err error) Kind {
	var ce *CopyError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func newCopyError(kind Kind, path string, err error) *CopyError {
	return &CopyError{Kind: kind, Path: path, Err: err}
}

// errorTally keeps the first error of a pass and counts the rest.
type errorTally struct {
	first error
	count int
}

func (t *errorTally) add(err error) {
	if t.first == nil {
		t.first = err
	}
	t.count++
}

func (t *errorTally) err() error {
	if t.count > 1 {
		return fmt.Errorf("%w (and %d more errors)", t.first, t.count-1)
	}
	return t.first
}
