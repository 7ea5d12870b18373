package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		want string
		kind Kind
	}{
		{"DestinationCreateFailed", DestinationCreateFailed},
		{"SourceOpenFailed", SourceOpenFailed},
		{"EntryStatFailed", EntryStatFailed},
		{"DestinationFileOpenFailed", DestinationFileOpenFailed},
		{"SourceFileOpenFailed", SourceFileOpenFailed},
		{"IoCopyFailed", IoCopyFailed},
		{"VerifyFailed", VerifyFailed},
		{"Unknown", Kind(0)},
		{"Unknown", Kind(99)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestCopyError(t *testing.T) {
	err := newCopyError(SourceFileOpenFailed, "/src/run.sh", fs.ErrPermission)

	assert.Equal(t, "open source file /src/run.sh: permission denied", err.Error())
	assert.ErrorIs(t, err, SourceFileOpenFailed)
	assert.NotErrorIs(t, err, SourceOpenFailed)
	assert.ErrorIs(t, err, fs.ErrPermission)

	wrapped := fmt.Errorf("pass: %w", err)
	assert.Equal(t, SourceFileOpenFailed, KindOf(wrapped))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestCopyError_OpOverride(t *testing.T) {
	err := &CopyError{Kind: SourceOpenFailed, Op: "read source directory", Path: "/src", Err: fs.ErrClosed}
	assert.Equal(t, "read source directory /src: file already closed", err.Error())
}

func TestErrorTally(t *testing.T) {
	var tally errorTally
	assert.NoError(t, tally.err())

	first := newCopyError(IoCopyFailed, "/dst/a", errors.New("short write"))
	tally.add(first)
	assert.Same(t, first, tally.err())

	tally.add(newCopyError(IoCopyFailed, "/dst/b", errors.New("short write")))
	tally.add(newCopyError(IoCopyFailed, "/dst/c", errors.New("short write")))

	err := tally.err()
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, IoCopyFailed)
	assert.Equal(t, "copy /dst/a: short write (and 2 more errors)", err.Error())
}
