package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 50
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddEntriesScanned(1)
				c.AddFilesCopied(1)
				c.AddFilesSkipped(1)
				c.AddFilesFailed(1)
				c.AddBytesCopied(256)
				c.AddDirsCreated(1)
				c.AddFilesVerified(1)
				c.AddFilesVerifyFailed(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.EntriesScanned)
	assert.Equal(t, expected, s.FilesCopied)
	assert.Equal(t, expected, s.FilesSkipped)
	assert.Equal(t, expected, s.FilesFailed)
	assert.Equal(t, expected*256, s.BytesCopied)
	assert.Equal(t, expected, s.DirsCreated)
	assert.Equal(t, expected, s.FilesVerified)
	assert.Equal(t, expected, s.FilesVerifyFailed)
}

func TestCollectorSatisfiesInterfaces(t *testing.T) {
	var _ Writer = NewCollector()
	var _ Reader = NewCollector()
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		EntriesScanned: 10,
		FilesCopied:    3,
		FilesSkipped:   6,
		FilesFailed:    1,
		BytesCopied:    4096,
		DirsCreated:    1,
		FilesVerified:  3,
	}
	expected := "scanned=10 copied=3 skipped=6 failed=1 bytes=4096 dirs=1 verified=3"
	assert.Equal(t, expected, s.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		expected string
		input    int64
	}{
		{"0 B", 0},
		{"512 B", 512},
		{"1.0 KiB", 1024},
		{"1.5 KiB", 1536},
		{"1.0 MiB", 1048576},
		{"1.0 GiB", 1073741824},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.startTime.IsZero())
	assert.InDelta(t, 0, c.Elapsed().Seconds(), 1)
}

func TestSnapshotIncludesElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	s := c.Snapshot()
	assert.Greater(t, s.Elapsed, time.Duration(0))
}
