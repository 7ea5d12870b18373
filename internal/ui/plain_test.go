package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/xcp/internal/event"
	"github.com/bamsammich/xcp/internal/stats"
)

func runPlain(t *testing.T, p *plainPresenter, evs ...Event) {
	t.Helper()
	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	require.NoError(t, p.Run(events))
}

func newPlain(verbose bool) (*plainPresenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &plainPresenter{w: &out, errW: &errOut, stats: stats.NewCollector(), verbose: verbose}, &out, &errOut
}

func TestPlainPresenterFileCompleted(t *testing.T) {
	p, out, errOut := newPlain(false)
	runPlain(t, p,
		Event{Type: event.FileCompleted, Path: "run.sh", Dst: "/dst/run.sh", Size: 1024},
		Event{Type: event.FileCompleted, Path: "tool", Dst: "/dst/tool", Size: 2048},
	)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "copying run.sh -> /dst/run.sh", lines[0])
	assert.Equal(t, "copying tool -> /dst/tool", lines[1])
	assert.Empty(t, errOut.String())
}

func TestPlainPresenterDryRun(t *testing.T) {
	p, out, _ := newPlain(false)
	p.dryRun = true
	runPlain(t, p, Event{Type: event.FileCompleted, Path: "run.sh", Dst: "/dst/run.sh"})
	assert.Equal(t, "would copy run.sh -> /dst/run.sh\n", out.String())
}

func TestPlainPresenterHomeAbbreviation(t *testing.T) {
	p, out, _ := newPlain(false)
	p.home = "/home/user"
	runPlain(t, p, Event{Type: event.FileCompleted, Path: "run.sh", Dst: "/home/user/bin/run.sh"})
	assert.Equal(t, "copying run.sh -> ~/bin/run.sh\n", out.String())
}

func TestPlainPresenterFileFailed(t *testing.T) {
	p, out, errOut := newPlain(false)
	runPlain(t, p, Event{Type: event.FileFailed, Path: "fail.sh", Error: assert.AnError})

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), assert.AnError.Error())
}

func TestPlainPresenterSkippedOnlyWhenVerbose(t *testing.T) {
	skip := Event{Type: event.FileSkipped, Path: "notes.txt", Reason: "not owner-executable"}

	p, out, _ := newPlain(false)
	runPlain(t, p, skip)
	assert.Empty(t, out.String())

	p, out, _ = newPlain(true)
	runPlain(t, p, skip)
	assert.Equal(t, "skip notes.txt (not owner-executable)\n", out.String())
}

func TestPlainPresenterVerify(t *testing.T) {
	p, out, errOut := newPlain(false)
	runPlain(t, p,
		Event{Type: event.VerifyStarted},
		Event{Type: event.VerifyOK, Path: "good.sh"},
		Event{Type: event.VerifyFailed, Path: "bad.sh", Error: assert.AnError},
	)

	assert.Equal(t, "verifying...\n", out.String())
	assert.Equal(t, "MISMATCH: bad.sh\n", errOut.String())
}

func TestPlainPresenterSummary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddFilesCopied(100)
	collector.AddBytesCopied(1024 * 1024)

	p := &plainPresenter{stats: collector}
	s := p.Summary()
	assert.Contains(t, s, "files 100")
	assert.Contains(t, s, "errors 0")
}

func TestNewPresenter(t *testing.T) {
	collector := stats.NewCollector()

	p := NewPresenter(Config{Quiet: true, Stats: collector})
	assert.IsType(t, &quietPresenter{}, p)
	assert.Empty(t, p.Summary())

	p = NewPresenter(Config{Stats: collector, HomeDir: "/home/user"})
	require.IsType(t, &plainPresenter{}, p)
	assert.Empty(t, p.(*plainPresenter).home, "home is only abbreviated on a terminal")

	p = NewPresenter(Config{Stats: collector, HomeDir: "/home/user", IsTTY: true})
	assert.Equal(t, "/home/user", p.(*plainPresenter).home)
}
