package ui

import (
	"fmt"
	"io"

	"github.com/bamsammich/xcp/internal/stats"
)

// plainPresenter writes one line per copied file to w. Failures and
// mismatches go to errW; skipped entries are shown only when verbose.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   stats.Reader
	home    string
	verbose bool
	dryRun  bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case FileCompleted:
		verb := "copying"
		if p.dryRun {
			verb = "would copy"
		}
		fmt.Fprintf(p.w, "%s %s -> %s\n", verb, ev.Path, DisplayPath(p.home, ev.Dst))
	case FileFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.errW, "error: %s\n", errMsg)
	case FileSkipped:
		if p.verbose {
			fmt.Fprintf(p.w, "skip %s (%s)\n", ev.Path, ev.Reason)
		}
	case DirCreated:
		if p.verbose {
			fmt.Fprintf(p.w, "mkdir %s\n", DisplayPath(p.home, ev.Dst))
		}
	case VerifyStarted:
		fmt.Fprintln(p.w, "verifying...")
	case VerifyOK:
		if p.verbose {
			fmt.Fprintf(p.w, "ok %s\n", ev.Path)
		}
	case VerifyFailed:
		fmt.Fprintf(p.errW, "MISMATCH: %s\n", ev.Path)
		if p.verbose && ev.Error != nil {
			fmt.Fprintf(p.errW, "  %v\n", ev.Error)
		}
	}
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
