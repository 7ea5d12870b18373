package ui

import (
	"fmt"

	"github.com/bamsammich/xcp/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 3  size 12.0 KiB  time 0s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.FilesFailed > 0 || snap.FilesVerifyFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  files %s  size %s  time %s",
		icon,
		FormatCount(snap.FilesCopied),
		FormatBytes(snap.BytesCopied),
		FormatDuration(snap.Elapsed),
	)

	if snap.FilesVerified > 0 || snap.FilesVerifyFailed > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.FilesVerified))
	}

	base += fmt.Sprintf("  errors %d", snap.FilesFailed+snap.FilesVerifyFailed)

	return base
}

// VerifySummary builds the summary line of a standalone verification pass.
func VerifySummary(verified, failed int64) string {
	icon := "✓"
	if failed > 0 {
		icon = "✗"
	}
	return fmt.Sprintf("verify %s  ok %s  mismatched %s",
		icon, FormatCount(verified), FormatCount(failed))
}
