package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/xcp/internal/engine"
	"github.com/bamsammich/xcp/internal/event"
	"github.com/bamsammich/xcp/internal/stats"
	"github.com/bamsammich/xcp/internal/ui"
)

func newVerifyCmd(g *globalOpts) *cobra.Command {
	filters := newFilterOpts()

	cmd := &cobra.Command{
		Use:   "verify [flags] <source_dir> <dest_dir>",
		Short: "Check an earlier copy against its source without writing",
		Long: `verify compares every file a copy from <source_dir> would select with its
counterpart in <dest_dir> by BLAKE3 digest and permission bits. A missing
file, different content or a different mode is a mismatch.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := filters.build()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			verifyCfg := engine.VerifyConfig{
				SrcRoot: args[0],
				DstRoot: args[1],
				Stats:   collector,
			}
			if !chain.Empty() {
				verifyCfg.Filter = chain
			}

			presenter := g.newPresenter(collector, false)
			var result engine.VerifyResult
			g.present(presenter, func(events chan<- event.Event) {
				verifyCfg.Events = events
				result = engine.Verify(ctx, verifyCfg)
			})

			if !g.quiet {
				fmt.Fprintln(g.stderr, ui.VerifySummary(result.Verified, result.Failed))
			}

			if result.Err != nil {
				slog.Error("verify failed", "error", result.Err)
				return &exitError{code: exitFailure}
			}
			if result.Failed > 0 {
				return &exitError{code: exitFailure}
			}
			return nil
		},
	}
	filters.register(cmd.Flags())

	return cmd
}
