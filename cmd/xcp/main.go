package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/xcp/internal/config"
	"github.com/bamsammich/xcp/internal/engine"
	"github.com/bamsammich/xcp/internal/event"
	"github.com/bamsammich/xcp/internal/filter"
	"github.com/bamsammich/xcp/internal/stats"
	"github.com/bamsammich/xcp/internal/ui"
)

var version = "dev"

// exitFailure is returned for every failure, usage errors included.
const exitFailure = 1

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

// filterOpts holds the selection flags shared by the copy and verify commands.
type filterOpts struct {
	chain   *filter.Chain
	file    string
	minSize string
	maxSize string
}

func newFilterOpts() *filterOpts {
	return &filterOpts{chain: filter.NewChain()}
}

func (o *filterOpts) register(fs *pflag.FlagSet) {
	fs.Var(&filterFlag{chain: o.chain}, "exclude", "exclude files matching PATTERN (repeatable)")
	fs.Var(&filterFlag{chain: o.chain, include: true}, "include", "include files matching PATTERN (repeatable)")
	fs.StringVar(&o.file, "filter", "", "read filter rules from FILE")
	fs.StringVar(&o.minSize, "min-size", "", "skip files smaller than SIZE (e.g. 1M, 100K)")
	fs.StringVar(&o.maxSize, "max-size", "", "skip files larger than SIZE (e.g. 1G, 500M)")
}

// build loads the filter file and size bounds into the chain. The chain is
// returned even when empty; callers check Empty.
func (o *filterOpts) build() (*filter.Chain, error) {
	if o.file != "" {
		if err := o.chain.LoadFile(o.file); err != nil {
			return nil, fmt.Errorf("load filter file: %w", err)
		}
	}
	if o.minSize != "" {
		n, err := filter.ParseSize(o.minSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --min-size: %w", err)
		}
		o.chain.SetMinSize(n)
	}
	if o.maxSize != "" {
		n, err := filter.ParseSize(o.maxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size: %w", err)
		}
		o.chain.SetMaxSize(n)
	}
	return o.chain, nil
}

// globalOpts carries the persistent flags and the state set up from them
// before any command runs.
type globalOpts struct {
	stdout  io.Writer
	stderr  io.Writer
	logPath string
	verbose bool
	quiet   bool

	cfg      config.Config
	logFile  *os.File
	eventLog *slog.Logger // nil unless --log is set
}

// setup loads the config file and installs the default logger.
func (g *globalOpts) setup(cmd *cobra.Command) error {
	cfg, cfgErr := config.Load()
	g.cfg = cfg
	if !cmd.Flags().Changed("quiet") && cfg.Defaults.Quiet != nil {
		g.quiet = *cfg.Defaults.Quiet
	}

	if err := g.setupLogging(); err != nil {
		return err
	}
	if cfgErr != nil {
		slog.Warn("failed to load config", "path", config.Path(), "error", cfgErr)
	}
	return nil
}

func (g *globalOpts) setupLogging() error {
	logLevel := slog.LevelInfo
	if g.verbose {
		logLevel = slog.LevelDebug
	} else if g.quiet {
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(g.stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	var logHandler slog.Handler = textHandler
	if g.logPath != "" {
		lf, err := os.Create(g.logPath)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		g.logFile = lf

		// The run id lets lines from one invocation be grouped in a shared log.
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}).WithAttrs([]slog.Attr{slog.String("run", uuid.NewString())})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
		g.eventLog = slog.New(jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return nil
}

func (g *globalOpts) close() {
	if g.logFile != nil {
		g.logFile.Close()
		g.logFile = nil
	}
}

func (g *globalOpts) newPresenter(collector stats.Reader, dryRun bool) ui.Presenter {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return ui.NewPresenter(ui.Config{
		Writer:    g.stdout,
		ErrWriter: g.stderr,
		Stats:     collector,
		HomeDir:   home,
		IsTTY:     isTerminal(g.stdout),
		Quiet:     g.quiet,
		Verbose:   g.verbose,
		DryRun:    dryRun,
	})
}

// present runs fn with an event channel drained by presenter and returns
// once both are done. With --log, events are teed into the JSON log first.
func (g *globalOpts) present(presenter ui.Presenter, fn func(events chan<- event.Event)) {
	events := make(chan event.Event, 256)
	presenterEvents := (<-chan event.Event)(events)
	if g.eventLog != nil {
		presenterEvents = teeEvents(events, g.eventLog)
	}

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	fn(events)
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(g.stderr, "presenter: %v\n", presenterErr)
	}
}

// teeEvents writes a structured record for every event before forwarding it.
func teeEvents(in <-chan event.Event, logger *slog.Logger) <-chan event.Event {
	out := make(chan event.Event, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			logEvent(logger, ev)
			out <- ev
		}
	}()
	return out
}

func logEvent(logger *slog.Logger, ev event.Event) {
	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("path", ev.Path),
	}
	if ev.Dst != "" {
		attrs = append(attrs, slog.String("dst", ev.Dst))
	}
	if ev.Size > 0 {
		attrs = append(attrs, slog.Int64("size", ev.Size))
	}
	if ev.Total > 0 {
		attrs = append(attrs, slog.Int64("total", ev.Total))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "xcp.event", attrs...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTTY(f.Fd())
}

func run(args []string, stdout, stderr io.Writer) int {
	g := &globalOpts{stdout: stdout, stderr: stderr}
	defer g.close()

	rootCmd := newRootCmd(g)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\nRun 'xcp --help' for usage.\n", err)
		return exitFailure
	}
	return 0
}

//nolint:revive // cognitive-complexity: CLI entry point wires every flag
func newRootCmd(g *globalOpts) *cobra.Command {
	var (
		showVersion bool
		dryRun      bool
		verifyFlag  bool
		keepGoing   bool
		bwLimitStr  string
	)

	filters := newFilterOpts()

	rootCmd := &cobra.Command{
		Use:   "xcp [flags] <source_dir> <dest_dir>",
		Short: "Copy the owner-executable files of a directory into another directory",
		Long: `xcp copies every regular file in <source_dir> whose owner-execute bit is set
into <dest_dir>, creating <dest_dir> if needed. Subdirectories, symlinks and
special files are skipped. Copies get exactly the source permission bits.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(g.stdout, "xcp %s\n", version)
				return nil
			}

			src, dst := args[0], args[1]

			// Apply config defaults for flags not explicitly set on CLI.
			applyConfigDefaults(cmd, g.cfg.Defaults, &verifyFlag, &keepGoing)
			if !cmd.Flags().Changed("bwlimit") && g.cfg.Defaults.BWLimit != nil {
				bwLimitStr = *g.cfg.Defaults.BWLimit
			}

			var bwLimit int64
			if bwLimitStr != "" {
				var err error
				bwLimit, err = filter.ParseSize(bwLimitStr)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			chain, err := filters.build()
			if err != nil {
				return err
			}

			if dryRun {
				slog.Info("dry run mode")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			engineCfg := engine.Config{
				Src:       src,
				Dst:       dst,
				Stats:     collector,
				BWLimit:   bwLimit,
				DryRun:    dryRun,
				KeepGoing: keepGoing,
				Verify:    verifyFlag,
			}
			// Only set filter if it has rules/size constraints.
			if !chain.Empty() {
				engineCfg.Filter = chain
			}

			slog.Debug("starting copy",
				"src", src,
				"dst", dst,
				"dry_run", dryRun,
				"verify", verifyFlag,
				"keep_going", keepGoing,
				"bwlimit", ui.FormatRate(float64(bwLimit)),
			)

			presenter := g.newPresenter(collector, dryRun)
			var result engine.Result
			g.present(presenter, func(events chan<- event.Event) {
				engineCfg.Events = events
				result = engine.Run(ctx, engineCfg)
			})
			stop()

			// A pass that failed before any file was attempted has nothing to sum up.
			if !g.quiet && (result.Err == nil || result.Stats.FilesFailed > 0) {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(g.stderr, summary)
				}
			}

			if result.Err != nil {
				slog.Error("copy failed", "error", result.Err)
				return &exitError{code: exitFailure}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().StringVar(&g.logPath, "log", "", "write structured JSON log to FILE")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be copied without writing")
	rootCmd.Flags().BoolVar(&verifyFlag, "verify", false, "verify each copy against its source (BLAKE3)")
	rootCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue past per-file errors and report a tally")
	rootCmd.Flags().StringVar(&bwLimitStr, "bwlimit", "", "bandwidth limit (e.g. 100M, 1G)")
	filters.register(rootCmd.Flags())

	rootCmd.AddCommand(newVerifyCmd(g))
	rootCmd.AddCommand(newDocsCmd())

	return rootCmd
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	verify *bool,
	keepGoing *bool,
) {
	if !cmd.Flags().Changed("verify") && defaults.Verify != nil {
		*verify = *defaults.Verify
	}
	if !cmd.Flags().Changed("keep-going") && defaults.KeepGoing != nil {
		*keepGoing = *defaults.KeepGoing
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
