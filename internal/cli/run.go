package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ssvep/internal/config"
	"github.com/roach88/ssvep/internal/display"
	"github.com/roach88/ssvep/internal/engine"
	"github.com/roach88/ssvep/internal/marker"
	"github.com/roach88/ssvep/internal/protocol"
	"github.com/roach88/ssvep/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	Database   string
	Listen     string
	RefreshHz  float64
	NoGate     bool

	// IDGenerator allows overriding run ID generation (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// RunSummary is the result printed after a session.
type RunSummary struct {
	RunID   string               `json:"run_id,omitempty"`
	Stream  marker.StreamInfo    `json:"stream"`
	Gate    engine.GateOutcome   `json:"gate"`
	Phases  []engine.PhaseReport `json:"phases"`
	Markers []int32              `json:"markers"`
	Stats   marker.Stats         `json:"stats"`
	Aborted bool                 `json:"aborted"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the stimulation session",
		Long: `Run the fixed stimulation session: the ready gate, then
Rest, 5 Hz, Rest, 7 Hz, Rest and Ending phases, emitting a start and an
end marker for each phase.

Markers are broadcast to WebSocket consumers at ws://<listen>/markers and,
with --db, journaled to SQLite together with their delivery outcome.

Keys (one per line on stdin):
  <enter>        advance to the next phase
  q, esc         abort the session

Exit codes:
  0 - Session completed
  1 - Session failed
  2 - Command error (invalid config, listen address in use, etc.)
  3 - Session aborted by the operator

Examples:
  ssvep run
  ssvep run --config rig.toml --db markers.db
  ssvep run --no-gate --refresh 144 --listen 0.0.0.0:16571`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to rig config (TOML)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite marker journal")
	cmd.Flags().StringVar(&opts.Listen, "listen", config.DefaultListen, `marker stream listen address ("" disables the stream server)`)
	cmd.Flags().Float64Var(&opts.RefreshHz, "refresh", config.DefaultRefreshHz, "display refresh rate in Hz")
	cmd.Flags().BoolVar(&opts.NoGate, "no-gate", false, "skip the ready gate")

	return cmd
}

// resolveConfig loads the rig file and applies explicitly set flags on top.
func resolveConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.JournalPath = opts.Database
	}
	if flags.Changed("listen") {
		cfg.Listen = opts.Listen
	}
	if flags.Changed("refresh") {
		cfg.RefreshHz = opts.RefreshHz
	}
	if flags.Changed("no-gate") {
		cfg.SkipGate = opts.NoGate
	}
	return cfg, cfg.Validate()
}

func runSession(opts *RunOptions, cmd *cobra.Command) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	phases := protocol.DefaultRun()
	gate := protocol.DefaultGate()
	info := marker.NewStreamInfo(cfg.SourceID)

	outlet := marker.NewWSOutlet(info, logger)
	defer outlet.Close()
	if cfg.Listen != "" {
		srv, err := marker.Serve(cfg.Listen, outlet)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start marker stream", err)
		}
		defer srv.Close()
		logger.Info("marker stream listening", "addr", srv.Addr(), "path", marker.StreamPath, "stream", info.Name)
	}

	emitterOpts := []marker.EmitterOption{marker.WithLogger(logger)}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		st    *store.Store
		runID string
	)
	if cfg.JournalPath != "" {
		st, err = store.Open(cfg.JournalPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()

		gen := opts.IDGenerator
		if gen == nil {
			gen = store.UUIDv7Generator{}
		}
		runID = gen.Generate()
		if err := st.BeginRun(ctx, store.Run{
			ID:         runID,
			StreamName: info.Name,
			SourceID:   info.SourceID,
			Planned:    len(phases),
			StartedAt:  time.Now(),
		}); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		emitterOpts = append(emitterOpts, marker.WithJournal(st.Journal(runID, logger)))
		logger.Info("journaling markers", "path", cfg.JournalPath, "run", runID)
	}

	var screen io.Writer = cmd.OutOrStdout()
	if opts.Format == "json" {
		screen = cmd.ErrOrStderr()
	}
	surface, err := display.NewConsole(screen, cfg.RefreshHz)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open display", err)
	}
	// The scheduler closes the surface; this covers setup failures before it runs.
	defer surface.Close()

	keyboard := display.NewKeyboard(cmd.InOrStdin())
	stopSignals := abortOnSignal(keyboard, logger)
	defer stopSignals()

	emitter := marker.NewEmitter(outlet, emitterOpts...)
	sched, err := engine.New(surface, keyboard, engine.NewClockTicks(nil), emitter,
		engine.WithKeyMap(cfg.KeyMap()),
		engine.WithLogger(logger),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create scheduler", err)
	}

	var report *engine.Report
	if cfg.SkipGate {
		report, err = sched.Run(phases)
	} else {
		report, err = sched.Session(gate, phases)
	}
	if err != nil {
		finishRun(ctx, st, runID, store.OutcomeFailed, logger)
		return WrapExitError(ExitFailure, "session failed", err)
	}

	outcome := store.OutcomeCompleted
	if report.Aborted {
		outcome = store.OutcomeAborted
	}
	finishRun(ctx, st, runID, outcome, logger)

	summary := RunSummary{
		RunID:   runID,
		Stream:  info,
		Gate:    report.Gate,
		Phases:  report.Phases,
		Markers: report.MarkerCodes(),
		Stats:   emitter.Stats(),
		Aborted: report.Aborted,
	}
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	text := func(w io.Writer) { printRunSummary(w, summary) }
	if report.Aborted {
		return f.Failure(ExitAborted, ErrCodeAborted, "session aborted by operator", summary, text)
	}
	return f.Success(summary, text)
}

func finishRun(ctx context.Context, st *store.Store, runID, outcome string, logger *slog.Logger) {
	if st == nil {
		return
	}
	if err := st.FinishRun(ctx, runID, outcome, time.Now()); err != nil {
		logger.Error("failed to record run outcome", "run", runID, "error", err)
	}
}

// abortOnSignal turns SIGINT/SIGTERM into an abort key press, so an
// interrupted session still emits the current end marker.
func abortOnSignal(kb *display.Keyboard, logger *slog.Logger) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-sigChan:
				logger.Info("received signal, aborting session", "signal", sig)
				kb.Inject(engine.KeyAbort)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

func printRunSummary(w io.Writer, s RunSummary) {
	fmt.Fprintln(w)
	if s.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Gate: %s\n", s.Gate)
	for _, p := range s.Phases {
		fmt.Fprintf(w, "  [%d] %-18s %d/%d  %-8s %6.2fs  %d frames\n",
			p.Index, p.Label, p.StartCode, p.EndCode, p.Reason, p.Elapsed.Seconds(), p.Frames)
	}
	fmt.Fprintf(w, "Markers: %v (sent %d, failed %d)\n", s.Markers, s.Stats.Sent, s.Stats.Failed)
	if s.Aborted {
		fmt.Fprintln(w, "✗ Session aborted")
	} else {
		fmt.Fprintln(w, "✓ Session completed")
	}
}
