package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ssvep/internal/protocol"
	"github.com/roach88/ssvep/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - show one run's markers
}

// JournalRuns is the run listing.
type JournalRuns struct {
	Runs []store.Run `json:"runs"`
}

// JournalMarkers is one run with its markers.
type JournalMarkers struct {
	Run     store.Run            `json:"run"`
	Markers []store.MarkerRecord `json:"markers"`
	Stats   JournalStats         `json:"stats"`
}

// JournalStats summarizes a run's markers.
type JournalStats struct {
	Total       int  `json:"total"`
	Delivered   int  `json:"delivered"`
	Undelivered int  `json:"undelivered"`
	Paired      bool `json:"paired"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the marker journal",
		Long: `List journaled runs, or show the markers of one run with their
delivery outcome.

Examples:
  ssvep journal --db markers.db
  ssvep journal --db markers.db --run 01931e5a-7c3b-7d2e-9a4f-5b6c7d8e9f00
  ssvep journal --db markers.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite marker journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	// Opening would create an empty journal.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return outputJournalRuns(cmd, opts, JournalRuns{Runs: runs})
	}

	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID), err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	markers, err := st.ReadMarkers(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read markers", err)
	}

	return outputJournalMarkers(cmd, opts, JournalMarkers{
		Run:     run,
		Markers: markers,
		Stats:   markerStats(markers),
	})
}

// markerStats counts deliveries and checks that markers come in start/end
// pairs of the same phase.
func markerStats(markers []store.MarkerRecord) JournalStats {
	stats := JournalStats{Total: len(markers), Paired: len(markers)%2 == 0}
	for i, m := range markers {
		if m.Delivered {
			stats.Delivered++
		} else {
			stats.Undelivered++
		}
		if i%2 == 1 && markers[i-1].Code+protocol.EndCodeOffset != m.Code {
			stats.Paired = false
		}
	}
	return stats
}

func outputJournalRuns(cmd *cobra.Command, opts *JournalOptions, result JournalRuns) error {
	return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success(result, func(w io.Writer) {
		if len(result.Runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}
		for _, r := range result.Runs {
			fmt.Fprintf(w, "%s  %s  %-9s  %d phases  %s\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Outcome, r.Planned, r.SourceID)
		}
	})
}

func outputJournalMarkers(cmd *cobra.Command, opts *JournalOptions, result JournalMarkers) error {
	return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Run: %s (%s)\n", result.Run.ID, result.Run.Outcome)
		for _, m := range result.Markers {
			status := "✓"
			if !m.Delivered {
				status = "✗ " + m.Error
			}
			fmt.Fprintf(w, "  [%d] %3d %-15s %9.3fs  %s\n",
				m.Seq, m.Code, protocol.CodeName(m.Code), m.Offset.Seconds(), status)
		}
		fmt.Fprintf(w, "Total: %d, delivered: %d, undelivered: %d, paired: %t\n",
			result.Stats.Total, result.Stats.Delivered, result.Stats.Undelivered, result.Stats.Paired)
	})
}
