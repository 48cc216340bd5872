package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ssvep/internal/marker"
	"github.com/roach88/ssvep/internal/protocol"
)

// CodeEntry is one row of the marker code table.
type CodeEntry struct {
	Code int32  `json:"code"`
	Name string `json:"name"`
}

// PhaseEntry is one phase of the run order.
type PhaseEntry struct {
	Index     int     `json:"index"`
	Label     string  `json:"label"`
	StartCode int32   `json:"start_code"`
	EndCode   int32   `json:"end_code"`
	Seconds   float64 `json:"duration_s"`
	FlickerHz float64 `json:"flicker_hz,omitempty"`
}

// ProtocolResult describes the built-in session.
type ProtocolResult struct {
	Stream     marker.StreamInfo `json:"stream"`
	Codes      []CodeEntry       `json:"codes"`
	Gate       string            `json:"gate_message"`
	GateLength float64           `json:"gate_duration_s"`
	Phases     []PhaseEntry      `json:"phases"`
}

// NewProtocolCommand creates the protocol command.
func NewProtocolCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Print the marker code table and run order",
		Long: `Print the marker stream identity, the event code table and the
fixed phase order used by "ssvep run".

Examples:
  ssvep protocol
  ssvep protocol --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProtocol(rootOpts, cmd)
		},
	}
	return cmd
}

func buildProtocolResult() ProtocolResult {
	codes := []int32{
		protocol.CodeStaticStart, protocol.CodeStaticEnd,
		protocol.CodeSSVEP5Start, protocol.CodeSSVEP5End,
		protocol.CodeRestStart, protocol.CodeRestEnd,
		protocol.CodeSSVEP7Start, protocol.CodeSSVEP7End,
		protocol.CodeExperimentEnd,
	}
	result := ProtocolResult{
		Stream: marker.NewStreamInfo(marker.DefaultSource),
		Codes:  make([]CodeEntry, 0, len(codes)),
	}
	for _, c := range codes {
		result.Codes = append(result.Codes, CodeEntry{Code: c, Name: protocol.CodeName(c)})
	}

	gate := protocol.DefaultGate()
	result.Gate = gate.Message
	result.GateLength = gate.Duration.Seconds()

	for i, p := range protocol.DefaultRun() {
		result.Phases = append(result.Phases, PhaseEntry{
			Index:     i,
			Label:     p.Label,
			StartCode: p.StartCode,
			EndCode:   p.EndCode,
			Seconds:   p.Duration.Seconds(),
			FlickerHz: p.FlickerHz,
		})
	}
	return result
}

func runProtocol(opts *RootOptions, cmd *cobra.Command) error {
	result := buildProtocolResult()
	return newFormatter(opts, cmd.OutOrStdout()).Success(result, func(w io.Writer) {
		printProtocol(w, result)
	})
}

func printProtocol(w io.Writer, result ProtocolResult) {
	fmt.Fprintf(w, "Stream: %s (%s, %d channel, %s, source %s)\n",
		result.Stream.Name, result.Stream.Type, result.Stream.ChannelCount,
		result.Stream.ChannelFormat, result.Stream.SourceID)

	fmt.Fprintln(w, "\nCodes:")
	for _, c := range result.Codes {
		fmt.Fprintf(w, "  %3d  %s\n", c.Code, c.Name)
	}

	fmt.Fprintf(w, "\nGate: %q for %.0fs\n", result.Gate, result.GateLength)

	fmt.Fprintln(w, "\nPhases:")
	for _, p := range result.Phases {
		flicker := "-"
		if p.FlickerHz > 0 {
			flicker = fmt.Sprintf("%g Hz", p.FlickerHz)
		}
		fmt.Fprintf(w, "  [%d] %-18s %2d/%-2d  %4.0fs  %s\n",
			p.Index, p.Label, p.StartCode, p.EndCode, p.Seconds, flicker)
	}
}
