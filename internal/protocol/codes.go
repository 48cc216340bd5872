package protocol

import "time"

// Marker codes. Downstream analysis pipelines key on these exact values.
const (
	CodeStaticStart int32 = 1
	CodeStaticEnd   int32 = 11

	CodeSSVEP5Start int32 = 2
	CodeSSVEP5End   int32 = 12

	CodeRestStart int32 = 3
	CodeRestEnd   int32 = 13

	CodeSSVEP7Start int32 = 4
	CodeSSVEP7End   int32 = 14

	// CodeExperimentEnd is reserved and never emitted by the default run.
	CodeExperimentEnd int32 = 99
)

// EndCodeOffset separates each start code from its end code.
const EndCodeOffset int32 = 10

// Default timings.
const (
	DefaultPhaseDuration = 30 * time.Second
	DefaultGateDuration  = 7 * time.Second
	DefaultGateMessage   = "Ready go....."
)

// Stimulus and text geometry, in pixels. The stimulus is centred.
const (
	StimulusWidth   = 400
	StimulusHeight  = 400
	LabelTextHeight = 30
	GateTextHeight  = 80
)

// Rest returns a rest phase with no stimulation.
func Rest(d time.Duration) Phase {
	return Phase{StartCode: CodeRestStart, EndCode: CodeRestEnd, Label: "Rest Phase", Duration: d}
}

// SSVEP5 returns a 5 Hz flicker phase.
func SSVEP5(d time.Duration) Phase {
	return Phase{StartCode: CodeSSVEP5Start, EndCode: CodeSSVEP5End, Label: "5 Hz Stimulation", Duration: d, FlickerHz: 5}
}

// SSVEP7 returns a 7 Hz flicker phase.
func SSVEP7(d time.Duration) Phase {
	return Phase{StartCode: CodeSSVEP7Start, EndCode: CodeSSVEP7End, Label: "7 Hz Stimulation", Duration: d, FlickerHz: 7}
}

// StaticImage returns the static image phase. It shares codes with Ending and
// is not part of the default run.
func StaticImage(d time.Duration) Phase {
	return Phase{StartCode: CodeStaticStart, EndCode: CodeStaticEnd, Label: "Static Image", Duration: d}
}

// Ending returns the closing phase.
func Ending(d time.Duration) Phase {
	return Phase{StartCode: CodeStaticStart, EndCode: CodeStaticEnd, Label: "Ending", Duration: d}
}

// DefaultRun returns the fixed session order. A fresh slice is returned on
// every call.
func DefaultRun() []Phase {
	d := DefaultPhaseDuration
	return []Phase{
		Rest(d),
		SSVEP5(d),
		Rest(d),
		SSVEP7(d),
		Rest(d),
		Ending(d),
	}
}

// DefaultGate returns the ready countdown shown before DefaultRun.
func DefaultGate() Gate {
	return Gate{Message: DefaultGateMessage, Duration: DefaultGateDuration}
}

// CodeName returns the table name for a marker code, or "" if unknown.
func CodeName(code int32) string {
	switch code {
	case CodeStaticStart:
		return "static_start"
	case CodeStaticEnd:
		return "static_end"
	case CodeSSVEP5Start:
		return "ssvep5_start"
	case CodeSSVEP5End:
		return "ssvep5_end"
	case CodeRestStart:
		return "rest_start"
	case CodeRestEnd:
		return "rest_end"
	case CodeSSVEP7Start:
		return "ssvep7_start"
	case CodeSSVEP7End:
		return "ssvep7_end"
	case CodeExperimentEnd:
		return "experiment_end"
	}
	return ""
}
