package marker

import "time"

// Stream identity constants.
const (
	StreamName    = "PsychoPyMarkers"
	StreamType    = "Markers"
	ChannelCount  = 1
	ChannelFormat = "int32"
	IrregularRate = 0.0
	DefaultSource = "myuidw43536"
)

// StreamInfo describes the outbound marker stream.
type StreamInfo struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	ChannelCount  int     `json:"channel_count"`
	NominalRate   float64 `json:"nominal_rate"`
	ChannelFormat string  `json:"channel_format"`
	SourceID      string  `json:"source_id"`
}

// NewStreamInfo returns the fixed marker stream identity with the given
// source id. An empty id selects DefaultSource.
func NewStreamInfo(sourceID string) StreamInfo {
	if sourceID == "" {
		sourceID = DefaultSource
	}
	return StreamInfo{
		Name:          StreamName,
		Type:          StreamType,
		ChannelCount:  ChannelCount,
		NominalRate:   IrregularRate,
		ChannelFormat: ChannelFormat,
		SourceID:      sourceID,
	}
}

// Event is one emitted marker. Timestamp is the offset from the emitter
// epoch on a monotonic clock.
type Event struct {
	Code      int32
	Timestamp time.Duration
}

// Seconds returns the timestamp in seconds.
func (e Event) Seconds() float64 {
	return e.Timestamp.Seconds()
}
