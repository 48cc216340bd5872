package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ssvep/internal/engine"
	"github.com/roach88/ssvep/internal/protocol"
)

//go:embed schema.cue
var scenarioSchema string

// Scenario defines a session to drive and the outcome to expect.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// FrameInterval is the synthetic time between frames (e.g. "100ms").
	FrameInterval string `yaml:"frame_interval"`

	// Gate shows the ready gate before the phases when set.
	Gate *GateStep `yaml:"gate,omitempty"`

	// DefaultRun runs the built-in phase order instead of Phases.
	DefaultRun bool `yaml:"default_run,omitempty"`

	// Phases lists the phases to run in order.
	Phases []PhaseStep `yaml:"phases,omitempty"`

	// Input scripts operator key presses.
	Input []InputStep `yaml:"input,omitempty"`

	// Assertions validate the markers and the report.
	Assertions []Assertion `yaml:"assertions"`
}

// GateStep configures the ready gate. Empty fields take the defaults.
type GateStep struct {
	Duration string `yaml:"duration,omitempty"`
	Message  string `yaml:"message,omitempty"`
}

// PhaseStep is one phase of the scenario.
type PhaseStep struct {
	Label     string  `yaml:"label"`
	StartCode int32   `yaml:"start_code"`
	EndCode   int32   `yaml:"end_code"`
	Duration  string  `yaml:"duration"`
	FlickerHz float64 `yaml:"flicker_hz,omitempty"`
}

// InputStep is one scripted key press. Phase -1 addresses the gate.
type InputStep struct {
	Phase int    `yaml:"phase"`
	At    string `yaml:"at"`
	Key   string `yaml:"key"`
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Codes is the expected marker sequence (marker_sequence).
	Codes []int32 `yaml:"codes,omitempty"`

	// Code and Count: marker_count.
	Code  int32 `yaml:"code,omitempty"`
	Count int   `yaml:"count,omitempty"`

	// Expect is the expected aborted flag (aborted).
	Expect *bool `yaml:"expect,omitempty"`

	// Phase selects a phase by index (exit_reason, flicker_frames).
	Phase int `yaml:"phase,omitempty"`

	// Reason is the expected exit reason (exit_reason).
	Reason string `yaml:"reason,omitempty"`

	// On is the expected number of stimulus-on frames (flicker_frames).
	On int `yaml:"on,omitempty"`
}

// Assertion type constants.
const (
	AssertMarkerSequence = "marker_sequence"
	AssertMarkerCount    = "marker_count"
	AssertAborted        = "aborted"
	AssertExitReason     = "exit_reason"
	AssertFlickerFrames  = "flicker_frames"
)

// LoadScenario reads and parses a scenario YAML file.
//
// The document is first checked against the scenario schema, then decoded
// with strict field validation and checked for semantic errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario is LoadScenario for in-memory content.
func ParseScenario(data []byte) (*Scenario, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// cue values are not safe for concurrent use; schemaMu guards all of them.
var (
	schemaMu    sync.Mutex
	schemaCtx   *cue.Context
	schemaValue cue.Value
)

func loadSchemaLocked() error {
	if schemaCtx != nil {
		return nil
	}
	ctx := cuecontext.New()
	v := ctx.CompileString(scenarioSchema, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	schemaCtx = ctx
	schemaValue = v.LookupPath(cue.ParsePath("#Scenario"))
	return nil
}

// checkSchema validates the generic YAML document against #Scenario.
func checkSchema(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("invalid scenario: empty document")
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()
	if err := loadSchemaLocked(); err != nil {
		return err
	}
	v := schemaValue.Unify(schemaCtx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario schema: %w", err)
	}
	return nil
}

// validateScenario checks what the schema cannot: duration syntax, phase
// validity and references between sections.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := s.Interval(); err != nil {
		return err
	}

	if s.DefaultRun && len(s.Phases) > 0 {
		return fmt.Errorf("default_run and phases are mutually exclusive")
	}
	if !s.DefaultRun && len(s.Phases) == 0 {
		return fmt.Errorf("phases list is required unless default_run is set")
	}

	phases, err := s.BuildPhases()
	if err != nil {
		return err
	}
	if s.Gate != nil {
		if _, err := s.BuildGate(); err != nil {
			return err
		}
	}

	for i, in := range s.Input {
		if in.Key == "" {
			return fmt.Errorf("input[%d]: key is required", i)
		}
		if in.Phase < engine.GateIndex || in.Phase >= len(phases) {
			return fmt.Errorf("input[%d]: phase %d out of range", i, in.Phase)
		}
		if in.Phase == engine.GateIndex && s.Gate == nil {
			return fmt.Errorf("input[%d]: gate input without a gate", i)
		}
		if _, err := parseDuration(fmt.Sprintf("input[%d].at", i), in.At); err != nil {
			return err
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, len(phases)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, phases int) error {
	switch a.Type {
	case AssertMarkerSequence:
		if a.Codes == nil {
			return fmt.Errorf("assertions[%d]: codes is required for marker_sequence", index)
		}
	case AssertMarkerCount:
		if a.Code == 0 {
			return fmt.Errorf("assertions[%d]: code is required for marker_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for marker_count", index)
		}
	case AssertAborted:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for aborted", index)
		}
	case AssertExitReason:
		if a.Phase < 0 || a.Phase >= phases {
			return fmt.Errorf("assertions[%d]: phase %d out of range", index, a.Phase)
		}
		switch engine.ExitReason(a.Reason) {
		case engine.ExitElapsed, engine.ExitAdvanced, engine.ExitAborted:
		default:
			return fmt.Errorf("assertions[%d]: unknown exit reason %q", index, a.Reason)
		}
	case AssertFlickerFrames:
		if a.Phase < 0 || a.Phase >= phases {
			return fmt.Errorf("assertions[%d]: phase %d out of range", index, a.Phase)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Interval returns the parsed frame interval.
func (s *Scenario) Interval() (time.Duration, error) {
	return parsePositive("frame_interval", s.FrameInterval)
}

// BuildPhases returns the protocol phases the scenario runs.
func (s *Scenario) BuildPhases() ([]protocol.Phase, error) {
	if s.DefaultRun {
		return protocol.DefaultRun(), nil
	}
	phases := make([]protocol.Phase, 0, len(s.Phases))
	for i, p := range s.Phases {
		d, err := parseDuration(fmt.Sprintf("phases[%d].duration", i), p.Duration)
		if err != nil {
			return nil, err
		}
		phases = append(phases, protocol.Phase{
			StartCode: p.StartCode,
			EndCode:   p.EndCode,
			Label:     p.Label,
			Duration:  d,
			FlickerHz: p.FlickerHz,
		})
	}
	if err := protocol.Validate(phases); err != nil {
		return nil, err
	}
	return phases, nil
}

// BuildGate returns the scenario gate, or the default gate when none is set.
func (s *Scenario) BuildGate() (protocol.Gate, error) {
	g := protocol.DefaultGate()
	if s.Gate == nil {
		return g, nil
	}
	if s.Gate.Duration != "" {
		d, err := parseDuration("gate.duration", s.Gate.Duration)
		if err != nil {
			return protocol.Gate{}, err
		}
		g.Duration = d
	}
	if s.Gate.Message != "" {
		g.Message = s.Gate.Message
	}
	if err := protocol.ValidateGate(g); err != nil {
		return protocol.Gate{}, err
	}
	return g, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", field)
	}
	return d, nil
}

func parsePositive(field, s string) (time.Duration, error) {
	d, err := parseDuration(field, s)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("%s: must be positive", field)
	}
	return d, nil
}
