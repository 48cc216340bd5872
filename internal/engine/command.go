package engine

// Command is the operator instruction resolved from one poll.
type Command int

const (
	CommandNone Command = iota
	CommandAdvance
	CommandAbort
)

func (c Command) String() string {
	switch c {
	case CommandAdvance:
		return "advance"
	case CommandAbort:
		return "abort"
	}
	return "none"
}

// Default key identifiers.
const (
	KeyAdvance = "return"
	KeyAbort   = "escape"
)

// KeyMap maps key identifiers to commands. Keys not in the map are ignored.
type KeyMap map[string]Command

// DefaultKeyMap maps return to advance and escape to abort.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		KeyAdvance: CommandAdvance,
		KeyAbort:   CommandAbort,
	}
}

// Resolve reduces a batch of keys to one command. Abort anywhere in the
// batch wins over advance; duplicates collapse.
func (m KeyMap) Resolve(keys []string) Command {
	cmd := CommandNone
	for _, k := range keys {
		switch m[k] {
		case CommandAbort:
			return CommandAbort
		case CommandAdvance:
			cmd = CommandAdvance
		}
	}
	return cmd
}
