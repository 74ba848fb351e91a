package trace

import "fmt"

// Level controls the verbosity of event tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelEvents records every fired event.
	LevelEvents Level = "events"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:   true,
	LevelEvents: true,
	"":          true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// ParseLevel converts a flag value into a Level.
func ParseLevel(level string) (Level, error) {
	if !IsValidLevel(level) {
		return LevelNone, fmt.Errorf("unknown trace level %q", level)
	}
	if level == "" {
		return LevelNone, nil
	}
	return Level(level), nil
}

// Trace collects the event records of one run.
type Trace struct {
	RunID  string
	Level  Level
	Events []EventRecord
}

// NewTrace creates a Trace ready for recording.
func NewTrace(runID string, level Level) *Trace {
	return &Trace{
		RunID:  runID,
		Level:  level,
		Events: make([]EventRecord, 0),
	}
}

// Record appends an event record, numbering it in arrival order.
func (t *Trace) Record(rec EventRecord) {
	if t.Level != LevelEvents {
		return
	}
	rec.Seq = len(t.Events)
	t.Events = append(t.Events, rec)
}

// Len returns the number of recorded events.
func (t *Trace) Len() int {
	return len(t.Events)
}
