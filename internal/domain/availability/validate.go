package availability

import "fmt"

// MaxSlotDuration caps a single slot at one working shift.
const MaxSlotDuration = 8 * 60

// InvalidConfigurationError describes a slot configuration that callers must
// reject before it reaches the engine.
type InvalidConfigurationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid slot configuration: %s=%d %s", e.Field, e.Value, e.Reason)
}

// ValidateSlotConfiguration checks the bounds the engine relies on. The
// engine itself never calls this; bad values there just yield no slots.
func ValidateSlotConfiguration(c SlotConfiguration) error {
	switch {
	case c.DefaultDuration <= 0:
		return &InvalidConfigurationError{Field: "defaultDuration", Value: c.DefaultDuration, Reason: "must be positive"}
	case c.DefaultDuration > MaxSlotDuration:
		return &InvalidConfigurationError{Field: "defaultDuration", Value: c.DefaultDuration, Reason: fmt.Sprintf("must not exceed %d", MaxSlotDuration)}
	case c.SlotInterval <= 0:
		return &InvalidConfigurationError{Field: "slotInterval", Value: c.SlotInterval, Reason: "must be positive"}
	case c.SlotInterval > c.DefaultDuration:
		return &InvalidConfigurationError{Field: "slotInterval", Value: c.SlotInterval, Reason: "must not exceed defaultDuration"}
	case c.BufferTime < 0:
		return &InvalidConfigurationError{Field: "bufferTime", Value: c.BufferTime, Reason: "must not be negative"}
	}
	return nil
}
