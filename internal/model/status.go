package model

// Status is the reading state of a Work in the library.
type Status string

const (
	StatusReading   Status = "reading"
	StatusCompleted Status = "completed"
	StatusPaused    Status = "paused"

	// StatusUnknown covers status strings written by a newer client.
	// Unknown values round-trip through the store unmodified.
	StatusUnknown Status = "unknown"
)

// ParseStatus maps a raw status string to a Status, falling back to
// StatusUnknown for anything outside the closed set.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusReading, StatusCompleted, StatusPaused:
		return Status(s)
	default:
		return StatusUnknown
	}
}

func (s Status) String() string { return string(s) }

// Valid reports whether s is one of the known reading states.
func (s Status) Valid() bool {
	return s == StatusReading || s == StatusCompleted || s == StatusPaused
}
