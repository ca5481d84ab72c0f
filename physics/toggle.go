package physics

// Toggle switches a controlled entity between full control, sensing only, and
// nothing at all. The zero value is Enabled, so an entity without a toggle is
// fully controlled.
type Toggle uint8

const (
	Enabled Toggle = iota
	// SenseOnly keeps sensors running but suppresses every force write.
	SenseOnly
	Disabled
)

func (t Toggle) String() string {
	switch t {
	case Enabled:
		return "enabled"
	case SenseOnly:
		return "sense-only"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Senses reports whether sensors may run under t.
func (t Toggle) Senses() bool {
	return t != Disabled
}

// Drives reports whether motors may write forces under t.
func (t Toggle) Drives() bool {
	return t == Enabled
}
