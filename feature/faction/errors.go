package faction

import "errors"

var (
	// ErrFactionNotFound is returned when a faction key does not resolve
	// after a load attempt.
	ErrFactionNotFound = errors.New("faction not found")

	// ErrUnitNotFound is returned when a unit is absent from its faction
	// index even after the index loaded. This is an expected, reportable
	// condition (e.g. a hand-edited URL), not a defect.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrNotLocalFaction is returned when a mutation is attempted on a
	// bundled faction. Rejected before any I/O.
	ErrNotLocalFaction = errors.New("faction is not local")

	// ErrNoLocalStore is returned when an upload or deletion is attempted
	// while the local-faction store is unavailable.
	ErrNoLocalStore = errors.New("local faction store unavailable")
)

// IsNotFound reports whether err is a faction or unit lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFactionNotFound) || errors.Is(err, ErrUnitNotFound)
}
