package convert

import (
	"os"
	"path/filepath"
)

// Volume layout names. MarkerFile is the single source of truth that a
// volume is fully converted; ErrorMarkerFile permanently halts processing
// until an operator removes it.
const (
	WorkDir         = "@"
	SnapshotDir     = "@snapshots"
	MarkerFile      = ".subvols"
	ErrorMarkerFile = ".subvols_error"
)

// State is a volume's conversion state for this run.
type State int

const (
	StateUnconverted State = iota
	StateConverted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnconverted:
		return "unconverted"
	case StateConverted:
		return "converted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProbeState computes a volume's state from its marker files in one place.
// An error marker wins over a completion marker: a volume carrying both is
// not safe to touch.
func ProbeState(volumePath string) State {
	if _, err := os.Lstat(filepath.Join(volumePath, ErrorMarkerFile)); err == nil {
		return StateFailed
	}
	if _, err := os.Lstat(filepath.Join(volumePath, MarkerFile)); err == nil {
		return StateConverted
	}
	return StateUnconverted
}
