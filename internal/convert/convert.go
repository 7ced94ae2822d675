// Package convert implements the per-volume conversion state machine.
//
// A volume moves Unconverted -> Converting -> Converted or Failed. Converted
// and Failed are terminal for the run; Failed requires an operator to remove
// the error marker before the volume is ever considered again. Any per-volume
// failure is fatal to the whole run: the caller hands the returned Fatal to
// the blocking alarm instead of continuing with other volumes.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/volinit-project/volinit/internal/fsops"
	"github.com/volinit-project/volinit/internal/mounts"
	"github.com/volinit-project/volinit/pkg/errclass"
	"github.com/volinit-project/volinit/pkg/fsutil"
	"github.com/volinit-project/volinit/pkg/logging"
)

// Summary counts this run's outcomes.
type Summary struct {
	Seen      int `json:"seen"`
	Converted int `json:"converted"`
}

// Fatal describes an unrecoverable failure. Alerts are the lines the
// blocking alarm repeats.
type Fatal struct {
	Volume string
	Err    error
	Alerts []string
}

// Converter runs the mutating pass over candidate volumes.
type Converter struct {
	log   *logging.Logger
	tools fsops.Toolset
}

// New creates a converter using the given toolset.
func New(log *logging.Logger, tools fsops.Toolset) *Converter {
	return &Converter{log: log, tools: tools}
}

// Run converts each volume in order. Volumes must come from a fresh mount
// table read so the filesystem kind reflects the table as it is now, not as
// preflight saw it. Returns a non-nil Fatal on the first failure; the
// summary line is only logged when every volume succeeded or was skipped.
func (c *Converter) Run(vols []mounts.Mount) (*Summary, *Fatal) {
	sum := &Summary{Seen: len(vols)}
	for _, m := range vols {
		converted, fatal := c.convertOne(m)
		if fatal != nil {
			return sum, fatal
		}
		if converted {
			sum.Converted++
		}
	}
	c.log.Infof("volumes seen: %d, converted this run: %d", sum.Seen, sum.Converted)
	return sum, nil
}

// convertOne drives a single volume through the state machine.
func (c *Converter) convertOne(m mounts.Mount) (bool, *Fatal) {
	switch ProbeState(m.Path) {
	case StateConverted:
		c.log.Debugf("%s already converted, nothing to do", m.Path)
		return false, nil
	case StateFailed:
		// Preflight blocks on this before the mutating pass starts; the
		// engine still gates on it independently so a marker appearing
		// between passes is never mutated over.
		markerPath := filepath.Join(m.Path, ErrorMarkerFile)
		reason := errclass.ErrPriorError.WithMessagef("unresolved error marker at %s", markerPath)
		c.log.Critf("%s", reason)
		return false, &Fatal{
			Volume: m.Path,
			Err:    reason,
			Alerts: []string{
				fmt.Sprintf("volume %s has an unresolved error marker", m.Path),
				fmt.Sprintf("inspect and remove %s after repairing the volume", markerPath),
			},
		}
	}

	c.log.Infof("converting %s (%s)", m.Path, m.FSType)
	if m.SubvolumeCapable() {
		return c.convertSubvolume(m)
	}
	return c.convertGeneric(m)
}

// convertSubvolume is the btrfs path: subvolume @, reflink copy, cleanup,
// subvolume @snapshots, completion marker. Copy-then-delete rather than move
// keeps any pre-existing data out of a nested-subvolume situation and leaves
// the originals intact until the copies are durable.
func (c *Converter) convertSubvolume(m mounts.Mount) (bool, *Fatal) {
	work := filepath.Join(m.Path, WorkDir)
	if err := c.tools.CreateSubvolume(work); err != nil {
		return false, c.fail(m, errclass.ErrSubvolCreate, err)
	}

	entries, err := topLevelEntries(m.Path)
	if err != nil {
		return false, c.fail(m, errclass.ErrReflinkCopy, err)
	}
	if len(entries) == 0 {
		c.log.Debugf("%s is empty, skipping data migration", m.Path)
	} else {
		if err := c.tools.ReflinkCopy(entries, work); err != nil {
			return false, c.fail(m, errclass.ErrReflinkCopy, err)
		}
		if err := fsutil.FsyncTree(work); err != nil {
			return false, c.fail(m, errclass.ErrReflinkCopy, err)
		}
		if err := c.tools.Remove(entries); err != nil {
			// Data is already duplicated under @; only the stale originals
			// need removing.
			return false, c.fail(m, errclass.ErrRootCleanup, err)
		}
	}

	if err := c.tools.CreateSubvolume(filepath.Join(m.Path, SnapshotDir)); err != nil {
		return false, c.fail(m, errclass.ErrSubvolCreate, err)
	}

	if err := c.writeMarker(m.Path); err != nil {
		return false, c.fail(m, errclass.ErrMarkerWrite, err)
	}
	c.log.Noticef("%s converted", m.Path)
	return true, nil
}

// convertGeneric is the plain-directory path: mkdir @, move entries, marker.
// A move is safe here since there are no reflink semantics to preserve and
// no subvolume can end up nested.
func (c *Converter) convertGeneric(m mounts.Mount) (bool, *Fatal) {
	work := filepath.Join(m.Path, WorkDir)
	if err := c.tools.Mkdir(work); err != nil {
		return false, c.fail(m, errclass.ErrWorkdirCreate, err)
	}

	entries, err := topLevelEntries(m.Path)
	if err != nil {
		return false, c.fail(m, errclass.ErrMove, err)
	}
	if len(entries) == 0 {
		c.log.Debugf("%s is empty, skipping data migration", m.Path)
	} else if err := c.tools.Move(entries, work); err != nil {
		return false, c.fail(m, errclass.ErrMove, err)
	}

	if err := c.writeMarker(m.Path); err != nil {
		return false, c.fail(m, errclass.ErrMarkerWrite, err)
	}
	c.log.Noticef("%s converted", m.Path)
	return true, nil
}

// fail transitions the volume to Failed: persist the diagnostic as the error
// marker, log it, and build the alert lines for the blocking alarm.
func (c *Converter) fail(m mounts.Mount, class *errclass.VolError, cause error) *Fatal {
	reason := class.WithMessagef("volume %s: %v", m.Path, cause)
	c.log.Critf("%s", reason)

	markerPath := filepath.Join(m.Path, ErrorMarkerFile)
	if err := fsutil.AtomicWrite(markerPath, []byte(reason.Error()+"\n"), 0644); err != nil {
		c.log.Critf("write error marker %s: %v", markerPath, err)
	}

	alerts := []string{
		fmt.Sprintf("conversion of %s failed: %v", m.Path, reason),
		fmt.Sprintf("inspect and remove %s after repairing the volume", markerPath),
	}
	if errors.Is(reason, errclass.ErrRootCleanup) {
		alerts = append(alerts, fmt.Sprintf("data is safely duplicated under %s; only deletion of the original entries needs to be retried", filepath.Join(m.Path, WorkDir)))
	}
	return &Fatal{Volume: m.Path, Err: reason, Alerts: alerts}
}

// writeMarker records successful conversion. Written last, after every prior
// step succeeded.
func (c *Converter) writeMarker(volumePath string) error {
	return fsutil.AtomicWrite(filepath.Join(volumePath, MarkerFile), nil, 0644)
}

// topLevelEntries lists the volume root excluding the conversion layout
// itself. Table order is irrelevant here; ReadDir's name order keeps runs
// reproducible.
func topLevelEntries(volumePath string) ([]string, error) {
	dirents, err := os.ReadDir(volumePath)
	if err != nil {
		return nil, fmt.Errorf("list volume root: %w", err)
	}
	var entries []string
	for _, d := range dirents {
		if d.Name() == WorkDir || d.Name() == SnapshotDir {
			continue
		}
		entries = append(entries, filepath.Join(volumePath, d.Name()))
	}
	return entries, nil
}
