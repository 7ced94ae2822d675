// Package preflight validates candidate volumes before any mutation.
//
// It runs two read-only passes: a structural pass over the whole mount table
// and a per-volume readiness pass. It exists to fail fast and loudly before
// the conversion engine touches anything, and to produce an operator-readable
// readiness report.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/volinit-project/volinit/internal/convert"
	"github.com/volinit-project/volinit/internal/mounts"
	"github.com/volinit-project/volinit/pkg/errclass"
	"github.com/volinit-project/volinit/pkg/logging"
	"github.com/volinit-project/volinit/pkg/pathutil"
)

// Finding is one detected fatal condition.
type Finding struct {
	Volume string `json:"volume,omitempty"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Report is the outcome of both passes. Fatal means the run must not
// proceed to the mutating pass.
type Report struct {
	Fatal    bool      `json:"fatal"`
	Findings []Finding `json:"findings,omitempty"`
	Ready    []string  `json:"ready,omitempty"`
	Skipped  []string  `json:"skipped,omitempty"`
}

// Alerts renders the findings as alert lines for the blocking alarm.
func (r *Report) Alerts() []string {
	var alerts []string
	for _, f := range r.Findings {
		if f.Volume != "" {
			alerts = append(alerts, fmt.Sprintf("%s: %s: %s", f.Volume, f.Code, f.Detail))
		} else {
			alerts = append(alerts, fmt.Sprintf("%s: %s", f.Code, f.Detail))
		}
	}
	return alerts
}

// Validator checks volumes under one fixed root.
type Validator struct {
	log  *logging.Logger
	root string
}

// New creates a validator for volumes under root.
func New(log *logging.Logger, root string) *Validator {
	return &Validator{log: log, root: root}
}

// Check runs pass A over the full table and pass B over the direct children.
// Performs no writes.
func (v *Validator) Check(table []mounts.Mount) *Report {
	report := &Report{}

	// Pass A: the tool only understands one level of volumes. A mount nested
	// deeper anywhere in the table is a configuration error for the whole
	// run, not just that volume.
	for _, m := range table {
		if mounts.DepthBelow(m.Path, v.root) >= 2 {
			v.fatal(report, Finding{
				Code:   errclass.ErrNestedMount.Code,
				Detail: fmt.Sprintf("mount %s is nested below %s; only direct children are supported", m.Path, v.root),
			})
		}
	}

	// Pass B: per-volume readiness, evaluated in order for every candidate
	// even after a fatal finding, so the report is complete.
	for _, m := range mounts.Children(table, v.root) {
		v.checkVolume(report, m)
	}

	return report
}

func (v *Validator) checkVolume(report *Report, m mounts.Mount) {
	// Converted volumes are skipped before any other gate: they will never
	// be mutated again, so nothing else about them matters.
	state := convert.ProbeState(m.Path)
	if state == convert.StateConverted {
		v.log.Debugf("%s already converted, skipping", m.Path)
		report.Skipped = append(report.Skipped, m.Path)
		return
	}

	if err := pathutil.ValidateVolumeName(m.Name()); err != nil {
		v.fatal(report, Finding{
			Volume: m.Path,
			Code:   errclass.ErrNameInvalid.Code,
			Detail: err.Error(),
		})
		return
	}

	if m.ReadOnly() {
		v.fatal(report, Finding{
			Volume: m.Path,
			Code:   errclass.ErrReadOnly.Code,
			Detail: "volume is mounted read-only",
		})
		return
	}

	if state == convert.StateFailed {
		v.fatal(report, Finding{
			Volume: m.Path,
			Code:   errclass.ErrPriorError.Code,
			Detail: fmt.Sprintf("unresolved error marker at %s", filepath.Join(m.Path, convert.ErrorMarkerFile)),
		})
		return
	}

	workdir := filepath.Join(m.Path, convert.WorkDir)
	if info, err := os.Lstat(workdir); err == nil && !info.IsDir() {
		v.fatal(report, Finding{
			Volume: m.Path,
			Code:   errclass.ErrWorkdirConflict.Code,
			Detail: fmt.Sprintf("%s exists but is not a directory", workdir),
		})
		return
	}

	v.log.Infof("%s is ready for conversion", m.Path)
	report.Ready = append(report.Ready, m.Path)
}

func (v *Validator) fatal(report *Report, f Finding) {
	if f.Volume != "" {
		v.log.Critf("%s: %s: %s", f.Volume, f.Code, f.Detail)
	} else {
		v.log.Critf("%s: %s", f.Code, f.Detail)
	}
	report.Fatal = true
	report.Findings = append(report.Findings, f)
}
