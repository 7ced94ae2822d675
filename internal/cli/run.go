package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/volinit-project/volinit/internal/convert"
	"github.com/volinit-project/volinit/internal/fsops"
	"github.com/volinit-project/volinit/internal/mounts"
	"github.com/volinit-project/volinit/internal/preflight"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Convert all candidate volumes",
	Long: `Convert all candidate volumes.

Enumerates the direct children of the volume root from the mount table,
validates them, then converts each unconverted volume in table order. On any
fatal condition the process does not exit: it repeats an alert at the
configured interval forever, so dependent services are never started on top
of a broken volume.`,
	Run: runConversion,
}

// runConversion is the default action: bare volinit behaves exactly like
// volinit run.
func runConversion(cmd *cobra.Command, args []string) {
	rt := setup()
	al := rt.newAlarm()

	table, err := mounts.Table()
	if err != nil {
		rt.log.Critf("%v", err)
		al.Block(fmt.Sprintf("cannot read mount table: %v", err))
		return
	}

	report := preflight.New(rt.log, rt.cfg.VolumeRoot).Check(table)
	if report.Fatal {
		al.Block(report.Alerts()...)
		return
	}

	if runDryRun {
		if jsonOutput {
			if err := outputJSON(report); err != nil {
				fmtErr("encode report: %v", err)
			}
			return
		}
		for _, path := range report.Skipped {
			fmt.Printf("skip      %s\n", path)
		}
		for _, path := range report.Ready {
			fmt.Printf("convert   %s\n", path)
		}
		return
	}

	// Fresh table read for the mutating pass: the filesystem kind is
	// taken from the table as it is now, not as preflight saw it.
	candidates, err := mounts.Enumerate(rt.cfg.VolumeRoot)
	if err != nil {
		rt.log.Critf("%v", err)
		al.Block(fmt.Sprintf("cannot read mount table: %v", err))
		return
	}

	summary, fatal := convert.New(rt.log, fsops.NewLocal()).Run(candidates)
	if fatal != nil {
		al.Block(fatal.Alerts...)
		return
	}
	if err := outputJSON(summary); err != nil {
		fmtErr("encode summary: %v", err)
	}
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "validate and report without converting")
	rootCmd.AddCommand(runCmd)

	// Bare invocation performs the conversion run; this is a pre-start gate,
	// not an interactive tool, so printing help and exiting 0 would read as
	// success to a supervisor.
	rootCmd.Run = runConversion
}
