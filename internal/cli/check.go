package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/volinit-project/volinit/internal/mounts"
	"github.com/volinit-project/volinit/internal/preflight"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check volume readiness",
	Long: `Check volume readiness.

Runs the read-only validation passes and reports the state of every candidate
volume without mutating anything and without entering the blocking alarm.
Exits non-zero when a fatal condition is present.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt := setup()

		table, err := mounts.Table()
		if err != nil {
			fmtErr("check: %v", err)
			os.Exit(1)
		}

		report := preflight.New(rt.log, rt.cfg.VolumeRoot).Check(table)

		if jsonOutput {
			if err := outputJSON(report); err != nil {
				fmtErr("encode report: %v", err)
			}
		} else {
			for _, path := range report.Skipped {
				fmt.Printf("converted %s\n", path)
			}
			for _, path := range report.Ready {
				fmt.Printf("ready     %s\n", path)
			}
			for _, f := range report.Findings {
				if f.Volume != "" {
					fmt.Printf("fatal     %s: %s: %s\n", f.Volume, f.Code, f.Detail)
				} else {
					fmt.Printf("fatal     %s: %s\n", f.Code, f.Detail)
				}
			}
		}

		if report.Fatal {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
