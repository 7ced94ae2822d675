package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/volinit-project/volinit/internal/alarm"
	"github.com/volinit-project/volinit/pkg/config"
	"github.com/volinit-project/volinit/pkg/logging"
)

var (
	jsonOutput bool
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "volinit",
		Short: "volinit - pre-start volume layout conversion",
		Long: `volinit converts mounted storage volumes from a flat layout into the
standardized subvolume layout (working directory @, snapshot directory
@snapshots on btrfs, and a completion marker). It runs once before dependent
services start and blocks forever on any fatal condition so that nothing can
start on top of a half-converted volume.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the configuration file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// runtime is the per-invocation state resolved once at startup.
type runtime struct {
	cfg *config.Config
	log *logging.Logger
}

// setup loads configuration and builds the logger. Malformed levels are a
// configuration error: recovered locally with the default, reported at ERR,
// and the run continues.
func setup() *runtime {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmtErr("load config: %v", err)
		os.Exit(1)
	}
	envWarnings := cfg.ApplyEnv()

	fallback, fallbackErr := logging.ParseLevel(cfg.Logging.DefaultLevel)
	if fallbackErr != nil {
		fallback = logging.Info
	}
	threshold, thresholdErr := logging.ParseLevel(cfg.Logging.Level)
	if thresholdErr != nil {
		threshold = fallback
	}

	log := logging.New(threshold, fallback)
	if fallbackErr != nil {
		log.Errf("invalid default log level %q, using %s", cfg.Logging.DefaultLevel, fallback)
	}
	if thresholdErr != nil {
		log.Errf("invalid log level %q, using %s", cfg.Logging.Level, threshold)
	}
	for _, w := range envWarnings {
		log.Errf("%s", w)
	}
	if cfg.Alarm.IntervalSeconds <= 0 {
		log.Errf("invalid alarm interval %d, using %s", cfg.Alarm.IntervalSeconds, cfg.AlarmInterval())
	}

	return &runtime{cfg: cfg, log: log}
}

// newAlarm builds the blocking alarm from resolved configuration. The
// severity string is resolved per emission; an unknown name degrades to the
// logger's fallback level rather than failing here.
func (rt *runtime) newAlarm() *alarm.Alarm {
	return alarm.New(rt.log, rt.cfg.Alarm.Level, rt.cfg.AlarmInterval())
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
