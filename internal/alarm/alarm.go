// Package alarm implements the fail-closed blocking alert loop.
//
// Exiting after a fatal condition would look like "done" to a supervisor and
// let dependent services start on top of a half-converted volume. Instead the
// alarm repeats its alerts forever and never returns; only external process
// termination ends it.
package alarm

import (
	"os"
	"os/signal"
	"time"

	"github.com/volinit-project/volinit/pkg/logging"
)

// closingInstruction is appended to every alert cycle.
const closingInstruction = "dependent services must not be started; repair the reported condition, then restart this container"

// Alarm repeats alert messages at a fixed severity and interval.
type Alarm struct {
	log      *logging.Logger
	level    string
	interval time.Duration
}

// New creates an alarm. Level and interval come from configuration and are
// fixed for the life of the process. A non-positive interval is floored to
// one minute: the ticker panics on a non-positive duration, and the one
// thing the alarm must never do is take the process down with it.
func New(log *logging.Logger, level string, interval time.Duration) *Alarm {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Alarm{log: log, level: level, interval: interval}
}

// Block emits the alerts immediately and then once per interval, forever.
// SIGINT is caught and acknowledged so an operator can watch an orderly
// shutdown elsewhere without this loop's output stopping; the loop itself
// only ends when the process is killed.
func (a *Alarm) Block(alerts ...string) {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		for range interrupts {
			a.log.EmitAt(a.level, "interrupt received; refusing to exit while the fatal condition persists")
		}
	}()

	a.emitOnce(alerts)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for range ticker.C {
		a.emitOnce(alerts)
	}
}

// emitOnce resolves the configured severity on every cycle; an unknown level
// name degrades to the logger's fallback instead of silencing the alarm.
func (a *Alarm) emitOnce(alerts []string) {
	for _, msg := range alerts {
		a.log.EmitAt(a.level, "%s", msg)
	}
	a.log.EmitAt(a.level, "%s", closingInstruction)
}
