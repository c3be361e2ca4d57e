//go:build !windows

package cli

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyLevelToggle returns a channel that receives SIGUSR1, which flips a
// running server between its configured log level and debug.
func notifyLevelToggle() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	return ch, func() { signal.Stop(ch) }
}
