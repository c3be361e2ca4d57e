//go:build windows

package cli

import "os"

// notifyLevelToggle returns a channel that never receives (SIGUSR1 is not available on Windows).
func notifyLevelToggle() (<-chan os.Signal, func()) {
	return make(chan os.Signal), func() {}
}
