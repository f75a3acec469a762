//go:build windows
// +build windows

package scyjava

import (
	"os"
	"os/signal"
)

// setSignalsForChannel configures the channel to receive interrupt signals.
func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt)
}
