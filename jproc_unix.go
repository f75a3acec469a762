//go:build !windows
// +build !windows

package scyjava

import (
	"os"
	"os/signal"
	"syscall"
)

// setSignalsForChannel configures the channel to receive SIGINT and SIGTERM.
func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
}
