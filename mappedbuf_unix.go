//go:build !windows
// +build !windows

package scyjava

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps the file read-write and shared, so writes are visible to
// any other process mapping the same file.
func mapFile(file *os.File, size int) ([]byte, error) {
	return unix.Mmap(int(file.Fd()), 0, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func unmapFile(file *os.File, data []byte) error {
	return unix.Munmap(data)
}

func syncMapping(file *os.File, data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}
