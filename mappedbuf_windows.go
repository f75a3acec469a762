//go:build windows
// +build windows

package scyjava

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mapFile maps the file read-write and shared via a file mapping object.
func mapFile(file *os.File, size int) ([]byte, error) {
	handle, err := windows.CreateFileMapping(windows.Handle(file.Fd()), nil,
		windows.PAGE_READWRITE, 0, uint32(size), nil)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(handle)

	addr, err := windows.MapViewOfFile(handle, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func unmapFile(file *os.File, data []byte) error {
	return windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&data[0])))
}

func syncMapping(file *os.File, data []byte) error {
	if err := windows.FlushViewOfFile(uintptr(unsafe.Pointer(&data[0])), uintptr(len(data))); err != nil {
		return err
	}
	return windows.FlushFileBuffers(windows.Handle(file.Fd()))
}
