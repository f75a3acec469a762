package scyjava

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"
)

// MappedBuffer is a file-backed byte buffer shared with the gateway JVM.
// The Go side maps the file into memory; the Java side maps the same file
// with FileChannel.map, giving both processes a zero-copy view of the same
// bytes. Useful for moving large arrays without paying the RPC framing
// cost.
//
// Coordination is the caller's job: the buffer carries no locks across the
// process boundary. The usual pattern is to fill the buffer, then tell the
// JVM about it via a gateway call carrying the path.
type MappedBuffer struct {
	// Path is the backing file path, to hand to the Java side.
	Path string

	file *os.File
	data []byte

	mu     sync.Mutex
	pos    int
	closed bool
}

// CreateMappedBuffer creates a new file of the given size and maps it.
// An empty dir means the system temporary directory.
func CreateMappedBuffer(dir string, size int) (*MappedBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer size must be positive: %d", size)
	}
	if dir == "" {
		dir = os.TempDir()
	}

	file, err := os.CreateTemp(dir, "scyjava-buffer-*.bin")
	if err != nil {
		return nil, fmt.Errorf("error creating buffer file: %v", err)
	}
	if err := file.Truncate(int64(size)); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("error sizing buffer file: %v", err)
	}

	data, err := mapFile(file, size)
	if err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("error mapping buffer file: %v", err)
	}

	return &MappedBuffer{Path: file.Name(), file: file, data: data}, nil
}

// OpenMappedBuffer maps an existing file, for buffers created by the JVM
// side.
func OpenMappedBuffer(path string) (*MappedBuffer, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("error opening buffer file: %v", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	data, err := mapFile(file, int(info.Size()))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error mapping buffer file: %v", err)
	}

	return &MappedBuffer{Path: path, file: file, data: data}, nil
}

// Size returns the buffer length in bytes.
func (mb *MappedBuffer) Size() int { return len(mb.data) }

// Bytes returns the mapped bytes. The slice aliases the mapping and is
// invalid after Close.
func (mb *MappedBuffer) Bytes() []byte { return mb.data }

// Typed views alias the mapping directly in native byte order, which is
// what the JVM side sees through ByteBuffer.order(ByteOrder.nativeOrder()).
// The mapping is page-aligned, so element alignment holds. All views are
// invalid after Close.

// Int32Slice returns the mapping viewed as []int32.
func (mb *MappedBuffer) Int32Slice() []int32 {
	if len(mb.data) < 4 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&mb.data[0])), len(mb.data)/4)
}

// Int64Slice returns the mapping viewed as []int64.
func (mb *MappedBuffer) Int64Slice() []int64 {
	if len(mb.data) < 8 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&mb.data[0])), len(mb.data)/8)
}

// Float32Slice returns the mapping viewed as []float32.
func (mb *MappedBuffer) Float32Slice() []float32 {
	if len(mb.data) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&mb.data[0])), len(mb.data)/4)
}

// Float64Slice returns the mapping viewed as []float64.
func (mb *MappedBuffer) Float64Slice() []float64 {
	if len(mb.data) < 8 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&mb.data[0])), len(mb.data)/8)
}

// Read implements io.Reader over the buffer contents.
func (mb *MappedBuffer) Read(p []byte) (int, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return 0, os.ErrClosed
	}
	if mb.pos >= len(mb.data) {
		return 0, io.EOF
	}
	n := copy(p, mb.data[mb.pos:])
	mb.pos += n
	return n, nil
}

// Write implements io.Writer over the buffer contents. Writing past the
// end returns io.ErrShortWrite; the mapping cannot grow.
func (mb *MappedBuffer) Write(p []byte) (int, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return 0, os.ErrClosed
	}
	n := copy(mb.data[mb.pos:], p)
	mb.pos += n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Seek implements io.Seeker.
func (mb *MappedBuffer) Seek(offset int64, whence int) (int64, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(mb.pos) + offset
	case io.SeekEnd:
		pos = int64(len(mb.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if pos < 0 || pos > int64(len(mb.data)) {
		return 0, fmt.Errorf("seek position out of range: %d", pos)
	}
	mb.pos = int(pos)
	return pos, nil
}

// Sync flushes the mapping to the backing file so the JVM side observes
// the writes.
func (mb *MappedBuffer) Sync() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return os.ErrClosed
	}
	return syncMapping(mb.file, mb.data)
}

// Close unmaps the buffer and closes the backing file. The file itself is
// left in place; Remove deletes it.
func (mb *MappedBuffer) Close() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return nil
	}
	mb.closed = true

	err := unmapFile(mb.file, mb.data)
	mb.data = nil
	if cerr := mb.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Remove closes the buffer and deletes the backing file.
func (mb *MappedBuffer) Remove() error {
	err := mb.Close()
	if rerr := os.Remove(mb.Path); err == nil {
		err = rerr
	}
	return err
}
