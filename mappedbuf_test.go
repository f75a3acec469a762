package scyjava

import (
	"bytes"
	"io"
	"os"
	"testing"
)

func TestMappedBufferReadWrite(t *testing.T) {
	mb, err := CreateMappedBuffer(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("CreateMappedBuffer failed: %v", err)
	}
	defer mb.Remove()

	if mb.Size() != 1024 {
		t.Errorf("Expected size 1024, got %d", mb.Size())
	}

	payload := []byte("shared with the JVM")
	n, err := mb.Write(payload)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(payload) {
		t.Errorf("Expected %d bytes written, got %d", len(payload), n)
	}

	if _, err := mb.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(mb, got); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Expected %q, got %q", payload, got)
	}

	// The mapping is visible directly through Bytes.
	if !bytes.Equal(mb.Bytes()[:len(payload)], payload) {
		t.Error("Expected payload visible via Bytes")
	}
}

func TestMappedBufferSharedView(t *testing.T) {
	mb, err := CreateMappedBuffer(t.TempDir(), 64)
	if err != nil {
		t.Fatalf("CreateMappedBuffer failed: %v", err)
	}
	defer mb.Remove()

	payload := []byte("cross-process bytes")
	if _, err := mb.Write(payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := mb.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	// A second mapping of the same file observes the data, as the Java
	// side would through FileChannel.map.
	other, err := OpenMappedBuffer(mb.Path)
	if err != nil {
		t.Fatalf("OpenMappedBuffer failed: %v", err)
	}
	defer other.Close()

	if other.Size() != 64 {
		t.Errorf("Expected size 64, got %d", other.Size())
	}
	if !bytes.Equal(other.Bytes()[:len(payload)], payload) {
		t.Error("Expected payload visible in second mapping")
	}
}

func TestMappedBufferBounds(t *testing.T) {
	mb, err := CreateMappedBuffer(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("CreateMappedBuffer failed: %v", err)
	}
	defer mb.Remove()

	// Writing past the end is a short write; the mapping cannot grow.
	n, err := mb.Write([]byte("0123456789"))
	if err != io.ErrShortWrite {
		t.Errorf("Expected io.ErrShortWrite, got %v", err)
	}
	if n != 8 {
		t.Errorf("Expected 8 bytes written, got %d", n)
	}

	if _, err := mb.Seek(-1, io.SeekStart); err == nil {
		t.Error("Expected error seeking before start")
	}
	if _, err := mb.Seek(1, io.SeekEnd); err == nil {
		t.Error("Expected error seeking past end")
	}

	if _, err := CreateMappedBuffer("", 0); err == nil {
		t.Error("Expected error for non-positive size")
	}
}

func TestMappedBufferClose(t *testing.T) {
	mb, err := CreateMappedBuffer(t.TempDir(), 16)
	if err != nil {
		t.Fatalf("CreateMappedBuffer failed: %v", err)
	}
	path := mb.Path

	if err := mb.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := mb.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
	if _, err := mb.Write([]byte("x")); err != os.ErrClosed {
		t.Errorf("Expected os.ErrClosed after Close, got %v", err)
	}

	// Close leaves the file; Remove deletes it.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected backing file to remain after Close: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Errorf("Failed to remove backing file: %v", err)
	}
}

func TestMappedBufferTypedViews(t *testing.T) {
	mb, err := CreateMappedBuffer(t.TempDir(), 64)
	if err != nil {
		t.Fatalf("CreateMappedBuffer failed: %v", err)
	}
	defer mb.Remove()

	f64 := mb.Float64Slice()
	if len(f64) != 8 {
		t.Fatalf("Expected 8 float64 elements, got %d", len(f64))
	}
	f64[0] = 3.25
	f64[7] = -1.5

	// The view aliases the mapping, so a second view sees the writes.
	if got := mb.Float64Slice()[0]; got != 3.25 {
		t.Errorf("Expected 3.25 via second view, got %v", got)
	}

	i32 := mb.Int32Slice()
	if len(i32) != 16 {
		t.Errorf("Expected 16 int32 elements, got %d", len(i32))
	}
	i64 := mb.Int64Slice()
	if len(i64) != 8 {
		t.Errorf("Expected 8 int64 elements, got %d", len(i64))
	}
	f32 := mb.Float32Slice()
	if len(f32) != 16 {
		t.Errorf("Expected 16 float32 elements, got %d", len(f32))
	}

	// Undersized mappings yield no view.
	small, err := CreateMappedBuffer(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("CreateMappedBuffer failed: %v", err)
	}
	defer small.Remove()
	if small.Int32Slice() != nil {
		t.Error("Expected nil view for 2-byte buffer")
	}
}
