package scyjava

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// pipeEnd adapts an in-memory buffer to the ReadCloser/WriteCloser pair the
// transport expects.
type pipeEnd struct {
	buf bytes.Buffer
}

func (p *pipeEnd) Read(b []byte) (int, error)  { return p.buf.Read(b) }
func (p *pipeEnd) Write(b []byte) (int, error) { return p.buf.Write(b) }
func (p *pipeEnd) Close() error                { return nil }

func TestMsgpackTransportRoundTrip(t *testing.T) {
	pipe := &pipeEnd{}
	mt := NewMsgpackTransport(pipe, pipe)

	sent := []byte("hello gateway")
	if err := mt.Send(sent); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	received, err := mt.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !bytes.Equal(received, sent) {
		t.Errorf("Expected %q, got %q", sent, received)
	}
}

func TestMsgpackTransportFraming(t *testing.T) {
	pipe := &pipeEnd{}
	mt := NewMsgpackTransport(pipe, pipe)

	// Multiple messages keep their boundaries.
	messages := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, m := range messages {
		if err := mt.Send(m); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	for _, want := range messages {
		got, err := mt.Receive()
		if err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}

func TestMsgpackTransportLargeMessage(t *testing.T) {
	pipe := &pipeEnd{}
	mt := NewMsgpackTransport(pipe, pipe)

	// Larger than the pooled buffer size, forcing the allocation path.
	large := make([]byte, 64*1024)
	for i := range large {
		large[i] = byte(i)
	}
	if err := mt.Send(large); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	got, err := mt.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !bytes.Equal(got, large) {
		t.Error("Large message corrupted in transit")
	}
}

func TestMsgpackTransportEOF(t *testing.T) {
	pipe := &pipeEnd{}
	mt := NewMsgpackTransport(pipe, pipe)

	if _, err := mt.Receive(); err != io.EOF {
		t.Errorf("Expected io.EOF on empty pipe, got %v", err)
	}
}

func TestMsgpackSerializerRoundTrip(t *testing.T) {
	ser := MsgpackSerializer{}
	original := map[string]interface{}{
		"command":    "call",
		"request_id": "abc-123",
		"data": map[string]interface{}{
			"method": "size",
		},
	}
	payload, err := ser.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := ser.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["command"] != "call" || decoded["request_id"] != "abc-123" {
		t.Errorf("Unexpected decoded message: %v", decoded)
	}
	data, ok := decoded["data"].(map[string]interface{})
	if !ok || data["method"] != "size" {
		t.Errorf("Unexpected nested data: %v", decoded["data"])
	}
}

func TestBufferPoolReuse(t *testing.T) {
	bp := NewBufferPool(1024, 2)

	buf := bp.Get()
	if cap(buf) != 1024 {
		t.Errorf("Expected capacity 1024, got %d", cap(buf))
	}
	bp.Put(buf)

	// Wrong-sized buffers are discarded silently.
	bp.Put(make([]byte, 10))
	next := bp.Get()
	if cap(next) != 1024 {
		t.Errorf("Expected pooled buffer with capacity 1024, got %d", cap(next))
	}
}

func TestBufferPoolConcurrent(t *testing.T) {
	bp := NewBufferPool(1024, 10)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := bp.Get()
				if cap(buf) != 1024 {
					t.Errorf("Got buffer with wrong capacity: %d", cap(buf))
					return
				}
				buf[0] = byte(j)
				bp.Put(buf)
			}
		}()
	}
	wg.Wait()
}
