package ui

import (
	"io"
	"testing"
	"time"
)

func TestFrameRing_WriteRead(t *testing.T) {
	r := NewFrameRing(4)
	r.Write([]int16{1, -1, 0x1234, 0x5678})

	if got := r.Buffered(); got != 8 {
		t.Fatalf("buffered: got %d, want 8", got)
	}

	p := make([]byte, 16)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []byte{0x01, 0x00, 0xFF, 0xFF, 0x34, 0x12, 0x78, 0x56}
	if n != len(want) {
		t.Fatalf("read bytes: got %d, want %d", n, len(want))
	}
	for i := range want {
		if p[i] != want[i] {
			t.Errorf("byte %d: got 0x%02X, want 0x%02X", i, p[i], want[i])
		}
	}
}

func TestFrameRing_DropsOldest(t *testing.T) {
	r := NewFrameRing(2)
	r.Write([]int16{1, 1, 2, 2})
	r.Write([]int16{3, 3})

	if got := r.Dropped(); got != 1 {
		t.Errorf("dropped: got %d, want 1", got)
	}
	p := make([]byte, 8)
	n, _ := r.Read(p)
	if n != 8 || p[0] != 2 || p[4] != 3 {
		t.Errorf("after overflow: got %v (%d bytes), want frames 2 and 3", p, n)
	}
}

func TestFrameRing_OddWrite(t *testing.T) {
	r := NewFrameRing(4)
	r.Write([]int16{7})
	if got := r.Buffered(); got != 0 {
		t.Errorf("buffered: got %d, want 0", got)
	}
}

func TestFrameRing_SplitFrame(t *testing.T) {
	r := NewFrameRing(4)
	r.Write([]int16{0x0102, 0x0304})

	p := make([]byte, 3)
	n, _ := r.Read(p)
	if n != 3 {
		t.Fatalf("first read: got %d bytes, want 3", n)
	}
	if got := r.Buffered(); got != 1 {
		t.Errorf("buffered: got %d, want 1", got)
	}
	n, _ = r.Read(p)
	if n != 1 || p[0] != 0x03 {
		t.Errorf("second read: got %d bytes (0x%02X), want 1 (0x03)", n, p[0])
	}
}

func TestFrameRing_Clear(t *testing.T) {
	r := NewFrameRing(4)
	r.Write([]int16{1, 2, 3, 4})
	r.Clear()
	if got := r.Buffered(); got != 0 {
		t.Errorf("buffered after clear: got %d, want 0", got)
	}
}

func TestFrameRing_CloseUnblocksRead(t *testing.T) {
	r := NewFrameRing(4)
	errCh := make(chan error, 1)
	go func() {
		_, err := r.Read(make([]byte, 4))
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	r.Close()

	select {
	case err := <-errCh:
		if err != io.EOF {
			t.Errorf("got %v, want io.EOF", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read still blocked after Close")
	}
}
