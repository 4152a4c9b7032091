package media

import (
	"sync"
	"testing"
	"time"
)

func TestMock_EmitAfterCloseIsNoop(t *testing.T) {
	m := NewMock()
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Emitting on a closed mock must not panic.
	m.EmitTime(time.Second)
	m.EmitDuration(time.Minute)
	m.EmitEnded()

	if _, ok := <-m.Events(); ok {
		t.Error("events channel should be closed with nothing pending")
	}
}

func TestMock_CloseConcurrentWithEmit(t *testing.T) {
	for i := 0; i < 200; i++ {
		m := NewMock()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.EmitTime(time.Duration(j) * time.Millisecond)
			}
		}()
		m.Close()
		wg.Wait()
	}
}

func TestSimTrack_CloseConcurrentWithTicks(t *testing.T) {
	for i := 0; i < 50; i++ {
		tr := NewSimTrack(30 * time.Second)
		tr.Load("https://cdn.example.org/a/play.mp4")
		if err := tr.Play(); err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		tr.Close()
	}
}
