package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestBufferedNeverBlocks(t *testing.T) {
	b := NewBuffered(2)

	// Far more sends than capacity; the extra updates are dropped and the
	// caller never blocks.
	for i := 0; i < 100; i++ {
		b.Report("status")
		b.Increment(1)
	}

	b.Close()
	drained := 0
	for range b.Events() {
		drained++
	}
	if drained != 2 {
		t.Errorf("drained %d events, want 2", drained)
	}
}

func TestBufferedDelivery(t *testing.T) {
	b := NewBuffered(4)
	b.Report("connecting")
	b.Increment(25)
	b.Close()

	ev := <-b.Events()
	if ev.Message != "connecting" {
		t.Errorf("first event = %+v", ev)
	}
	ev = <-b.Events()
	if ev.Increment != 25 {
		t.Errorf("second event = %+v", ev)
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := Writer(&buf)

	s.Report("starting")
	s.Increment(50)
	s.Increment(50)
	s.Report("done")

	out := buf.String()
	if !strings.Contains(out, "starting") || !strings.Contains(out, "done") {
		t.Errorf("output missing status lines: %q", out)
	}
	if !strings.Contains(out, "100%") {
		t.Errorf("output missing completed percentage: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	s := Discard()
	s.Report("ignored")
	s.Increment(10)
}
