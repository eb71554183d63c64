package midi

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func collect(c Cursor) []Event {
	var events []Event
	for {
		e, ok := c.Next()
		if !ok {
			return events
		}
		events = append(events, e)
	}
}

func TestCursorClampsReportedLengths(t *testing.T) {
	b := NewBuffer(256)
	b.AddRaw(0, 3, []byte{0x90, 60, 100})
	b.AddRaw(10, 0, nil)
	b.AddRaw(20, -1, nil)
	b.AddRaw(30, 5, []byte{0xF0, 1, 2, 3, 0xF7})

	events := collect(b.Cursor())

	wantLens := []int{3, 0, 0, 5}
	if len(events) != len(wantLens) {
		t.Fatalf("Expected %d events, got %d", len(wantLens), len(events))
	}
	for i, e := range events {
		if len(e.Data) != wantLens[i] {
			t.Errorf("Event %d: expected length %d, got %d", i, wantLens[i], len(e.Data))
		}
		if e.SampleOffset != int32(i*10) {
			t.Errorf("Event %d: expected offset %d, got %d", i, i*10, e.SampleOffset)
		}
	}
	if !bytes.Equal(events[3].Data, []byte{0xF0, 1, 2, 3, 0xF7}) {
		t.Errorf("Unexpected payload % X", events[3].Data)
	}
}

func TestCursorYieldsRecordsInOrder(t *testing.T) {
	payloads := [][]byte{
		{0x90, 60, 100},
		{0xB0, 64, 127},
		{0xE0, 0x00, 0x40},
		{0x80, 60, 0},
	}

	b := NewBuffer(0)
	for i, p := range payloads {
		b.Add(p, int32(i))
	}

	c := b.Cursor()
	for i, want := range payloads {
		e, ok := c.Next()
		if !ok {
			t.Fatalf("Cursor ended after %d events", i)
		}
		if !bytes.Equal(e.Data, want) {
			t.Errorf("Event %d: expected % X, got % X", i, want, e.Data)
		}
	}
	if _, ok := c.Next(); ok {
		t.Error("Expected end of sequence")
	}
	if _, ok := c.Next(); ok {
		t.Error("End of sequence should be sticky")
	}
	if !c.Done() {
		t.Error("Done should be true at the end")
	}
}

func TestCursorAliasesHostMemory(t *testing.T) {
	b := NewBuffer(64)
	b.Add([]byte{0x90, 60, 100}, 0)

	c := b.Cursor()
	e, _ := c.Next()
	b.data[headerSize+2] = 1
	if e.Data[2] != 1 {
		t.Error("Event data should reference the buffer, not a copy")
	}
	if cap(e.Data) != len(e.Data) {
		t.Error("Event data should not expose bytes past the record")
	}
}

func TestBufferAddKeepsTimeOrder(t *testing.T) {
	b := NewBuffer(128)
	b.Add([]byte{1}, 100)
	b.Add([]byte{2}, 50)
	b.Add([]byte{3}, 100)
	b.Add([]byte{4, 4}, 0)
	b.Add([]byte{5}, 50)

	var got []byte
	var offsets []int32
	for _, e := range collect(b.Cursor()) {
		got = append(got, e.Data[0])
		offsets = append(offsets, e.SampleOffset)
	}

	want := []byte{4, 2, 5, 1, 3}
	if !bytes.Equal(got, want) {
		t.Errorf("Expected order %v, got %v", want, got)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			t.Errorf("Offsets out of order: %v", offsets)
		}
	}
	if b.Len() != 5 {
		t.Errorf("Expected 5 records, got %d", b.Len())
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(64)
	b.Add([]byte{0x90, 60, 100}, 10)
	b.Clear()

	if b.Len() != 0 || b.Size() != 0 {
		t.Errorf("Expected empty buffer, got %d records, %d bytes", b.Len(), b.Size())
	}
	c := b.Cursor()
	if _, ok := c.Next(); ok {
		t.Error("Cursor over cleared buffer should be empty")
	}

	// Ordering restarts after Clear.
	b.Add([]byte{1}, 5)
	b.Add([]byte{2}, 1)
	events := collect(b.Cursor())
	if events[0].Data[0] != 2 {
		t.Errorf("Expected record at offset 1 first, got % X", events[0].Data)
	}
}

func TestAddRawPanicsOnShortPayload(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic")
		}
	}()
	NewBuffer(0).AddRaw(0, 4, []byte{1, 2})
}

func TestCursorTruncatedRecord(t *testing.T) {
	b := NewBuffer(64)
	b.AddRaw(0, 3, []byte{0x90, 60, 100})
	b.AddRaw(1, 3, []byte{0x80, 60, 0})

	// Cut the second record's payload short.
	c := NewCursor(b.data, 0, b.Size()-1)
	events := collect(c)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if len(events[1].Data) != 2 {
		t.Errorf("Expected truncated payload of 2 bytes, got %d", len(events[1].Data))
	}

	// A partial header is not a record.
	c = NewCursor(b.data, 0, 3+headerSize+4)
	if n := len(collect(c)); n != 1 {
		t.Errorf("Expected 1 event, got %d", n)
	}
}

func TestNewCursorClampsBounds(t *testing.T) {
	b := NewBuffer(64)
	b.Add([]byte{0xF8}, 0)

	if n := len(collect(NewCursor(b.data, -5, 1000))); n != 1 {
		t.Errorf("Expected 1 event, got %d", n)
	}
	if n := len(collect(NewCursor(b.data, 10, 2))); n != 0 {
		t.Errorf("Expected no events for inverted bounds, got %d", n)
	}
}

func TestCursorInvalidate(t *testing.T) {
	b := NewBuffer(64)
	b.Add([]byte{0x90, 60, 100}, 0)

	c := b.Cursor()
	c.Invalidate()
	if _, ok := c.Next(); ok {
		t.Error("Invalidated cursor should yield nothing")
	}

	var nilCursor Cursor
	nilCursor.Reset(nil)
	if _, ok := nilCursor.Next(); ok {
		t.Error("Cursor over nil buffer should yield nothing")
	}
}

func TestEventMessage(t *testing.T) {
	b := NewBuffer(64)
	b.Add(gomidi.NoteOn(1, 60, 100), 12)

	c := b.Cursor()
	e, _ := c.Next()

	var ch, key, vel uint8
	if !e.Message().GetNoteOn(&ch, &key, &vel) {
		t.Fatalf("Expected note on, got %s", e.Message())
	}
	if ch != 1 || key != 60 || vel != 100 {
		t.Errorf("Unexpected note on ch=%d key=%d vel=%d", ch, key, vel)
	}
	if e.String() != "Event{offset:12, data:91 3C 64}" {
		t.Errorf("Unexpected string %q", e.String())
	}
}

func TestCursorAllocations(t *testing.T) {
	b := NewBuffer(1024)
	for i := 0; i < 16; i++ {
		b.Add([]byte{0x90, byte(i), 100}, int32(i))
	}

	allocs := testing.AllocsPerRun(100, func() {
		c := b.Cursor()
		for {
			if _, ok := c.Next(); !ok {
				break
			}
		}
	})
	if allocs != 0 {
		t.Errorf("Cursor iteration allocated %.1f times per run", allocs)
	}
}

func TestBufferAddAllocations(t *testing.T) {
	b := NewBuffer(4096)
	msg := []byte{0x90, 60, 100}
	allocs := testing.AllocsPerRun(100, func() {
		b.Clear()
		b.Add(msg, 10)
		b.Add(msg, 5)
		b.Add(msg, 0)
	})
	if allocs != 0 {
		t.Errorf("Add allocated %.1f times per run", allocs)
	}
}
