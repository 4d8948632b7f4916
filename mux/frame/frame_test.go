package frame

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
	"testing/quick"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		in      Message
		framing Framing
		id      uint8
		kind    Kind
		wire    int
	}{
		{
			in:   CloseMessage{ChannelID: 10},
			id:   10,
			kind: KindClose,
			wire: 2,
		},
		{
			in:   DataMessage{ChannelID: 10, Data: []byte("Hello")},
			id:   10,
			kind: KindData,
			wire: 11,
		},
		{
			in:   DataMessage{ChannelID: 3},
			id:   3,
			kind: KindData,
			wire: 6,
		},
		{
			in:   NewMessage{ChannelID: 200},
			id:   200,
			kind: KindNew,
			wire: 2,
		},
		{
			in:      NewMessage{ChannelID: 200, Payload: []byte("hi")},
			framing: FramingNewPayload,
			id:      200,
			kind:    KindNew,
			wire:    8,
		},
		{
			in:   AcceptMessage{ChannelID: 20},
			id:   20,
			kind: KindAccept,
			wire: 2,
		},
		{
			in:   RefusedMessage{ChannelID: 20, Reason: "no"},
			id:   20,
			kind: KindRefused,
			wire: 8,
		},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		enc := NewEncoder(&buf, test.framing)
		if err := enc.Encode(test.in); err != nil {
			t.Fatal(err)
		}
		if buf.Len() != test.wire {
			t.Fatalf("%v: wire length %d, want %d", test.in, buf.Len(), test.wire)
		}
		dec := NewDecoder(&buf, test.framing)
		raw, err := dec.Decode()
		if err != nil {
			t.Fatal(err)
		}
		m, err := Parse(raw, test.framing)
		if err != nil {
			t.Fatal(err)
		}
		if m.Channel() != test.id {
			t.Fatal("id not equal")
		}
		if m.Kind() != test.kind {
			t.Fatal("kind not equal")
		}
		if m.String() == "" {
			t.Fatal("empty string representation")
		}
		if !bytes.Equal(m.Bytes(test.framing), test.in.Bytes(test.framing)) {
			t.Fatalf("re-encoded %v differs from %v", m, test.in)
		}
	}
}

func TestWireLayout(t *testing.T) {
	got := DataMessage{ChannelID: 7, Data: []byte{1, 2, 3}}.Bytes(FramingCompact)
	want := []byte{7, 0, 3, 0, 0, 0, 1, 2, 3}
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected DATA layout: % x", got)
	}

	got = RefusedMessage{ChannelID: 0xff, Reason: "no"}.Bytes(FramingCompact)
	want = []byte{0xff, 4, 2, 0, 0, 0, 'n', 'o'}
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected REFUSED layout: % x", got)
	}

	got = NewMessage{ChannelID: 1, Payload: []byte("ignored")}.Bytes(FramingCompact)
	if !bytes.Equal(got, []byte{1, 1}) {
		t.Fatalf("unexpected compact NEW layout: % x", got)
	}
}

func TestLengthRoundTrip(t *testing.T) {
	f := func(n uint32) bool {
		b := EncodeLength(n)
		got, err := DecodeLength(b[:], 0)
		return err == nil && got == n
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}

	for _, n := range []uint32{0, 1, 255, 256, 8192, math.MaxInt32, math.MaxUint32} {
		b := EncodeLength(n)
		buf := append([]byte{9, 9}, b[:]...)
		got, err := DecodeLength(buf, 2)
		if err != nil {
			t.Fatal(err)
		}
		if got != n {
			t.Fatalf("decoded %d, want %d", got, n)
		}
		again := EncodeLength(got)
		if again != b {
			t.Fatalf("re-encoding %d changed bytes", n)
		}
	}

	if b := EncodeLength(0x01020304); b != [4]byte{4, 3, 2, 1} {
		t.Fatalf("length is not little-endian: % x", b)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := map[string][]byte{
		"empty":             nil,
		"short header":      {1},
		"unknown kind":      {1, 9},
		"missing length":    {1, byte(KindData), 1, 0},
		"truncated payload": {1, byte(KindData), 5, 0, 0, 0, 1, 2},
		"refused truncated": {1, byte(KindRefused), 3, 0, 0, 0, 'n'},
	}
	for name, raw := range tests {
		_, err := Parse(raw, FramingCompact)
		var invalid *InvalidDataError
		if !errors.As(err, &invalid) {
			t.Fatalf("%s: expected InvalidDataError, got %v", name, err)
		}
		if !bytes.Equal(invalid.Data, raw) {
			t.Fatalf("%s: error does not carry the raw frame", name)
		}
	}
}

func TestParseCopiesPayload(t *testing.T) {
	raw := DataMessage{ChannelID: 1, Data: []byte{1, 2, 3}}.Bytes(FramingCompact)
	m, err := Parse(raw, FramingCompact)
	if err != nil {
		t.Fatal(err)
	}
	raw[6] = 42
	if m.(DataMessage).Data[0] != 1 {
		t.Fatal("payload aliases the raw frame")
	}
}

func TestDecoderErrors(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(nil), FramingCompact)
	if _, err := dec.Decode(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}

	dec = NewDecoder(bytes.NewReader([]byte{1, byte(KindData), 9, 0, 0, 0, 1}), FramingCompact)
	if _, err := dec.Decode(); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}

	dec = NewDecoder(bytes.NewReader([]byte{1, byte(KindData), 9, 0, 0, 0}), FramingCompact)
	dec.MaxPayload = 4
	var invalid *InvalidDataError
	if _, err := dec.Decode(); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDataError, got %v", err)
	}
}

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() error {
	f.flushes++
	return nil
}

func TestEncoderFlushes(t *testing.T) {
	var w flushRecorder
	enc := NewEncoder(&w, FramingCompact)
	if err := enc.Encode(AcceptMessage{ChannelID: 1}); err != nil {
		t.Fatal(err)
	}
	if w.flushes != 1 {
		t.Fatalf("expected one flush, got %d", w.flushes)
	}
}
