package wire_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/torosent/feedbench/internal/wire"
)

func TestRoundTrip(t *testing.T) {
	rec := wire.Record{
		SendTimestampNs: 1700000000123456789,
		Symbol:          wire.MakeSymbol("AAPL"),
		BidPrice:        9995,
		BidSize:         1200,
		AskPrice:        10005,
		AskSize:         1300,
		Sequence:        42,
	}

	buf := wire.Encode(rec)
	if len(buf) != wire.RecordSize {
		t.Fatalf("expected %d encoded bytes, got %d", wire.RecordSize, len(buf))
	}

	got, err := wire.Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != rec {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestDecodeRejectsShortBuffers(t *testing.T) {
	for _, n := range []int{0, 1, 8, 16, 31} {
		_, err := wire.Decode(make([]byte, n))
		if !errors.Is(err, wire.ErrShortMessage) {
			t.Errorf("length %d: expected ErrShortMessage, got %v", n, err)
		}
	}
}

func TestDecodeAcceptsLongBuffers(t *testing.T) {
	// Anything >= RecordSize decodes; trailing bytes are ignored.
	rec := wire.Record{SendTimestampNs: 500, Symbol: wire.MakeSymbol("MSFT"), Sequence: 7}
	buf := append(wire.Encode(rec), 0xde, 0xad, 0xbe, 0xef)

	got, err := wire.Decode(buf)
	if err != nil {
		t.Fatalf("decode of %d-byte buffer failed: %v", len(buf), err)
	}
	if got != rec {
		t.Errorf("got %+v, want %+v", got, rec)
	}
}

func TestTimestampIsBigEndian(t *testing.T) {
	rec := wire.Record{SendTimestampNs: 0x0102030405060708}
	buf := wire.Encode(rec)

	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if !bytes.Equal(buf[:8], want) {
		t.Errorf("timestamp bytes = %x, want %x", buf[:8], want)
	}
}

func TestFieldOffsets(t *testing.T) {
	rec := wire.Record{
		SendTimestampNs: 1,
		Symbol:          [4]byte{'G', 'O', 'O', 'G'},
		BidPrice:        0x11111111,
		BidSize:         0x22222222,
		AskPrice:        0x33333333,
		AskSize:         0x44444444,
		Sequence:        0x55555555,
	}
	buf := wire.Encode(rec)

	if string(buf[8:12]) != "GOOG" {
		t.Errorf("symbol bytes = %q, want GOOG", buf[8:12])
	}
	checks := []struct {
		off  int
		want byte
	}{
		{12, 0x11}, {16, 0x22}, {20, 0x33}, {24, 0x44}, {28, 0x55},
	}
	for _, c := range checks {
		if buf[c.off] != c.want {
			t.Errorf("offset %d = %#x, want %#x", c.off, buf[c.off], c.want)
		}
	}
}

func TestSymbolString(t *testing.T) {
	tests := []struct {
		raw  [4]byte
		want string
	}{
		{[4]byte{'A', 'A', 'P', 'L'}, "AAPL"},
		{[4]byte{'I', 'B', 'M', 0}, "IBM"},
		{[4]byte{'F', ' ', ' ', ' '}, "F"},
	}
	for _, tt := range tests {
		rec := wire.Record{Symbol: tt.raw}
		if got := rec.SymbolString(); got != tt.want {
			t.Errorf("SymbolString(%v) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
