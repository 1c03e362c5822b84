// Package wire implements the fixed 32-byte order book update format
// carried in each UDP multicast datagram.
package wire

import (
	"encoding/binary"
	"errors"
	"strings"
)

// RecordSize is the exact length in bytes of an encoded Record.
const RecordSize = 32

// ErrShortMessage is returned by Decode when the buffer cannot hold a
// full record.
var ErrShortMessage = errors.New("wire: message shorter than record size")

// Record is a single synthetic order book update. The send timestamp is
// embedded by the feed simulator at generation time and is the basis for
// all latency measurement on the receive side.
type Record struct {
	SendTimestampNs uint64  // nanoseconds since epoch at generation time
	Symbol          [4]byte // ASCII ticker, zero- or space-padded
	BidPrice        uint32  // minor currency units
	BidSize         uint32
	AskPrice        uint32 // minor currency units
	AskSize         uint32
	Sequence        uint32 // per-stream send counter, informational only
}

// Field offsets within an encoded record. All numeric fields are written
// big-endian, matching the feed wire format.
const (
	offTimestamp = 0
	offSymbol    = 8
	offBidPrice  = 12
	offBidSize   = 16
	offAskPrice  = 20
	offAskSize   = 24
	offSequence  = 28
)

// Decode parses one record from buf. Buffers shorter than RecordSize fail
// with ErrShortMessage; longer buffers are accepted and trailing bytes are
// ignored. Decode performs fixed-offset reads only and does not allocate.
func Decode(buf []byte) (Record, error) {
	if len(buf) < RecordSize {
		return Record{}, ErrShortMessage
	}
	var rec Record
	rec.SendTimestampNs = binary.BigEndian.Uint64(buf[offTimestamp:])
	copy(rec.Symbol[:], buf[offSymbol:offSymbol+4])
	rec.BidPrice = binary.BigEndian.Uint32(buf[offBidPrice:])
	rec.BidSize = binary.BigEndian.Uint32(buf[offBidSize:])
	rec.AskPrice = binary.BigEndian.Uint32(buf[offAskPrice:])
	rec.AskSize = binary.BigEndian.Uint32(buf[offAskSize:])
	rec.Sequence = binary.BigEndian.Uint32(buf[offSequence:])
	return rec, nil
}

// Encode returns a freshly allocated encoded record.
func Encode(rec Record) []byte {
	buf := make([]byte, RecordSize)
	EncodeTo(rec, buf)
	return buf
}

// EncodeTo writes the encoded record into buf, which must be at least
// RecordSize bytes long. Send loops reuse one buffer across calls.
func EncodeTo(rec Record, buf []byte) {
	_ = buf[RecordSize-1]
	binary.BigEndian.PutUint64(buf[offTimestamp:], rec.SendTimestampNs)
	copy(buf[offSymbol:offSymbol+4], rec.Symbol[:])
	binary.BigEndian.PutUint32(buf[offBidPrice:], rec.BidPrice)
	binary.BigEndian.PutUint32(buf[offBidSize:], rec.BidSize)
	binary.BigEndian.PutUint32(buf[offAskPrice:], rec.AskPrice)
	binary.BigEndian.PutUint32(buf[offAskSize:], rec.AskSize)
	binary.BigEndian.PutUint32(buf[offSequence:], rec.Sequence)
}

// SymbolString returns the ticker with trailing padding removed.
func (r Record) SymbolString() string {
	return strings.TrimRight(string(r.Symbol[:]), "\x00 ")
}

// MakeSymbol converts a ticker string into the fixed wire representation,
// truncating beyond four characters and zero-padding shorter names.
func MakeSymbol(s string) [4]byte {
	var sym [4]byte
	copy(sym[:], s)
	return sym
}
