package wstf

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// Flags is the one-byte bitfield carried by every delta and raw record.
// Bit 0 is is_bid, bit 1 is is_trade; all other bits are reserved zero.
type Flags uint8

const (
	FlagEmpty   Flags = 0
	FlagIsBid   Flags = 1 << 0
	FlagIsTrade Flags = 1 << 1
)

// IsBid and IsTrade are independent bit tests. The source this format was
// ported from collapsed this into a single equality check against the two
// single-bit patterns, which silently treated "both bits set" as neither
// flag being true; that behavior is not reproduced here.
func (f Flags) IsBid() bool   { return f&FlagIsBid != 0 }
func (f Flags) IsTrade() bool { return f&FlagIsTrade != 0 }

func flagsFor(isBid, isTrade bool) Flags {
	var f Flags
	if isBid {
		f |= FlagIsBid
	}
	if isTrade {
		f |= FlagIsTrade
	}
	return f
}

// Update is one order-book or trade event: a timestamp/sequence pair plus
// a side-tagged price/size.
type Update struct {
	Ts      uint64
	Seq     uint32
	IsTrade bool
	IsBid   bool
	Price   float32
	Size    float32
}

// Less orders updates by (Ts, Seq), matching the on-disk sort order every
// batch assumes.
func (u Update) Less(other Update) bool {
	if u.Ts != other.Ts {
		return u.Ts < other.Ts
	}
	return u.Seq < other.Seq
}

// SortUpdates sorts in place by (Ts, Seq).
func SortUpdates(ups []Update) {
	sort.Slice(ups, func(i, j int) bool { return ups[i].Less(ups[j]) })
}

const (
	deltaRecordSize = 12
	rawRecordSize   = 21
)

// serializeDelta writes the 12-byte intra-batch form relative to a batch's
// reference timestamp/sequence. Fails if seq precedes refSeq: a batch
// reference can only move forward within its own batch.
func (u Update) serializeDelta(w io.Writer, refTs uint64, refSeq uint32) error {
	if u.Seq < refSeq {
		return fmt.Errorf("wstf: record seq %d precedes batch reference seq %d: %w", u.Seq, refSeq, ErrFormat)
	}
	var buf [deltaRecordSize]byte
	binary.BigEndian.PutUint16(buf[0:2], uint16(u.Ts-refTs))
	buf[2] = byte(u.Seq - refSeq)
	buf[3] = byte(flagsFor(u.IsBid, u.IsTrade))
	binary.BigEndian.PutUint32(buf[4:8], math.Float32bits(u.Price))
	binary.BigEndian.PutUint32(buf[8:12], math.Float32bits(u.Size))
	_, err := w.Write(buf[:])
	return err
}

func decodeDelta(buf []byte, refTs uint64, refSeq uint32) Update {
	_ = buf[11]
	ts := refTs + uint64(binary.BigEndian.Uint16(buf[0:2]))
	seq := refSeq + uint32(buf[2])
	flags := Flags(buf[3])
	price := math.Float32frombits(binary.BigEndian.Uint32(buf[4:8]))
	size := math.Float32frombits(binary.BigEndian.Uint32(buf[8:12]))
	return Update{Ts: ts, Seq: seq, IsTrade: flags.IsTrade(), IsBid: flags.IsBid(), Price: price, Size: size}
}

// SerializeRaw writes the 21-byte standalone form (ts:u64, seq:u32,
// flags:u8, price:f32, size:f32) used by the raw-insert envelope.
func (u Update) SerializeRaw(w io.Writer) error {
	var buf [rawRecordSize]byte
	binary.BigEndian.PutUint64(buf[0:8], u.Ts)
	binary.BigEndian.PutUint32(buf[8:12], u.Seq)
	buf[12] = byte(flagsFor(u.IsBid, u.IsTrade))
	binary.BigEndian.PutUint32(buf[13:17], math.Float32bits(u.Price))
	binary.BigEndian.PutUint32(buf[17:21], math.Float32bits(u.Size))
	_, err := w.Write(buf[:])
	return err
}

// UpdateFromRaw decodes the standalone form produced by SerializeRaw.
func UpdateFromRaw(buf []byte) (Update, error) {
	if len(buf) < rawRecordSize {
		return Update{}, fmt.Errorf("wstf: raw record needs %d bytes, got %d: %w", rawRecordSize, len(buf), ErrFormat)
	}
	ts := binary.BigEndian.Uint64(buf[0:8])
	seq := binary.BigEndian.Uint32(buf[8:12])
	flags := Flags(buf[12])
	price := math.Float32frombits(binary.BigEndian.Uint32(buf[13:17]))
	size := math.Float32frombits(binary.BigEndian.Uint32(buf[17:21]))
	return Update{Ts: ts, Seq: seq, IsTrade: flags.IsTrade(), IsBid: flags.IsBid(), Price: price, Size: size}, nil
}

// AsJSON mirrors the original wire format: ts rendered in (fractional)
// seconds, everything else verbatim.
func (u Update) AsJSON() string {
	return fmt.Sprintf(
		`{"ts":%s,"seq":%d,"is_trade":%t,"is_bid":%t,"price":%s,"size":%s}`,
		formatFloat64(float64(u.Ts)/1000.0), u.Seq, u.IsTrade, u.IsBid,
		formatFloat32(u.Price), formatFloat32(u.Size),
	)
}

func (u Update) AsCSV() string {
	return fmt.Sprintf(
		"%s,%d,%t,%t,%s,%s",
		formatFloat64(float64(u.Ts)/1000.0), u.Seq, u.IsTrade, u.IsBid,
		formatFloat32(u.Price), formatFloat32(u.Size),
	)
}

func formatFloat64(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%g", v), ".0")
}

func formatFloat32(v float32) string {
	return strings.TrimSuffix(fmt.Sprintf("%g", v), ".0")
}

// UpdatesAsJSON joins each update's AsJSON with ", ", matching the
// companion server's bracketed batch response.
func UpdatesAsJSON(ups []Update) string {
	parts := make([]string, len(ups))
	for i, u := range ups {
		parts[i] = u.AsJSON()
	}
	return strings.Join(parts, ", ")
}

func UpdatesAsCSV(ups []Update) string {
	parts := make([]string, len(ups))
	for i, u := range ups {
		parts[i] = u.AsCSV()
	}
	return strings.Join(parts, "\n")
}
