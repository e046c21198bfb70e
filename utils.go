package wstf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// FillDigits scales a timestamp up by powers of 10 until it has at least
// 13 digits (>= 1e12), the way a unix-seconds timestamp gets normalized
// to unix-millis scale for binning; a unix-millis timestamp is already
// there and comes back unchanged. The source
// this was ported from printed every intermediate value to stdout inside
// the loop; that's gone here.
func FillDigits(input uint64) uint64 {
	if input == 0 {
		return 0
	}
	ret := input
	for ret < 1_000_000_000_000 {
		ret *= 10
	}
	return ret
}

// bigram pairs up adjacent elements: [a, b, c] -> [(a, b), (b, c)].
func bigram[T any](a []T) []pair[T] {
	if len(a) < 2 {
		return nil
	}
	out := make([]pair[T], 0, len(a)-1)
	for i := 0; i < len(a)-1; i++ {
		out = append(out, pair[T]{a[i], a[i+1]})
	}
	return out
}

type pair[T any] struct {
	first, second T
}

// withinRange reports whether [targetMin, targetMax] overlaps
// [fileMin, fileMax].
func withinRange(targetMin, targetMax, fileMin, fileMax uint64) bool {
	return targetMin <= fileMax && targetMax >= fileMin
}

// EpochToHuman renders a unix-seconds timestamp as an RFC-3339-ish UTC
// string, matching the source format's `DateTime<Utc>` Display output.
func EpochToHuman(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

// RawInsertPrefix tags every raw-insert envelope.
var RawInsertPrefix = [2]byte{'r', 'a'}

const maxBookNameLen = 64

// EncodeInsertInto builds the wire envelope for shipping a single update
// into an optionally-named book: "ra" + book-name length (u64 BE) +
// book-name bytes + the update's 21-byte raw form + '\n'.
func EncodeInsertInto(bookName string, update Update) ([]byte, error) {
	if len(bookName) > maxBookNameLen {
		return nil, fmt.Errorf("wstf: book name %q longer than %d bytes: %w", bookName, maxBookNameLen, ErrFormat)
	}

	var buf bytes.Buffer
	buf.Grow(2 + 8 + len(bookName) + rawRecordSize + 1)
	buf.Write(RawInsertPrefix[:])

	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(bookName)))
	buf.Write(lenBuf[:])
	buf.WriteString(bookName)

	if err := update.SerializeRaw(&buf); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// DecodeInsertInto is the inverse of EncodeInsertInto. bookName is empty
// when the envelope carried no book name.
func DecodeInsertInto(buf []byte) (update Update, bookName string, err error) {
	if len(buf) < len(RawInsertPrefix)+8 {
		return Update{}, "", fmt.Errorf("wstf: insert envelope truncated: %w", ErrFormat)
	}
	pos := len(RawInsertPrefix)
	nameLen := int(binary.BigEndian.Uint64(buf[pos : pos+8]))
	pos += 8

	if nameLen > 0 {
		if pos+nameLen > len(buf) {
			return Update{}, "", fmt.Errorf("wstf: insert envelope book name truncated: %w", ErrFormat)
		}
		bookName = string(buf[pos : pos+nameLen])
		pos += nameLen
	}

	update, err = UpdateFromRaw(buf[pos:])
	if err != nil {
		return Update{}, "", err
	}
	return update, bookName, nil
}
