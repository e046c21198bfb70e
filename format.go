package wstf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Header layout, all offsets from the start of the file.
const (
	symbolLen    = 20
	symbolOffset = 5
	lenOffset    = 25
	maxTsOffset  = 33
	headerSize   = 80 // main body starts here
)

var magicValue = [5]byte{0x57, 0x53, 0x54, 0x46, 0x01}

// Metadata is the header-level summary of a WSTF file.
type Metadata struct {
	Symbol string
	Nums   uint64
	MaxTs  uint64
	MinTs  uint64
}

func (m Metadata) String() string {
	return fmt.Sprintf(
		`{"symbol": %q,"nums": %d,"max_ts": %d,"max_ts_human": %q,"min_ts": %d,"min_ts_human": %q}`,
		m.Symbol, m.Nums, m.MaxTs, EpochToHuman(m.MaxTs/1000), m.MinTs, EpochToHuman(m.MinTs/1000),
	)
}

// BatchHeader is the 14-byte framing (beyond the leading 0x01 marker byte)
// that precedes every batch body.
type BatchHeader struct {
	RefTs  uint64
	RefSeq uint32
	Count  uint16
}

const (
	batchHeaderSize = 8 + 4 + 2 // 14
	batchMarker     = 0x01
)

var writeBufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// --- writing ---

func writeMagic(w io.Writer) error {
	_, err := w.Write(magicValue[:])
	return err
}

func writeSymbol(w io.Writer, symbol string) error {
	if len(symbol) > symbolLen {
		return fmt.Errorf("wstf: symbol %q longer than %d bytes: %w", symbol, symbolLen, ErrFormat)
	}
	padded := make([]byte, symbolLen)
	copy(padded, symbol)
	for i := len(symbol); i < symbolLen; i++ {
		padded[i] = ' '
	}
	_, err := w.Write(padded)
	return err
}

func writeLen(w io.WriteSeeker, n uint64) error {
	if _, err := w.Seek(lenOffset, io.SeekStart); err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

func writeMaxTs(w io.WriteSeeker, maxTs uint64) error {
	if _, err := w.Seek(maxTsOffset, io.SeekStart); err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], maxTs)
	_, err := w.Write(buf[:])
	return err
}

func writeReference(w io.Writer, refTs uint64, refSeq uint32, count uint16) error {
	var buf [1 + batchHeaderSize]byte
	buf[0] = batchMarker
	binary.BigEndian.PutUint64(buf[1:9], refTs)
	binary.BigEndian.PutUint32(buf[9:13], refSeq)
	binary.BigEndian.PutUint16(buf[13:15], count)
	_, err := w.Write(buf[:])
	return err
}

// writeBatches applies the rollover rule: a batch closes and a new one
// opens whenever the delta-encodable ranges would overflow, the
// reference would need to move backward, or the batch hits its 0xFFFF
// record cap. Note the seq bound is 0xF, not 0xFF — narrower than the
// 1-byte delta-seq field could hold; kept as-is, it only shortens
// batches, it never corrupts one.
func writeBatches(w io.Writer, ups []Update) error {
	if len(ups) == 0 {
		return nil
	}

	buf := writeBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer writeBufPool.Put(buf)

	refTs := ups[0].Ts
	refSeq := ups[0].Seq
	var count uint16

	for _, u := range ups {
		if count != 0 && (u.Ts >= refTs+0xFFFF ||
			u.Seq >= refSeq+0xF ||
			u.Seq < refSeq ||
			u.Ts < refTs ||
			count == 0xFFFF) {
			if err := writeReference(w, refTs, refSeq, count); err != nil {
				return err
			}
			if _, err := w.Write(buf.Bytes()); err != nil {
				return err
			}
			buf.Reset()

			refTs = u.Ts
			refSeq = u.Seq
			count = 0
		}

		if err := u.serializeDelta(buf, refTs, refSeq); err != nil {
			return err
		}
		count++
	}

	if err := writeReference(w, refTs, refSeq, count); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeMain(w io.WriteSeeker, ups []Update) error {
	if _, err := w.Seek(headerSize, io.SeekStart); err != nil {
		return err
	}
	return writeBatches(w, ups)
}

// EncodeBuffer writes a full WSTF file body (header + batches) to an
// arbitrary WriteSeeker. A no-op for an empty update slice, matching the
// source encoder (an empty file is simply never started).
func EncodeBuffer(w io.WriteSeeker, symbol string, ups []Update) error {
	if len(ups) == 0 {
		return nil
	}
	if err := writeMagic(w); err != nil {
		return err
	}
	if err := writeSymbol(w, symbol); err != nil {
		return err
	}
	if err := writeLen(w, uint64(len(ups))); err != nil {
		return err
	}
	if err := writeMaxTs(w, ups[len(ups)-1].Ts); err != nil {
		return err
	}
	return writeMain(w, ups)
}

// Encode creates fname and writes symbol/ups to it.
func Encode(fname, symbol string, ups []Update) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := EncodeBuffer(f, symbol, ups); err != nil {
		return err
	}
	return f.Sync()
}

// --- reading ---

func readMagicValue(r io.ReadSeeker) (bool, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	buf := make([]byte, 5)
	if _, err := io.ReadFull(r, buf); err != nil {
		return false, err
	}
	return bytes.Equal(buf, magicValue[:]), nil
}

// IsWSTF reports whether fname starts with the WSTF magic value.
func IsWSTF(fname string) (bool, error) {
	f, err := os.Open(fname)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return readMagicValue(f)
}

func openReader(fname string) (*os.File, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	ok, err := readMagicValue(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if !ok {
		f.Close()
		return nil, fmt.Errorf("wstf: %s has an invalid magic value: %w", fname, ErrFormat)
	}
	return f, nil
}

func readSymbol(r io.ReadSeeker) (string, error) {
	if _, err := r.Seek(symbolOffset, io.SeekStart); err != nil {
		return "", err
	}
	buf := make([]byte, symbolLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(string(buf)), nil
}

func readLen(r io.ReadSeeker) (uint64, error) {
	if _, err := r.Seek(lenOffset, io.SeekStart); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readMaxTs(r io.ReadSeeker) (uint64, error) {
	if _, err := r.Seek(maxTsOffset, io.SeekStart); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readBatchHeader(r io.Reader) (BatchHeader, error) {
	var buf [batchHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return BatchHeader{}, err
	}
	return BatchHeader{
		RefTs:  binary.BigEndian.Uint64(buf[0:8]),
		RefSeq: binary.BigEndian.Uint32(buf[8:12]),
		Count:  binary.BigEndian.Uint16(buf[12:14]),
	}, nil
}

func readOneUpdate(r io.Reader, h BatchHeader) (Update, error) {
	var buf [deltaRecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Update{}, err
	}
	return decodeDelta(buf[:], h.RefTs, h.RefSeq), nil
}

func readBatchBody(r io.Reader, h BatchHeader) ([]Update, error) {
	ups := make([]Update, 0, h.Count)
	for i := uint16(0); i < h.Count; i++ {
		u, err := readOneUpdate(r, h)
		if err != nil {
			return nil, err
		}
		ups = append(ups, u)
	}
	return ups, nil
}

// readOneBatch consumes a single marker byte; a non-marker byte yields an
// empty batch rather than ending iteration (only a read error does) —
// this mirrors how the source format's DecodeBuffer resyncs a wire stream
// byte by byte rather than requiring an exact batch boundary.
func readOneBatch(r io.Reader) ([]Update, error) {
	var marker [1]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		return nil, err
	}
	if marker[0] != batchMarker {
		return nil, nil
	}
	h, err := readBatchHeader(r)
	if err != nil {
		return nil, err
	}
	return readBatchBody(r, h)
}

// ReadOneBatch reads a single batch off r, for callers streaming updates
// directly from a connection rather than a whole in-memory buffer.
func ReadOneBatch(r io.Reader) ([]Update, error) {
	return readOneBatch(r)
}

// DecodeBuffer decodes every batch available on r until it's exhausted.
// Used to materialize the body of a single GET response off the wire.
func DecodeBuffer(r io.Reader) []Update {
	var all []Update
	for {
		ups, err := readOneBatch(r)
		if err != nil {
			return all
		}
		all = append(all, ups...)
	}
}

func readAll(r io.ReadSeeker) ([]Update, error) {
	var all []Update
	marker := make([]byte, 1)
	for {
		n, err := r.Read(marker)
		if err != nil || n == 0 {
			return all, nil
		}
		if marker[0] == batchMarker {
			if _, err := r.Seek(-1, io.SeekCurrent); err != nil {
				return nil, err
			}
			ups, err := readOneBatch(r)
			if err != nil {
				return all, nil
			}
			all = append(all, ups...)
		}
	}
}

func readNBatches(r io.ReadSeeker, numRows uint32) ([]Update, error) {
	var all []Update
	if numRows == 0 {
		return all, nil
	}
	marker := make([]byte, 1)
	var count uint32
	for {
		n, err := r.Read(marker)
		if err != nil || n == 0 {
			return all, nil
		}
		if marker[0] == batchMarker {
			if _, err := r.Seek(-1, io.SeekCurrent); err != nil {
				return nil, err
			}
			ups, err := readOneBatch(r)
			if err != nil {
				return all, nil
			}
			all = append(all, ups...)
		}

		count++
		if count >= numRows {
			break
		}
	}
	return all, nil
}

// Decode reads every update in fname, or just the first numRows batch
// reads when numRows is non-nil.
func Decode(fname string, numRows *uint32) ([]Update, error) {
	f, err := openReader(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(headerSize, io.SeekStart); err != nil {
		return nil, err
	}
	if numRows != nil {
		return readNBatches(f, *numRows)
	}
	return readAll(f)
}

func readFirstBatch(r io.ReadSeeker) ([]Update, error) {
	if _, err := r.Seek(headerSize, io.SeekStart); err != nil {
		return nil, err
	}
	return readOneBatch(r)
}

func readFirst(r io.ReadSeeker) (Update, error) {
	ups, err := readFirstBatch(r)
	if err != nil {
		return Update{}, err
	}
	if len(ups) == 0 {
		return Update{}, fmt.Errorf("wstf: first batch is empty: %w", ErrFormat)
	}
	return ups[0], nil
}

// GetSize returns the record count stored in fname's header.
func GetSize(fname string) (uint64, error) {
	f, err := openReader(fname)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return readLen(f)
}

func readMetaFromBuf(r io.ReadSeeker) (Metadata, error) {
	symbol, err := readSymbol(r)
	if err != nil {
		return Metadata{}, err
	}
	nums, err := readLen(r)
	if err != nil {
		return Metadata{}, err
	}
	maxTs, err := readMaxTs(r)
	if err != nil {
		return Metadata{}, err
	}
	minTs := maxTs
	if nums > 0 {
		first, err := readFirst(r)
		if err != nil {
			return Metadata{}, err
		}
		minTs = first.Ts
	}
	return Metadata{Symbol: symbol, Nums: nums, MaxTs: maxTs, MinTs: minTs}, nil
}

// ReadMeta reads fname's header without materializing its body.
func ReadMeta(fname string) (Metadata, error) {
	f, err := openReader(fname)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()
	return readMetaFromBuf(f)
}

// Range walks batch headers without materializing records outside
// [minTs, maxTs], seeking backward by exact byte offsets to reposition
// once it knows whether the requested window falls inside, spans, or
// lies entirely past the current batch pair.
func Range(r io.ReadSeeker, minTs, maxTs uint64) ([]Update, error) {
	if minTs > maxTs {
		return nil, nil
	}
	if _, err := r.Seek(headerSize, io.SeekStart); err != nil {
		return nil, err
	}

	var result []Update
	marker := make([]byte, 1)

	for {
		n, err := r.Read(marker)
		if err != nil || n == 0 || marker[0] != batchMarker {
			return result, nil
		}

		currentMeta, err := readBatchHeader(r)
		if err != nil {
			return nil, err
		}
		currentRefTs := currentMeta.RefTs
		currentCount := int64(currentMeta.Count)

		bytesToSkip := currentCount * deltaRecordSize
		if _, err := r.Seek(bytesToSkip, io.SeekCurrent); err != nil {
			return nil, err
		}

		n, err = r.Read(marker)
		if err != nil || n == 0 || marker[0] != batchMarker {
			// The current batch is the last one: rewind to its first
			// record and keep whatever falls inside the window.
			if _, err := r.Seek(-bytesToSkip-int64(n), io.SeekCurrent); err != nil {
				return nil, err
			}
			batch, err := readBatchBody(r, currentMeta)
			if err != nil {
				return nil, err
			}
			for _, up := range batch {
				if up.Ts >= minTs && up.Ts <= maxTs {
					result = append(result, up)
				}
			}
			return result, nil
		}
		nextMeta, err := readBatchHeader(r)
		if err != nil {
			return nil, err
		}
		nextRefTs := nextMeta.RefTs

		switch {
		case minTs <= currentRefTs && maxTs < currentRefTs:
			return result, nil

		case (minTs <= currentRefTs && maxTs <= nextRefTs) ||
			(minTs < nextRefTs && maxTs >= nextRefTs) ||
			(minTs > currentRefTs && maxTs < nextRefTs):
			scrollback := -(bytesToSkip) - int64(1+batchHeaderSize)
			if _, err := r.Seek(scrollback, io.SeekCurrent); err != nil {
				return nil, err
			}
			batch, err := readBatchBody(r, currentMeta)
			if err != nil {
				return nil, err
			}
			if minTs <= currentRefTs && maxTs >= nextRefTs {
				result = append(result, batch...)
			} else {
				for _, up := range batch {
					if up.Ts >= minTs && up.Ts <= maxTs {
						result = append(result, up)
					}
				}
			}

		case minTs >= nextRefTs:
			if _, err := r.Seek(-int64(1+batchHeaderSize), io.SeekCurrent); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("wstf: range scan saw an uncovered state (min=%d max=%d current_ref=%d next_ref=%d): %w", minTs, maxTs, currentRefTs, nextRefTs, ErrFormat)
		}
	}
}

// GetRangeInFile opens fname and scans it for [minTs, maxTs].
func GetRangeInFile(fname string, minTs, maxTs uint64) ([]Update, error) {
	f, err := openReader(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Range(f, minTs, maxTs)
}

// Append extends fname with any of ups whose Ts is past the file's
// current max_ts. Fails if the surviving records would still interleave
// with existing data. ups must already be sorted by (Ts, Seq).
func Append(fname string, ups []Update) error {
	rf, err := openReader(fname)
	if err != nil {
		return err
	}
	if _, err := readSymbol(rf); err != nil {
		rf.Close()
		return err
	}
	oldMaxTs, err := readMaxTs(rf)
	if err != nil {
		rf.Close()
		return err
	}

	filtered := make([]Update, 0, len(ups))
	for _, u := range ups {
		if u.Ts > oldMaxTs {
			filtered = append(filtered, u)
		}
	}
	if len(filtered) == 0 {
		rf.Close()
		return nil
	}

	newMinTs := filtered[0].Ts
	// Fixed: the source took the *first* filtered element's ts here,
	// which under-reported max_ts whenever more than one record was
	// appended. ups is sorted, so the last filtered element carries the
	// new max.
	newMaxTs := filtered[len(filtered)-1].Ts

	if newMinTs <= oldMaxTs {
		rf.Close()
		return fmt.Errorf("wstf: cannot append, new min ts %d <= existing max ts %d: %w", newMinTs, oldMaxTs, ErrAppend)
	}

	curLen, err := readLen(rf)
	rf.Close()
	if err != nil {
		return err
	}

	newLen := curLen + uint64(len(filtered))

	wf, err := os.OpenFile(fname, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer wf.Close()

	if err := writeLen(wf, newLen); err != nil {
		return err
	}
	if err := writeMaxTs(wf, newMaxTs); err != nil {
		return err
	}

	if curLen == 0 {
		if _, err := wf.Seek(headerSize, io.SeekStart); err != nil {
			return err
		}
	} else {
		if _, err := wf.Seek(0, io.SeekEnd); err != nil {
			return err
		}
	}
	if err := writeBatches(wf, filtered); err != nil {
		return err
	}
	return wf.Sync()
}

// BatchReader streams a WSTF file batchSize batch-reads at a time,
// without loading the whole file into memory.
type BatchReader struct {
	f         *os.File
	batchSize uint32
}

// NewBatchReader opens fname for streaming.
func NewBatchReader(fname string, batchSize uint32) (*BatchReader, error) {
	f, err := openReader(fname)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(headerSize, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &BatchReader{f: f, batchSize: batchSize}, nil
}

// Next returns the next chunk of updates, or io.EOF once the file is
// exhausted.
func (b *BatchReader) Next() ([]Update, error) {
	ups, err := readNBatches(b.f, b.batchSize)
	if err != nil {
		return nil, err
	}
	if len(ups) == 0 {
		return nil, io.EOF
	}
	return ups, nil
}

func (b *BatchReader) Close() error {
	return b.f.Close()
}
