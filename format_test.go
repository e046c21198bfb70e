package wstf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempWSTFPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data.wstf")
}

func genUpdates(n int) []Update {
	ups := make([]Update, n)
	for i := 0; i < n; i++ {
		ups[i] = Update{
			Ts:      uint64(1_700_000_000_000 + i*100),
			Seq:     uint32(i),
			IsBid:   i%2 == 0,
			IsTrade: i%5 == 0,
			Price:   float32(i) + 0.5,
			Size:    float32(i%10) + 0.25,
		}
	}
	return ups
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	path := tempWSTFPath(t)
	ups := genUpdates(40)

	require.NoError(t, Encode(path, "BINANCE_BTC_USDT", ups))

	ok, err := IsWSTF(path)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := Decode(path, nil)
	require.NoError(t, err)
	require.Equal(t, ups, got)
}

func TestEncodeEmptyIsNoop(t *testing.T) {
	path := tempWSTFPath(t)
	require.NoError(t, EncodeBuffer(mustCreate(t, path), "X_Y_Z", nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func mustCreate(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReadMeta(t *testing.T) {
	path := tempWSTFPath(t)
	ups := genUpdates(10)
	require.NoError(t, Encode(path, "BINANCE_BTC_USDT", ups))

	meta, err := ReadMeta(path)
	require.NoError(t, err)
	require.Equal(t, "BINANCE_BTC_USDT", meta.Symbol)
	require.Equal(t, uint64(10), meta.Nums)
	require.Equal(t, ups[0].Ts, meta.MinTs)
	require.Equal(t, ups[len(ups)-1].Ts, meta.MaxTs)
}

func TestGetSize(t *testing.T) {
	path := tempWSTFPath(t)
	ups := genUpdates(7)
	require.NoError(t, Encode(path, "A_B_C", ups))

	n, err := GetSize(path)
	require.NoError(t, err)
	require.Equal(t, uint64(7), n)
}

func TestSymbolTooLongRejected(t *testing.T) {
	path := tempWSTFPath(t)
	longSymbol := "THIS_SYMBOL_IS_WAY_TOO_LONG_TO_FIT"
	err := Encode(path, longSymbol, genUpdates(1))
	require.ErrorIs(t, err, ErrFormat)
}

func TestRangeScan(t *testing.T) {
	path := tempWSTFPath(t)
	ups := genUpdates(60)
	require.NoError(t, Encode(path, "BINANCE_BTC_USDT", ups))

	minTs := ups[10].Ts
	maxTs := ups[30].Ts

	got, err := GetRangeInFile(path, minTs, maxTs)
	require.NoError(t, err)

	var want []Update
	for _, u := range ups {
		if u.Ts >= minTs && u.Ts <= maxTs {
			want = append(want, u)
		}
	}
	require.Equal(t, want, got)
}

func TestRangeScanPastEndReturnsEmpty(t *testing.T) {
	path := tempWSTFPath(t)
	ups := genUpdates(20)
	require.NoError(t, Encode(path, "BINANCE_BTC_USDT", ups))

	got, err := GetRangeInFile(path, ups[len(ups)-1].Ts+1_000_000, ups[len(ups)-1].Ts+2_000_000)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAppendExtendsFile(t *testing.T) {
	path := tempWSTFPath(t)
	initial := genUpdates(10)
	require.NoError(t, Encode(path, "BINANCE_BTC_USDT", initial))

	more := genUpdates(15)[10:] // continues where initial left off, non-overlapping ts
	require.NoError(t, Append(path, more))

	meta, err := ReadMeta(path)
	require.NoError(t, err)
	require.Equal(t, uint64(15), meta.Nums)
	require.Equal(t, more[len(more)-1].Ts, meta.MaxTs)

	got, err := Decode(path, nil)
	require.NoError(t, err)
	require.Equal(t, genUpdates(15), got)
}

func TestBatchReaderStreams(t *testing.T) {
	path := tempWSTFPath(t)
	ups := genUpdates(50)
	require.NoError(t, Encode(path, "BINANCE_BTC_USDT", ups))

	br, err := NewBatchReader(path, 1)
	require.NoError(t, err)
	defer br.Close()

	var all []Update
	for {
		chunk, err := br.Next()
		if err != nil {
			break
		}
		all = append(all, chunk...)
	}
	require.Equal(t, ups, all)
}
