package wstf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlagsIndependentBits(t *testing.T) {
	both := flagsFor(true, true)
	require.True(t, both.IsBid())
	require.True(t, both.IsTrade())

	bidOnly := flagsFor(true, false)
	require.True(t, bidOnly.IsBid())
	require.False(t, bidOnly.IsTrade())

	neither := flagsFor(false, false)
	require.False(t, neither.IsBid())
	require.False(t, neither.IsTrade())
}

func TestUpdateDeltaRoundTrip(t *testing.T) {
	u := Update{Ts: 1_700_000_123, Seq: 42, IsBid: true, IsTrade: false, Price: 27123.5, Size: 0.125}
	refTs := uint64(1_700_000_000)
	refSeq := uint32(10)

	var buf bytes.Buffer
	require.NoError(t, u.serializeDelta(&buf, refTs, refSeq))
	require.Equal(t, deltaRecordSize, buf.Len())

	got := decodeDelta(buf.Bytes(), refTs, refSeq)
	require.Equal(t, u, got)
}

func TestUpdateDeltaRejectsSeqBeforeReference(t *testing.T) {
	u := Update{Ts: 100, Seq: 1}
	var buf bytes.Buffer
	err := u.serializeDelta(&buf, 0, 5)
	require.Error(t, err)
}

func TestUpdateRawRoundTrip(t *testing.T) {
	u := Update{Ts: 1_700_000_123, Seq: 7, IsBid: false, IsTrade: true, Price: 99.5, Size: 3}

	var buf bytes.Buffer
	require.NoError(t, u.SerializeRaw(&buf))
	require.Equal(t, rawRecordSize, buf.Len())

	got, err := UpdateFromRaw(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestUpdateFromRawTruncated(t *testing.T) {
	_, err := UpdateFromRaw(make([]byte, rawRecordSize-1))
	require.Error(t, err)
}

func TestUpdateAsJSON(t *testing.T) {
	u := Update{Ts: 1000, Seq: 1, IsBid: true, IsTrade: false, Price: 10, Size: 2}
	require.Equal(t, `{"ts":1,"seq":1,"is_trade":false,"is_bid":true,"price":10,"size":2}`, u.AsJSON())
}

func TestUpdateAsCSV(t *testing.T) {
	u := Update{Ts: 2000, Seq: 3, IsBid: false, IsTrade: true, Price: 5.5, Size: 1.5}
	require.Equal(t, "2,3,true,false,5.5,1.5", u.AsCSV())
}

func TestSortUpdates(t *testing.T) {
	ups := []Update{
		{Ts: 2, Seq: 1},
		{Ts: 1, Seq: 5},
		{Ts: 1, Seq: 2},
	}
	SortUpdates(ups)
	require.Equal(t, []Update{{Ts: 1, Seq: 2}, {Ts: 1, Seq: 5}, {Ts: 2, Seq: 1}}, ups)
}
