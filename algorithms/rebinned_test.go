package algorithms

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wtrscape/wstf"
)

func TestRebinFromSkipsTrades(t *testing.T) {
	ups := []wstf.Update{
		{Ts: 1_700_000_000_000, Seq: 1, IsBid: true, Price: 100, Size: 1},
		{Ts: 1_700_000_000_100, Seq: 2, IsTrade: true, Price: 100, Size: 1},
		{Ts: 1_700_000_000_200, Seq: 3, IsBid: false, Price: 101, Size: 2},
	}

	priceHist, timeHist := FromUpdates(ups, 4, 4, 10)
	rb := RebinFrom(ups, priceHist, timeHist)

	require.Greater(t, rb.Len(), 0)
}

func TestRebinFromBuildsSnapshotsAcrossTime(t *testing.T) {
	var ups []wstf.Update
	for i := 0; i < 20; i++ {
		ups = append(ups, wstf.Update{
			Ts:    uint64(1_700_000_000_000 + i*1000),
			Seq:   uint32(i),
			IsBid: i%2 == 0,
			Price: float32(100 + i),
			Size:  float32(i%3 + 1),
		})
	}

	priceHist, timeHist := FromUpdates(ups, 5, 5, 10)
	rb := RebinFrom(ups, priceHist, timeHist)

	require.Greater(t, rb.Len(), 0)
	require.LessOrEqual(t, rb.Len(), len(timeHist.Boundaries))
}
