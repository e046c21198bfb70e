package algorithms

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wtrscape/wstf"
)

func TestEventsFromClassifiesCreateCancelTrade(t *testing.T) {
	ups := []wstf.Update{
		{Ts: 1, Price: 100, Size: 5, IsBid: true},  // create: first time seen, size > 0
		{Ts: 2, Price: 100, Size: 2, IsBid: true},  // cancel: size decreased
		{Ts: 3, Price: 100, Size: 8, IsBid: true},  // create: size increased
		{Ts: 4, Price: 100, Size: 0, IsBid: true},  // cancel: size dropped to zero
		{Ts: 5, Price: 50, Size: 1, IsTrade: true}, // trade
	}

	ev := EventsFrom(ups)

	require.Equal(t, 1, ev.Trades.Len())
	_, ok := ev.Trades.Get(5)
	require.True(t, ok)

	require.Equal(t, 2, ev.Created.Len())
	_, ok = ev.Created.Get(1)
	require.True(t, ok)
	_, ok = ev.Created.Get(3)
	require.True(t, ok)

	require.Equal(t, 2, ev.Cancelled.Len())
	_, ok = ev.Cancelled.Get(2)
	require.True(t, ok)
	_, ok = ev.Cancelled.Get(4)
	require.True(t, ok)
}

func TestEventsFilterSize(t *testing.T) {
	ups := []wstf.Update{
		{Ts: 1, Price: 100, Size: 5, IsBid: true},
		{Ts: 2, Price: 101, Size: 20, IsBid: true},
		{Ts: 3, Price: 102, Size: 50, IsBid: true},
	}
	ev := EventsFrom(ups)

	filtered := ev.FilterSize(EventCreate, 10, 30)
	require.Len(t, filtered, 1)
	require.Equal(t, float32(20), filtered[0].Size)
}

func TestEventsFilterSizeScansInKeyOrder(t *testing.T) {
	// Ts keys arrive out of order; FilterSize must still return results
	// sorted by Ts rather than following map iteration order.
	ups := []wstf.Update{
		{Ts: 30, Price: 100, Size: 5, IsBid: true},
		{Ts: 10, Price: 101, Size: 5, IsBid: true},
		{Ts: 20, Price: 102, Size: 5, IsBid: true},
	}
	ev := EventsFrom(ups)

	filtered := ev.FilterSize(EventCreate, 0, 10)
	require.Len(t, filtered, 3)
	require.Equal(t, []uint64{10, 20, 30}, []uint64{filtered[0].Ts, filtered[1].Ts, filtered[2].Ts})
}

func TestEventTypeString(t *testing.T) {
	require.Equal(t, "cancel", EventCancel.String())
	require.Equal(t, "trade", EventTrade.String())
	require.Equal(t, "create", EventCreate.String())
}
