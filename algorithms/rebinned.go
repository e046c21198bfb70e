package algorithms

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/wtrscape/wstf"
)

// RebinnedOrderbook discretizes a raw update stream onto a coarse
// price/time grid: a Histogram for price and one for time. It holds the
// coarsest book at every time bin first touched, in first-seen order.
type RebinnedOrderbook struct {
	PriceHist  Histogram
	TimeHist   Histogram
	AcrossTime *orderedmap.OrderedMap[float64, *Orderbook]
}

// RebinFrom builds a RebinnedOrderbook from a stream of updates and the
// price/time histograms that bin it (see FromUpdates). Trade updates
// don't move book levels and are skipped; everything else is first
// binned onto the coarse grid, applied to a running "fine" book that
// tracks the last size seen at the exact (unbinned) price, then
// delta-applied onto a coarse working book. The coarse book is
// snapshotted into AcrossTime the first time its time bin is seen; later
// updates in the same time bin mutate that snapshot's one touched level
// in place, matching the source algorithm's incremental-within-a-bucket
// behavior instead of re-snapshotting the whole book on every update.
func RebinFrom(ups []wstf.Update, priceHist, timeHist Histogram) *RebinnedOrderbook {
	fineLevel := make(map[float32]float32)
	// Levels are already binned onto the coarse price grid before they
	// reach tempOb's maps directly, bypassing ApplyDelta, so the
	// Decimals discretization Orderbook otherwise applies doesn't come
	// into play here.
	tempOb := NewOrderbook(0)
	acrossTime := orderedmap.New[float64, *Orderbook]()

	for _, u := range ups {
		if u.IsTrade {
			continue
		}

		tsMs := float64(wstf.FillDigits(u.Ts) / 1000)
		timeBin, ok := timeHist.ToBin(tsMs)
		if !ok {
			continue
		}
		priceBin, ok := priceHist.ToBin(float64(u.Price))
		if !ok {
			continue
		}

		prevSize := fineLevel[u.Price]
		fineLevel[u.Price] = u.Size

		delta := u.Size - prevSize
		binned := wstf.Update{
			Ts:      u.Ts,
			Seq:     u.Seq,
			IsTrade: false,
			IsBid:   u.IsBid,
			Price:   float32(priceBin),
			Size:    delta,
		}

		side := tempOb.Asks
		if binned.IsBid {
			side = tempOb.Bids
		}
		existing, _ := side.Get(binned.Price)
		coarseSize := existing + binned.Size
		if coarseSize < 0 {
			coarseSize = 0
		}
		side.Set(binned.Price, coarseSize)

		if snap, ok := acrossTime.Get(timeBin); ok {
			snapSide := snap.Asks
			if binned.IsBid {
				snapSide = snap.Bids
			}
			snapSide.Set(binned.Price, coarseSize)
		} else {
			acrossTime.Set(timeBin, tempOb.Clone())
		}
	}

	for pair := acrossTime.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.Clean()
	}

	return &RebinnedOrderbook{
		PriceHist:  priceHist,
		TimeHist:   timeHist,
		AcrossTime: acrossTime,
	}
}

// At returns the book snapshot stored under timeBin, a bin boundary as
// returned by TimeHist.ToBin, if any update fell in that bin. timeBin is
// looked up exactly; a timestamp inside the bin is not matched.
func (r *RebinnedOrderbook) At(timeBin float64) (*Orderbook, bool) {
	return r.AcrossTime.Get(timeBin)
}

// Len returns the number of distinct time bins with a snapshot.
func (r *RebinnedOrderbook) Len() int {
	return r.AcrossTime.Len()
}
