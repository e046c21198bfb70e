package algorithms

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/wtrscape/wstf"
)

// Orderbook is a price -> size map per side, kept in insertion order the
// way the reference implementation's IndexMap preserved first-seen price
// ordering. Levels are keyed by the discretized price
// round(price * 10^Decimals), computed once at insert time by ApplyDelta
// rather than as a post-hoc pass over an already-populated book. Zero-size
// levels are tombstones until Clean removes them.
type Orderbook struct {
	Decimals int
	Bids     *orderedmap.OrderedMap[float32, float32]
	Asks     *orderedmap.OrderedMap[float32, float32]
}

// NewOrderbook returns an empty book keyed at decimals decimal places of
// price precision.
func NewOrderbook(decimals int) *Orderbook {
	return &Orderbook{
		Decimals: decimals,
		Bids:     orderedmap.New[float32, float32](),
		Asks:     orderedmap.New[float32, float32](),
	}
}

// Clean drops every level whose size is zero from both sides.
func (ob *Orderbook) Clean() {
	cleanSide(ob.Bids)
	cleanSide(ob.Asks)
}

func cleanSide(side *orderedmap.OrderedMap[float32, float32]) {
	var toDelete []float32
	for pair := side.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == 0 {
			toDelete = append(toDelete, pair.Key)
		}
	}
	for _, k := range toDelete {
		side.Delete(k)
	}
}

// Clone returns a deep copy, used to snapshot a book before it is
// mutated further.
func (ob *Orderbook) Clone() *Orderbook {
	out := NewOrderbook(ob.Decimals)
	for pair := ob.Bids.Oldest(); pair != nil; pair = pair.Next() {
		out.Bids.Set(pair.Key, pair.Value)
	}
	for pair := ob.Asks.Oldest(); pair != nil; pair = pair.Next() {
		out.Asks.Set(pair.Key, pair.Value)
	}
	return out
}

// ApplyDelta applies u to the book at its discretized price. A trade
// update decrements the existing level's size (a no-op if the price
// isn't present; out-of-order trades can drive a level negative, which
// Clean does not special-case). A book event overwrites the side's
// entry with u.Size, removing it if the result is exactly zero.
func (ob *Orderbook) ApplyDelta(u wstf.Update) {
	side := ob.Asks
	if u.IsBid {
		side = ob.Bids
	}
	price := discretize(u.Price, ob.Decimals)

	if u.IsTrade {
		if existing, ok := side.Get(price); ok {
			side.Set(price, existing-u.Size)
		}
		return
	}

	if u.Size == 0 {
		side.Delete(price)
		return
	}
	side.Set(price, u.Size)
}

// BestBid returns the highest non-zero bid level.
func (ob *Orderbook) BestBid() (price, size float32, ok bool) {
	return extreme(ob.Bids, func(a, b float32) bool { return a > b })
}

// BestAsk returns the lowest non-zero ask level.
func (ob *Orderbook) BestAsk() (price, size float32, ok bool) {
	return extreme(ob.Asks, func(a, b float32) bool { return a < b })
}

func extreme(side *orderedmap.OrderedMap[float32, float32], better func(a, b float32) bool) (price, size float32, ok bool) {
	for pair := side.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == 0 {
			continue
		}
		if !ok || better(pair.Key, price) {
			price, size, ok = pair.Key, pair.Value, true
		}
	}
	return price, size, ok
}

// Midprice is the mean of BestBid and BestAsk, or false if either side
// is empty.
func (ob *Orderbook) Midprice() (float32, bool) {
	bp, _, bok := ob.BestBid()
	ap, _, aok := ob.BestAsk()
	if !bok || !aok {
		return 0, false
	}
	return (bp + ap) / 2, true
}

// LiveBook is a concurrency-safe wrapper around Orderbook for long-running
// feed consumers applying one update at a time from a reader goroutine
// while other goroutines query best bid/ask.
type LiveBook struct {
	mu sync.RWMutex
	ob *Orderbook
}

func NewLiveBook(decimals int) *LiveBook {
	return &LiveBook{ob: NewOrderbook(decimals)}
}

// ProcessUpdate applies a single update to the book, cleaning both
// sides afterward so a level that just went to zero size doesn't
// linger in the book.
func (lb *LiveBook) ProcessUpdate(u wstf.Update) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.ob.ApplyDelta(u)
	lb.ob.Clean()
}

func (lb *LiveBook) BestBid() (price, size float32, ok bool) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.ob.BestBid()
}

func (lb *LiveBook) BestAsk() (price, size float32, ok bool) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.ob.BestAsk()
}

func (lb *LiveBook) Midprice() (float32, bool) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.ob.Midprice()
}

// Snapshot returns a deep copy of the book as it stands right now.
func (lb *LiveBook) Snapshot() *Orderbook {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.ob.Clone()
}

// discretize returns the integer level key round(v * 10^decimals).
func discretize(v float32, decimals int) float32 {
	scale := float32(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	return float32(int64(v*scale + 0.5))
}
