package algorithms

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/wtrscape/wstf"
)

// EventType classifies a non-trade update against the previous size seen
// at its price level.
type EventType int

const (
	EventCancel EventType = iota
	EventTrade
	EventCreate
)

func (e EventType) String() string {
	switch e {
	case EventCancel:
		return "cancel"
	case EventTrade:
		return "trade"
	case EventCreate:
		return "create"
	default:
		return "unknown"
	}
}

// Events buckets a stream of updates by how each one changed its price
// level: a new level or a size increase is a create, a size decrease or
// drop to zero is a cancel, and every trade update goes to its own
// bucket untouched. Time is the update's raw Ts, not a rebinned value.
// The three maps are ordered by first-insertion Ts so that a scan over
// them (FilterSize) is reproducible instead of following Go's randomized
// map iteration order.
type Events struct {
	Cancelled *orderedmap.OrderedMap[uint64, []wstf.Update]
	Trades    *orderedmap.OrderedMap[uint64, []wstf.Update]
	Created   *orderedmap.OrderedMap[uint64, []wstf.Update]
}

// EventsFrom classifies ups into Events, tracking a running last-seen
// size per exact price (not rebinned) to decide cancel vs. create.
func EventsFrom(ups []wstf.Update) Events {
	ev := Events{
		Cancelled: orderedmap.New[uint64, []wstf.Update](),
		Trades:    orderedmap.New[uint64, []wstf.Update](),
		Created:   orderedmap.New[uint64, []wstf.Update](),
	}

	currentLevel := make(map[float32]float32)

	for _, u := range ups {
		if u.IsTrade {
			appendBucket(ev.Trades, u)
			continue
		}

		prev, seen := currentLevel[u.Price]
		currentLevel[u.Price] = u.Size

		if u.Size == 0 || (seen && u.Size <= prev) {
			appendBucket(ev.Cancelled, u)
		} else {
			appendBucket(ev.Created, u)
		}
	}

	return ev
}

func appendBucket(bucket *orderedmap.OrderedMap[uint64, []wstf.Update], u wstf.Update) {
	existing, _ := bucket.Get(u.Ts)
	bucket.Set(u.Ts, append(existing, u))
}

// FilterSize returns every update of eventType whose size falls within
// [lo, hi], inclusive, scanning the chosen bucket in key (Ts) order.
func (ev Events) FilterSize(eventType EventType, lo, hi float32) []wstf.Update {
	var bucket *orderedmap.OrderedMap[uint64, []wstf.Update]
	switch eventType {
	case EventCancel:
		bucket = ev.Cancelled
	case EventTrade:
		bucket = ev.Trades
	case EventCreate:
		bucket = ev.Created
	}

	keys := make([]uint64, 0, bucket.Len())
	for pair := bucket.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var out []wstf.Update
	for _, k := range keys {
		ups, _ := bucket.Get(k)
		for _, u := range ups {
			if u.Size >= lo && u.Size <= hi {
				out = append(out, u)
			}
		}
	}
	return out
}
