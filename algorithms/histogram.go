// Package algorithms turns a decoded update stream into the derived views
// consumers actually want: a price/time histogram, a discretized
// orderbook, a rebinned orderbook across time, and classified events.
package algorithms

import (
	"math"
	"sort"

	"github.com/wtrscape/wstf"
)

// BinCount is a bucket count for a Histogram.
type BinCount = int

// Histogram is an immutable binning over either a price axis (with a
// bins count vector) or a time axis (boundaries only, no bins). Either
// way, To Bin does an O(N) scan over a cached bigram of adjacent
// boundary pairs rather than a binary search — fine at the bucket counts
// this is built with, and it mirrors the reference algorithm exactly.
type Histogram struct {
	Bins         []int // nil for a boundaries-only (time axis) histogram
	Boundaries   []float64
	boundary2idx map[uint64]int
	cachedBigram []bigram
}

type bigram struct{ s, b float64 }

// NewHistogram rejects outliers beyond m median-absolute-deviations from
// the median, then bins what's left into binCount equal-width buckets.
func NewHistogram(prices []float64, binCount BinCount, m float64) Histogram {
	filtered := RejectOutliers(prices, m)
	return buildHistogram(filtered, binCount)
}

// ToBin returns the left edge of the bucket containing price, or false
// if price falls outside every bucket.
func (h Histogram) ToBin(price float64) (float64, bool) {
	for _, bg := range h.cachedBigram {
		if bg.s == price || (bg.b > price && price > bg.s) {
			return bg.s, true
		}
	}
	return 0, false
}

// Index returns the bucket index for a boundary value previously
// returned by ToBin.
func (h Histogram) Index(boundary float64) int {
	return h.boundary2idx[math.Float64bits(boundary)]
}

// newBoundariesHistogram builds a time-axis histogram: stepBins equally
// spaced boundaries between minTs and maxTs, no bin counts.
func newBoundariesHistogram(minTs, maxTs uint64, stepBins int) Histogram {
	bucketSize := (maxTs - minTs) / uint64(stepBins-1)

	boundaries := make([]float64, 0, stepBins)
	lookup := make(map[uint64]int, stepBins)
	for i := 0; i < stepBins; i++ {
		boundary := float64(minTs + uint64(i)*bucketSize)
		boundaries = append(boundaries, boundary)
		lookup[math.Float64bits(boundary)] = i
	}

	return Histogram{
		Bins:         nil,
		Boundaries:   boundaries,
		boundary2idx: lookup,
		cachedBigram: makeBigram(boundaries),
	}
}

// FromUpdates builds the companion price and time histograms for a
// stream of updates: price from every update's price, time from its
// FillDigits-normalized, millisecond-truncated timestamp.
func FromUpdates(ups []wstf.Update, stepBins, tickBins BinCount, m float64) (priceHist, stepHist Histogram) {
	prices := make([]float64, len(ups))
	for i, u := range ups {
		prices[i] = float64(u.Price)
	}
	priceHist = NewHistogram(prices, tickBins, m)

	minTs := wstf.FillDigits(ups[0].Ts) / 1000
	maxTs := wstf.FillDigits(ups[len(ups)-1].Ts) / 1000
	stepHist = newBoundariesHistogram(minTs, maxTs, stepBins)
	return priceHist, stepHist
}

// RejectOutliers drops values whose median-absolute-deviation ratio is
// >= m.
func RejectOutliers(values []float64, m float64) []float64 {
	median := Median(values)

	deviations := make([]float64, len(values))
	for i, v := range values {
		d := v - median
		if d < 0 {
			d = -d
		}
		deviations[i] = d
	}
	mdev := Median(deviations)

	filtered := make([]float64, 0, len(values))
	for i, v := range values {
		ratio := 0.0
		if mdev > 0 {
			ratio = deviations[i] / mdev
		}
		if ratio < m {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func buildHistogram(filtered []float64, binCount BinCount) Histogram {
	max := Max(filtered)
	min := Min(filtered)
	bucketSize := (max - min) / float64(binCount-1)

	bins := make([]int, binCount)
	for _, price := range filtered {
		bucketIndex := 0
		if bucketSize > 0 {
			bucketIndex = int((price - min) / bucketSize)
			if bucketIndex == binCount {
				bucketIndex--
			}
		}
		bins[bucketIndex]++
	}

	boundaries := make([]float64, 0, binCount)
	lookup := make(map[uint64]int, binCount)
	for i := 0; i < binCount; i++ {
		boundary := min + float64(i)*bucketSize
		boundaries = append(boundaries, boundary)
		lookup[math.Float64bits(boundary)] = i
	}

	return Histogram{
		Bins:         bins,
		Boundaries:   boundaries,
		boundary2idx: lookup,
		cachedBigram: makeBigram(boundaries),
	}
}

func makeBigram(boundaries []float64) []bigram {
	if len(boundaries) < 2 {
		return nil
	}
	out := make([]bigram, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		out = append(out, bigram{boundaries[i], boundaries[i+1]})
	}
	return out
}

// --- Stats: Neumaier-compensated summation and the descriptive stats
// built on top of it. ---

// Sum uses Neumaier's improved Kahan summation to keep floating point
// error bounded across long update streams.
func Sum(values []float64) float64 {
	var partials []float64
	for _, x := range values {
		x := x
		j := 0
		for i := 0; i < len(partials); i++ {
			y := partials[i]
			if math.Abs(x) < math.Abs(y) {
				x, y = y, x
			}
			hi := x + y
			lo := y - (hi - x)
			if lo != 0 {
				partials[j] = lo
				j++
			}
			x = hi
		}
		if j >= len(partials) {
			partials = append(partials, x)
		} else {
			partials[j] = x
			partials = partials[:j+1]
		}
	}
	var total float64
	for _, p := range partials {
		total += p
	}
	return total
}

func Min(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m
}

func Max(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m
}

func Mean(values []float64) float64 {
	return Sum(values) / float64(len(values))
}

func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Var is the sample variance (n-1 denominator).
func Var(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var v float64
	for _, s := range values {
		x := s - mean
		v += x * x
	}
	return v / float64(len(values)-1)
}

func StdDev(values []float64) float64 {
	return math.Sqrt(Var(values))
}

func StdDevPct(values []float64) float64 {
	return (StdDev(values) / Mean(values)) * 100
}

// MedianAbsDev is the median absolute deviation scaled by 1.4826 so it
// estimates the standard deviation for normally distributed data.
func MedianAbsDev(values []float64) float64 {
	med := Median(values)
	absDevs := make([]float64, len(values))
	for i, v := range values {
		absDevs[i] = math.Abs(med - v)
	}
	return Median(absDevs) * 1.4826
}

func MedianAbsDevPct(values []float64) float64 {
	return (MedianAbsDev(values) / Median(values)) * 100
}

// Percentile linearly interpolates between the two samples bracketing
// pct, after a NaN-tolerant sort (NaN sorts as less than everything).
func Percentile(values []float64, pct float64) float64 {
	tmp := append([]float64(nil), values...)
	localSort(tmp)
	return percentileOfSorted(tmp, pct)
}

func Quartiles(values []float64) (q1, q2, q3 float64) {
	tmp := append([]float64(nil), values...)
	localSort(tmp)
	return percentileOfSorted(tmp, 25), percentileOfSorted(tmp, 50), percentileOfSorted(tmp, 75)
}

func IQR(values []float64) float64 {
	q1, _, q3 := Quartiles(values)
	return q3 - q1
}

func percentileOfSorted(sorted []float64, pct float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	if pct == 100 {
		return sorted[len(sorted)-1]
	}
	length := float64(len(sorted) - 1)
	rank := (pct / 100) * length
	lrank := math.Floor(rank)
	d := rank - lrank
	n := int(lrank)
	lo := sorted[n]
	hi := sorted[n+1]
	return lo + (hi-lo)*d
}

func localSort(v []float64) {
	sort.Slice(v, func(i, j int) bool { return localCmp(v[i], v[j]) < 0 })
}

// localCmp treats NaN as less than every other value (including another
// NaN, which it reports as equal to itself) so a slice with stray NaNs
// still sorts deterministically instead of panicking or reordering
// arbitrarily.
func localCmp(x, y float64) int {
	switch {
	case math.IsNaN(x) && math.IsNaN(y):
		return 0
	case math.IsNaN(x):
		return -1
	case math.IsNaN(y):
		return 1
	case x < y:
		return -1
	case x == y:
		return 0
	default:
		return 1
	}
}
