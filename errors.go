package wstf

import "errors"

// Sentinel errors for the record and file-format codecs. Wrap with
// fmt.Errorf("...: %w", ErrX) so callers can still errors.Is against these.
var (
	// ErrFormat covers anything wrong with the on-disk byte layout: bad
	// magic, a truncated header, a batch header that doesn't fit.
	ErrFormat = errors.New("wstf: invalid file format")

	// ErrAppend is returned when the records being appended would
	// interleave with data already on disk.
	ErrAppend = errors.New("wstf: cannot append out-of-order records")

	// ErrSymbol is returned when a symbol string doesn't parse as
	// exactly exchange_currency_asset.
	ErrSymbol = errors.New("wstf: invalid symbol")
)
