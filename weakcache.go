package wstf

import (
	"sync"
	"weak" // Go 1.24+
)

var (
	metaCacheMu sync.Mutex
	metaCache   = make(map[string]weak.Pointer[FileMetadata])
)

// LoadMetadataShared returns a cached FileMetadata for fname, re-reading
// it only if nothing is cached or the GC already reclaimed the prior
// value. Repeated directory scans and range-query CLI calls over the
// same catalog of files otherwise re-stat and re-parse the same header
// on every invocation.
func LoadMetadataShared(fname string) (*FileMetadata, error) {
	metaCacheMu.Lock()
	defer metaCacheMu.Unlock()

	if wp, ok := metaCache[fname]; ok {
		if ptr := wp.Value(); ptr != nil {
			return ptr, nil
		}
		delete(metaCache, fname)
	}

	m, err := DescribeFile(fname)
	if err != nil {
		return nil, err
	}
	meta := &m
	metaCache[fname] = weak.Make(meta)
	return meta, nil
}
