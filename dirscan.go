package wstf

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDirForRange scans dir for *.wstf files carrying symbol whose header
// range overlaps [minTs, maxTs], returning their paths sorted by
// Metadata.MinTs. Files that fail to parse (wrong symbol, bad magic) are
// skipped rather than failing the whole scan — a directory scan is a
// best-effort catalog operation, not a strict decode.
func ScanDirForRange(dir, symbol string, minTs, maxTs uint64) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		path  string
		minTs uint64
	}
	var candidates []candidate

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".wstf") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		meta, err := ReadMeta(path)
		if err != nil || meta.Symbol != symbol {
			continue
		}
		if !withinRange(minTs, maxTs, meta.MinTs, meta.MaxTs) {
			continue
		}
		candidates = append(candidates, candidate{path: path, minTs: meta.MinTs})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].minTs < candidates[j].minTs })

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths, nil
}

// TotalDirUpdates sums Metadata.Nums across every *.wstf file for symbol
// in dir, without decoding any of their bodies.
func TotalDirUpdates(dir, symbol string) (uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".wstf") {
			continue
		}
		meta, err := ReadMeta(filepath.Join(dir, e.Name()))
		if err != nil || meta.Symbol != symbol {
			continue
		}
		total += meta.Nums
	}
	return total, nil
}
