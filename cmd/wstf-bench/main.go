// Command wstf-bench times range scans over a synthetic WSTF file,
// reporting results in a tabwriter-aligned table the way the TBBO
// forensics tool reports its own per-file checks.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wtrscape/wstf"
)

func main() {
	var n uint64

	root := &cobra.Command{
		Use:     "wstf-bench",
		Short:   "Benchmarks range scans over a synthetic WSTF file",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(n)
		},
	}

	root.Flags().Uint64VarP(&n, "size", "n", 50_000_000, "number of synthetic records to generate")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(n uint64) error {
	dir, err := os.MkdirTemp("", "wstf-bench")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	fname := filepath.Join(dir, "bench.wstf")

	if err := prepareDataRange(fname, n); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tRECORDS\tRANGE\tELAPSED")
	fmt.Fprintln(w, "---------\t-------\t-----\t-------")

	rangeMinTs := 2_500_000 * 1000
	rangeMaxTs := 3_000_000 * 1000

	start := time.Now()
	got, err := wstf.GetRangeInFile(fname, uint64(rangeMinTs), uint64(rangeMaxTs))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(w, "range\t%d\t[%d,%d]\t%s\n", len(got), rangeMinTs, rangeMaxTs, elapsed)
	return w.Flush()
}

func prepareDataRange(fname string, n uint64) error {
	ups := make([]wstf.Update, 0, n)
	for ts := uint64(1); ts <= n; ts++ {
		ups = append(ups, wstf.Update{Ts: ts * 1000})
	}
	return wstf.Encode(fname, "default", ups)
}
