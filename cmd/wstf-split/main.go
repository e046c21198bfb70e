// Command wstf-split breaks a large WSTF file into a series of smaller
// ones, batchSize batch-reads at a time.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wtrscape/wstf"
)

func main() {
	var input string
	var batchSize uint32

	root := &cobra.Command{
		Use:     "wstf-split",
		Short:   "Splits big WSTF files into smaller ones",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(input, batchSize)
		},
	}

	root.Flags().StringVarP(&input, "input", "i", "", "file to read")
	root.Flags().Uint32VarP(&batchSize, "batch_size", "b", 0, "number of batches to read per output file")
	root.MarkFlagRequired("input")
	root.MarkFlagRequired("batch_size")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fname string, batchSize uint32) error {
	base := filepath.Base(fname)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	fmt.Printf("Reading: %s\n", fname)
	meta, err := wstf.ReadMeta(fname)
	if err != nil {
		return err
	}

	br, err := wstf.NewBatchReader(fname, batchSize)
	if err != nil {
		return err
	}
	defer br.Close()

	for i := 0; ; i++ {
		chunk, err := br.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		outname := fmt.Sprintf("%s-%d.wstf", stem, i)
		fmt.Printf("Writing to %s\n", outname)
		if err := wstf.Encode(outname, meta.Symbol, chunk); err != nil {
			return err
		}
	}
}
