// Command wstf-client reads a single WSTF file, a symbol's header
// metadata, or a time range scanned across a directory of files, and
// prints the result as JSON or CSV.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wtrscape/wstf"
)

func main() {
	var (
		input    string
		symbol   string
		min, max uint64
		folder   string
		meta     bool
		csv      bool
	)

	root := &cobra.Command{
		Use:     "wstf-client",
		Short:   "Command line client for the WSTF protocol",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" && (symbol == "" || (min == 0 && max == 0)) && folder == "" && !meta {
				fmt.Println("Either supply a single file or construct a range query!")
				return nil
			}

			if input != "" {
				return runSingleFile(input, meta, csv)
			}

			return runRangeQuery(folder, symbol, min, max, csv)
		},
	}

	root.Flags().StringVarP(&input, "input", "i", "", "file to read")
	root.Flags().StringVar(&symbol, "symbol", "", "symbol to look up")
	root.Flags().Uint64Var(&min, "min", 0, "minimum timestamp to filter for")
	root.Flags().Uint64Var(&max, "max", 0, "maximum timestamp to filter for")
	root.Flags().StringVar(&folder, "folder", "./", "folder to search")
	root.Flags().BoolVarP(&meta, "show_metadata", "m", false, "read only the metadata")
	root.Flags().BoolVarP(&csv, "csv", "c", false, "output csv (default is JSON)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSingleFile(input string, metaOnly, csv bool) error {
	if metaOnly {
		m, err := wstf.ReadMeta(input)
		if err != nil {
			return err
		}
		fmt.Println(m.String())
		return nil
	}

	ups, err := wstf.Decode(input, nil)
	if err != nil {
		return err
	}
	if csv {
		fmt.Println(wstf.UpdatesAsCSV(ups))
	} else {
		fmt.Printf("[%s]\n", wstf.UpdatesAsJSON(ups))
	}
	return nil
}

func runRangeQuery(folder, symbol string, min, max uint64, csv bool) error {
	paths, err := wstf.ScanDirForRange(folder, symbol, min, max)
	if err != nil {
		return err
	}

	var all []wstf.Update
	for _, path := range paths {
		ups, err := wstf.GetRangeInFile(path, min, max)
		if err != nil {
			return err
		}
		all = append(all, ups...)
	}

	if csv {
		fmt.Println(wstf.UpdatesAsCSV(all))
	} else {
		fmt.Printf("[%s]\n", wstf.UpdatesAsJSON(all))
	}
	return nil
}
