// Command wstf-concat concatenates two WSTF files carrying the same
// symbol into a single output file, ordered by which one starts
// earliest.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wtrscape/wstf"
)

func main() {
	root := &cobra.Command{
		Use:     "wstf-concat first second output",
		Short:   "Concatenates two WSTF files into a single output file",
		Version: "0.1.0",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], args[2])
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(firstFilename, secondFilename, outputFilename string) error {
	firstMeta, err := wstf.ReadMeta(firstFilename)
	if err != nil {
		return fmt.Errorf("unable to parse %s: %w", firstFilename, err)
	}
	secondMeta, err := wstf.ReadMeta(secondFilename)
	if err != nil {
		return fmt.Errorf("unable to parse %s: %w", secondFilename, err)
	}

	if firstMeta.Symbol != secondMeta.Symbol {
		return fmt.Errorf("the two input files have different symbols: %s, %s", firstMeta.Symbol, secondMeta.Symbol)
	}

	startFilename, endFilename := firstFilename, secondFilename
	if secondMeta.MinTs < firstMeta.MinTs {
		startFilename, endFilename = secondFilename, firstFilename
	}

	startUps, err := wstf.Decode(startFilename, nil)
	if err != nil {
		return err
	}
	endUps, err := wstf.Decode(endFilename, nil)
	if err != nil {
		return err
	}

	combined := append(startUps, endUps...)
	wstf.SortUpdates(combined)

	// Records present in both inputs are written once: a record is
	// dropped when its JSON form matches one already kept.
	seen := make(map[string]struct{}, len(combined))
	deduped := combined[:0]
	for _, u := range combined {
		key := u.AsJSON()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, u)
	}

	return wstf.Encode(outputFilename, firstMeta.Symbol, deduped)
}
