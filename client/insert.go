package client

import "github.com/wtrscape/wstf"

// InsertCommand carries one or more updates destined for a named book.
// IntoStrings renders each update as its own "ADD <book> <csv>" command
// line rather than batching them into a single command. A failed line
// makes Pool.Insert buffer the whole InsertCommand, so a retry replays
// every one of its updates.
type InsertCommand struct {
	BookName string
	Updates  []wstf.Update
}

// IntoStrings renders cmd as one command string per update.
func (cmd InsertCommand) IntoStrings() []string {
	out := make([]string, len(cmd.Updates))
	for i, u := range cmd.Updates {
		out[i] = "ADD " + cmd.BookName + " " + u.AsCSV() + "\n"
	}
	return out
}
