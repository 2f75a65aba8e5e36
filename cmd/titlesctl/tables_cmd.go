package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rpattn/landtitles/internal/titles"
)

func newTablesCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables <file>",
		Short: "List the tables a file loads and which required tables are present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadFile(cmd.Context(), global, args[0])
			if err != nil {
				return err
			}

			required := make(map[string]bool, len(titles.RequiredTables))
			for _, name := range titles.RequiredTables {
				required[name] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tCOLUMNS\tROWS\tREQUIRED")
			for _, name := range set.Names() {
				tbl, _ := set.Get(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%t\n", name, len(tbl.Columns), tbl.Len(), required[name])
			}
			for _, name := range titles.RequiredTables {
				if _, ok := set.Get(name); !ok {
					fmt.Fprintf(w, "%s\t-\t-\tmissing\n", name)
				}
			}
			return w.Flush()
		},
	}
}
