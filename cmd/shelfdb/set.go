package main

import (
	"fmt"

	"github.com/aretw0/shelf/record"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <record>...",
	Short: "Store records, replacing anything under the same key",
	Long: `Store one or more JSON records. Existing records under the same key are
replaced. With --multi, all given records must share one key and become
that key's whole group.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h, err := openStore()
		if err != nil {
			fatal("Failed to open store", err)
		}

		recs := make([]*record.Record, 0, len(args))
		for _, arg := range args {
			rec, err := decodeArg(h, arg)
			if err != nil {
				fatal("Failed to parse record", err)
			}
			recs = append(recs, rec)
		}

		if err := h.set(recs); err != nil {
			fatal("Failed to set record", err)
		}
		fmt.Printf("Stored %d record(s).\n", len(recs))
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
