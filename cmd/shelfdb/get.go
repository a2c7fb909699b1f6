package main

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the record(s) stored under a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h, err := openStore()
		if err != nil {
			fatal("Failed to open store", err)
		}

		recs, err := h.get(args[0])
		if err != nil {
			fatal("Failed to get record", err)
		}
		if err := printRecords(recs); err != nil {
			fatal("Failed to encode record", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
