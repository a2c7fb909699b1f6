package main

import (
	"github.com/spf13/cobra"
)

var popCmd = &cobra.Command{
	Use:   "pop <key>",
	Short: "Remove and print the record(s) stored under a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h, err := openStore()
		if err != nil {
			fatal("Failed to open store", err)
		}

		recs, err := h.pop(args[0])
		if err != nil {
			fatal("Failed to pop record", err)
		}
		if err := printRecords(recs); err != nil {
			fatal("Failed to encode record", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(popCmd)
}
