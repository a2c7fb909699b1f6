package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count [key]",
	Short: "Count stored records, overall or under one key",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h, err := openStore()
		if err != nil {
			fatal("Failed to open store", err)
		}

		key := ""
		if len(args) == 1 {
			key = args[0]
		}
		n, err := h.count(key)
		if err != nil {
			fatal("Failed to count records", err)
		}
		fmt.Println(n)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
