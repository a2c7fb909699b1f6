package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

var (
	listJSON    bool
	listGlob    string
	listRecords bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List keys in the store",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := openStore()
		if err != nil {
			fatal("Failed to open store", err)
		}

		if listRecords {
			recs, err := h.records()
			if err != nil {
				fatal("Failed to list records", err)
			}
			if err := printRecords(recs); err != nil {
				fatal("Failed to encode record", err)
			}
			return
		}

		keys, err := h.keys()
		if err != nil {
			fatal("Failed to list keys", err)
		}

		if listGlob != "" {
			var filtered []string
			for _, key := range keys {
				ok, err := doublestar.Match(listGlob, key)
				if err != nil {
					fatal("Invalid glob pattern", err)
				}
				if ok {
					filtered = append(filtered, key)
				}
			}
			keys = filtered
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(keys); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, key := range keys {
			fmt.Println(key)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listGlob, "glob", "", "Only list keys matching this glob pattern")
	listCmd.Flags().BoolVar(&listRecords, "records", false, "Print full records instead of keys")
}
