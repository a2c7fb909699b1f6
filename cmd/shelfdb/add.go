package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/shelf/record"
)

var addAutoID bool

var addCmd = &cobra.Command{
	Use:   "add <record>",
	Short: "Store a new record, failing if it already exists",
	Long: `Store one JSON record. A record already stored under the same key fails
the command. With --auto-id the string key field is filled with a fresh
UUID before storing; the schema then needs a default for the key field.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h, err := openStore()
		if err != nil {
			fatal("Failed to open store", err)
		}

		rec, err := decodeArg(h, args[0])
		if err != nil {
			fatal("Failed to parse record", err)
		}

		if addAutoID {
			if err := rec.Set(h.keyField(), uuid.NewString()); err != nil {
				fatal("Failed to assign key", err)
			}
		}

		if err := h.add(rec); err != nil {
			fatal("Failed to add record", err)
		}
		if err := printRecords([]*record.Record{rec}); err != nil {
			fatal("Failed to encode record", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().BoolVar(&addAutoID, "auto-id", false, "Fill the string key field with a fresh UUID")
}
