package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var replaceCmd = &cobra.Command{
	Use:   "replace <old> <new>",
	Short: "Swap a stored record for a new one under the same key",
	Long: `Replace the stored record equal to <old> with <new>. Both are JSON
records and must carry the same key. The command fails when the stored
record no longer matches <old>, so concurrent edits are not silently
overwritten.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		h, err := openStore()
		if err != nil {
			fatal("Failed to open store", err)
		}

		old, err := decodeArg(h, args[0])
		if err != nil {
			fatal("Failed to parse old record", err)
		}
		repl, err := decodeArg(h, args[1])
		if err != nil {
			fatal("Failed to parse new record", err)
		}

		if err := h.replace(old, repl); err != nil {
			fatal("Failed to replace record", err)
		}
		fmt.Println("Record replaced.")
	},
}

func init() {
	rootCmd.AddCommand(replaceCmd)
}
