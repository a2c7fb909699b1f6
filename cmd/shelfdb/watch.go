package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print external changes to the store file until interrupted",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := openStore()
		if err != nil {
			fatal("Failed to open store", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := h.watch(ctx)
		if err != nil {
			fatal("Failed to start watcher", err)
		}

		for ev := range events {
			fmt.Printf("%s %s %s\n", time.Unix(ev.Timestamp, 0).Format(time.TimeOnly), ev.Type, ev.Path)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
