package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every note from the local cache",
	Long: `Wipe empties the local cache. Notes that were not pushed yet are lost;
the next sync pulls everything from the mailbox again.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !wipeYes {
			confirmed := false
			err := huh.NewConfirm().
				Title("Delete every cached note?").
				Description("Unsynced changes are lost.").
				Value(&confirmed).
				Run()
			if err != nil {
				fatal("Error reading confirmation", err)
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return
			}
		}

		s := openStore()
		defer s.Close()

		if err := s.WipeAll(context.Background()); err != nil {
			fatal("Error wiping cache", err)
		}
		fmt.Println("Cache wiped.")
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().BoolVarP(&wipeYes, "yes", "y", false, "Skip the confirmation prompt")
}
