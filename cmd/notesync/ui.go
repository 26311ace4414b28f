package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/notesync/internal/app"
	appsync "github.com/nhle/notesync/internal/sync"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Browse and edit notes in the terminal",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore()
		defer s.Close()

		coord := newCoordinator(s, newDialer())
		m := app.New(newService(s), coord, cfg.Account.DefaultFolder)

		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fatal("Error running terminal UI", err)
		}

		// A second q quits without waiting; finish the running task first.
		coord.Submit(appsync.EndTask())
		<-coord.Done()
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
