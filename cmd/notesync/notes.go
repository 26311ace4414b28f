package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/notesync/internal/notes"
	"github.com/nhle/notesync/internal/store"
)

var (
	listJSON      bool
	filterFolder  string
	filterKeyword string
	noteFolder    string
	noteText      string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached notes, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore()
		defer s.Close()

		var filter store.NoteFilter
		if filterFolder != "" {
			filter.Folder = &filterFolder
		}
		if filterKeyword != "" {
			filter.Keyword = &filterKeyword
		}

		all, err := newService(s).List(context.Background(), filter)
		if err != nil {
			fatal("Error listing notes", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(all); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, n := range all {
			marker := ""
			if n.NeedsMerge() {
				marker = "[M] "
			}
			fmt.Printf("%s  %-7s  %-16s  %s%s\n",
				n.Metadata.UUID, n.Metadata.State(), n.Metadata.Subfolder, marker, n.Subject())
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show [uuid]",
	Short: "Print a note as plain text",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore()
		defer s.Close()

		n, err := newService(s).Get(context.Background(), args[0])
		if err != nil {
			fatal("Error reading note", err)
		}

		fmt.Printf("Folder:  %s\nState:   %s\nCreated: %s\n",
			n.Metadata.Subfolder, n.Metadata.State(), n.Metadata.Date.Local().Format("2006-01-02 15:04"))
		if n.NeedsMerge() {
			fmt.Printf("Copies:  %d (run `notesync merge %s`)\n", len(n.Bodies), n.Metadata.UUID)
		}
		fmt.Println()
		fmt.Println(n.PlainText())
	},
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Write a new note; it is pushed on the next sync",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		text, err := promptText("New note", noteText)
		if err != nil {
			fatal("Error reading note text", err)
		}

		s := openStore()
		defer s.Close()

		n, err := newService(s).Create(context.Background(), noteFolder, text)
		if err != nil {
			fatal("Error creating note", err)
		}
		fmt.Printf("Note created: %s\n", n.Metadata.UUID)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [uuid]",
	Short: "Replace the text of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore()
		defer s.Close()

		svc := newService(s)
		ctx := context.Background()

		current, err := svc.Get(ctx, args[0])
		if err != nil {
			fatal("Error reading note", err)
		}
		if current.NeedsMerge() {
			fatal("Error editing note", fmt.Errorf("%w: run `notesync merge %s` first", notes.ErrNeedsMerge, args[0]))
		}

		text, err := promptText("Edit note", current.PlainText())
		if err != nil {
			fatal("Error reading note text", err)
		}

		if _, err := svc.Edit(ctx, args[0], text); err != nil {
			fatal("Error editing note", err)
		}
		fmt.Printf("Note edited: %s\n", args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [uuid]",
	Short: "Flag a note for deletion, or clear the flag",
	Long: `Delete toggles the deletion flag of a note. The note is removed from the
mailbox and the cache on the next sync.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore()
		defer s.Close()

		deleted, err := newService(s).ToggleDeleted(context.Background(), args[0])
		if err != nil {
			fatal("Error flagging note", err)
		}
		if deleted {
			fmt.Printf("Note flagged for deletion: %s\n", args[0])
			return
		}
		fmt.Printf("Deletion cancelled: %s\n", args[0])
	},
}

// promptText returns preset when the --text flag was given, and asks for
// the text interactively otherwise.
func promptText(title, preset string) (string, error) {
	if noteText != "" {
		return noteText, nil
	}

	text := preset
	err := huh.NewText().
		Title(title).
		Description("The first line becomes the title.").
		Value(&text).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("text is required")
			}
			return nil
		}).
		Run()
	return text, err
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&filterFolder, "folder", "", "Only list notes in this folder")
	listCmd.Flags().StringVar(&filterKeyword, "keyword", "", "Only list notes containing this text")

	rootCmd.AddCommand(showCmd)

	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&noteFolder, "folder", "", "Folder for the note (default from config)")
	newCmd.Flags().StringVar(&noteText, "text", "", "Note text; prompts when empty")

	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&noteText, "text", "", "New note text; prompts when empty")

	rootCmd.AddCommand(deleteCmd)
}
