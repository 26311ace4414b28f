package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/notesync/internal/remote"
	"github.com/nhle/notesync/internal/store"
	appsync "github.com/nhle/notesync/internal/sync"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local cache with the mailbox",
	Long: `Sync pushes local deletions, new notes and edits to the mailbox, then
pulls new and changed remote notes into the cache.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndReport(appsync.SyncTask())
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the account can log in and list note folders",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndReport(appsync.TestTask())
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <uuid>",
	Short: "Collapse the duplicate copies of a note into one",
	Long: `Merge keeps one copy of a note that holds several, preferring the copy
with text and then the most recent remote uid, and deletes the other
copies from the mailbox.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAndReport(appsync.MergeTask(args[0]))
	},
}

// runAndReport runs one coordinator task and exits non-zero on failure.
func runAndReport(t appsync.Task) {
	d := newDialer()
	if err := execTask(openStore(), d, t, os.Stdout); err != nil {
		fatal("Error", err)
	}
}

// execTask runs t against the cache and prints its outcome. The cache is
// closed before returning.
func execTask(s *store.SQLiteStore, d remote.Dialer, t appsync.Task, out io.Writer) error {
	o := runTask(newCoordinator(s, d), t)
	if err := s.Close(); err != nil {
		slog.Warn("closing note cache", "error", err)
	}

	if o.Kind == appsync.OutcomeFailure {
		return fmt.Errorf("%s failed: %s", t.Kind, o.Message)
	}
	fmt.Fprintln(out, o.Message)
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(mergeCmd)
}
