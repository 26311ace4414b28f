package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/notesync/internal/credential"
	"github.com/nhle/notesync/internal/mailbox"
	"github.com/nhle/notesync/internal/model"
	configview "github.com/nhle/notesync/internal/ui/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set up the IMAP account interactively",
	Long: `Configure asks for the account settings, tests the connection and
stores the settings in the config file and the password in the system
keyring.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		m := configview.New(cfg.Account, checkAccount, saveAccount)

		final, err := tea.NewProgram(m).Run()
		if err != nil {
			fatal("Error running account setup", err)
		}
		if done, ok := final.(configview.Model); ok && done.Saved() {
			fmt.Printf("Account saved to %s\n", cfgPath)
			return
		}
		fmt.Println("Aborted.")
	},
}

// checkAccount logs in and counts the note folders.
func checkAccount(ctx context.Context, account model.AccountConfig, password string) (string, error) {
	client := mailbox.NewIMAPClient(
		account.Host, account.Port, account.Login(), password, account.TLS,
		slog.Default().With("component", "imap"),
	)

	sess, err := client.Dial(ctx)
	if err != nil {
		return "", err
	}
	defer sess.Logout()

	folders, err := sess.ListFolders(ctx, account.FolderPattern)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Logged in as %s, %d note folders match %q", account.Login(), len(folders), account.FolderPattern), nil
}

func saveAccount(account model.AccountConfig, password string) error {
	if err := credential.SetPassword(account.Login(), password); err != nil {
		return err
	}
	cfg.Account = account
	return model.SaveConfig(cfgPath, cfg)
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
