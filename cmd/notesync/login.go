package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/notesync/internal/credential"
	"github.com/nhle/notesync/internal/model"
)

var (
	loginEmail  string
	loginHost   string
	loginForget bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the IMAP password in the system keyring",
	Long: `Login asks for the account password and stores it in the system
keyring. With --email or --host the account settings are written to
the config file too. With --forget the stored password is removed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if loginEmail != "" || loginHost != "" {
			if loginEmail != "" {
				cfg.Account.Email = loginEmail
			}
			if loginHost != "" {
				cfg.Account.Host = loginHost
			}
			if err := model.SaveConfig(cfgPath, cfg); err != nil {
				fatal("Error saving config", err)
			}
		}

		login := cfg.Account.Login()
		if login == "" {
			fatal("Error", errors.New("account.email is not set; pass --email"))
		}

		if loginForget {
			if err := credential.ForgetPassword(login); err != nil {
				fatal("Error removing password", err)
			}
			fmt.Printf("Password removed for %s.\n", login)
			return
		}

		var password string
		err := huh.NewInput().
			Title(fmt.Sprintf("IMAP password for %s", login)).
			EchoMode(huh.EchoModePassword).
			Value(&password).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("password is required")
				}
				return nil
			}).
			Run()
		if err != nil {
			fatal("Error reading password", err)
		}

		if err := credential.SetPassword(login, password); err != nil {
			fatal("Error storing password", err)
		}
		fmt.Printf("Password stored for %s. Run `notesync test` to check the connection.\n", login)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account e-mail address")
	loginCmd.Flags().StringVar(&loginHost, "host", "", "IMAP server host")
	loginCmd.Flags().BoolVar(&loginForget, "forget", false, "Remove the stored password instead")
}
