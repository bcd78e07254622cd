package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/mailtriage/internal/credential"
	"github.com/nhle/mailtriage/internal/model"
)

func configureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Manage configuration and credentials",
	}

	cmd.AddCommand(configureInitCmd())
	cmd.AddCommand(configurePasswordCmd())
	return cmd
}

func configureInitCmd() *cobra.Command {
	var (
		host     string
		port     string
		username string
		mailbox  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the given connection settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				path = model.DefaultConfigPath()
			}

			cfg, err := model.LoadConfig(path)
			if err != nil {
				return err
			}
			if host != "" {
				cfg.IMAP.Host = host
			}
			if port != "" {
				cfg.IMAP.Port = port
			}
			if username != "" {
				cfg.IMAP.Username = username
			}
			if mailbox != "" {
				cfg.IMAP.Mailbox = mailbox
			}

			if err := model.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "IMAP server hostname")
	cmd.Flags().StringVar(&port, "port", "", "IMAP server port")
	cmd.Flags().StringVar(&username, "username", "", "IMAP account username")
	cmd.Flags().StringVar(&mailbox, "mailbox", "", "mailbox folder to fetch from")
	return cmd
}

func configurePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-password",
		Short: "Store the IMAP password in the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("IMAP password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			if len(raw) == 0 {
				fmt.Fprintln(os.Stderr, "empty password, nothing stored")
				return nil
			}

			if err := credential.Set(credential.IMAPPasswordKey, string(raw)); err != nil {
				return fmt.Errorf("storing password: %w", err)
			}
			fmt.Println("Password stored.")
			return nil
		},
	}
}
