package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/mailtriage/internal/store"
)

func showCmd() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List stored messages",
		Long:  "Lists stored messages with their date, sender, subject and tags, optionally filtered by tag.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			var msgs []store.StoredMessage
			if tag != "" {
				msgs, err = a.store.LoadByTag(ctx, tag)
			} else {
				msgs, err = a.store.LoadAll(ctx)
			}
			if err != nil {
				return err
			}

			if len(msgs) == 0 {
				fmt.Println("No messages.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tFROM\tSUBJECT\tTAGS")
			for _, m := range msgs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					m.Message.Date.Format("2006-01-02 15:04"),
					m.Message.From, m.Message.Subject, m.Tags)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "only list messages carrying this tag")
	return cmd
}

func resetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored messages and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm("This deletes every stored message and tag. Continue?") {
				return nil
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Store reset.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
