package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailtriage/internal/credential"
	"github.com/nhle/mailtriage/internal/fetch"
)

func fetchCmd() *cobra.Command {
	var (
		all     bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch new messages from the mail server",
		Long:  "Connects to the configured IMAP server and stores every message received since the last fetch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			password, err := credential.IMAPPassword()
			if err != nil {
				return fmt.Errorf("reading IMAP password: %w", err)
			}

			dialer := &fetch.IMAPDialer{
				Host:     a.cfg.IMAP.Host,
				Port:     a.cfg.IMAP.Port,
				Username: a.cfg.IMAP.Username,
				Password: password,
				TLS:      a.cfg.IMAP.TLS,
			}

			if workers <= 0 {
				workers = a.cfg.IMAP.FetchWorkers
			}
			f := fetch.New(dialer, a.cfg.IMAP.Mailbox, workers, a.sink, a.logger)

			var since time.Time
			if !all {
				last, ok, err := a.store.LastFetch(ctx)
				if err != nil {
					return err
				}
				if ok {
					since = last
				}
			}

			started := time.Now()
			ids, err := f.Enumerate(ctx, since)
			if err != nil {
				if fetch.IsAuthError(err) {
					return fmt.Errorf("login rejected for %s; check the stored password: %w",
						a.cfg.IMAP.Username, err)
				}
				return err
			}
			if len(ids) == 0 {
				fmt.Println("Nothing new to fetch.")
				return nil
			}

			res, err := f.Fetch(ctx, ids)
			if err != nil {
				return err
			}

			stored := 0
			for _, m := range res.Messages {
				if _, err := a.store.Insert(ctx, m.Message); err != nil {
					a.logger.Warn("storing message failed", "id", m.ID, "error", err)
					continue
				}
				stored++
			}

			if err := a.store.SaveFetchTime(ctx, started); err != nil {
				return err
			}

			fmt.Printf("Fetched %d of %d messages, stored %d.\n",
				len(res.Messages), res.Expected, stored)
			if missing := res.Missing(); missing > 0 {
				fmt.Printf("%d messages could not be retrieved; run fetch --all to retry.\n", missing)
			}
			for _, w := range res.FailedWorkers() {
				a.logger.Warn("fetch worker stopped", "delivered", w.Delivered,
					"failed", w.Failed, "error", w.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "ignore the last fetch time and fetch the whole mailbox")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent fetch connections (0 uses the configured value)")
	return cmd
}
