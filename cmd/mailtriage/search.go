package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mailtriage/internal/model"
	"github.com/nhle/mailtriage/internal/search"
)

func searchCmd() *cobra.Command {
	var (
		subject  bool
		to       bool
		from     bool
		allMatch bool
		workers  int
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "search <terms...>",
		Short: "Search stored messages and tag the matches",
		Long: "Searches every stored message for the given terms and tags " +
			"the matches with the terms themselves. Terms may be passed as " +
			"separate arguments or comma-separated. Bodies are always " +
			"searched; headers are opt-in per flag.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			q := model.MatchQuery{
				Terms:         model.ParseTerms(strings.Join(args, ",")),
				SearchSubject: subject,
				SearchTo:      to,
				SearchFrom:    from,
				AllMatch:      allMatch,
			}
			if err := q.Validate(); err != nil {
				return err
			}

			// Any-mode with several terms tags every match with every
			// term, including ones it did not hit. Make sure the user
			// wants that before writing tags.
			if q.IndiscriminateTags() && !yes {
				fmt.Printf("Matching %s.\n", search.Describe(q))
				if !confirm("Every match will be tagged with all terms. Continue?") {
					return nil
				}
			}

			msgs, err := a.store.LoadAll(ctx)
			if err != nil {
				return err
			}

			if workers <= 0 {
				workers = a.cfg.SearchWorkers()
			}
			c := search.New(a.store, workers, a.sink)
			res, err := c.Search(ctx, msgs, q)
			if err != nil {
				return err
			}

			fmt.Printf("%.1f%% (%d/%d) of messages matched; tagged with %q.\n",
				res.Percent, res.MatchedCount, res.Total, res.Tag)
			return nil
		},
	}

	cmd.Flags().BoolVar(&subject, "subject", false, "also match against the Subject header")
	cmd.Flags().BoolVar(&to, "to", false, "also match against the To header")
	cmd.Flags().BoolVar(&from, "from", false, "also match against the From header")
	cmd.Flags().BoolVar(&allMatch, "all-match", false, "require every term to match instead of any")
	cmd.Flags().IntVar(&workers, "workers", 0, "classification pool size (0 uses the configured value)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompts")
	return cmd
}
