package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/flashdeck/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show finished study sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		deckID, _ := cmd.Flags().GetString("deck")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.openStore()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		repo := st.EventRepo()
		sessions, err := repo.QuerySessionSummaries(ctx, store.QueryOpts{Limit: limit, DeckID: deckID})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No study sessions recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-16s  %-28s  %8s  %7s  %9s  %5s  %s\n",
			"Finished", "Deck", "Duration", "Checked", "1st try", "Rated", "Restarts")
		fmt.Fprintln(out, strings.Repeat("─", 96))
		for _, s := range sessions {
			name := s.DeckName
			if name == "" {
				name = s.DeckID
			}
			firstTry := "-"
			if s.CardsChecked > 0 {
				firstTry = fmt.Sprintf("%.0f%%", 100*float64(s.FirstTryCorrect)/float64(s.CardsChecked))
			}
			fmt.Fprintf(out, "%-16s  %-28s  %8s  %3d/%-3d  %9s  %5d  %d\n",
				s.Timestamp.Local().Format("2006-01-02 15:04"),
				truncate(name, 28),
				formatDuration(s.DurationSecs),
				s.CardsChecked, s.CardsTotal,
				firstTry,
				s.RatingsSubmitted,
				s.Restarts)
		}

		if deckID != "" {
			acc, err := repo.DeckAccuracy(ctx, deckID)
			if err != nil {
				return fmt.Errorf("deck accuracy: %w", err)
			}
			if acc.Answers > 0 {
				fmt.Fprintf(out, "\nAll time: %d of %d answers correct (%.0f%%)\n",
					acc.Correct, acc.Answers, 100*acc.Accuracy)
			}
		}
		return nil
	},
}

func formatDuration(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	historyCmd.Flags().StringP("deck", "d", "", "Only sessions of this deck")
}
