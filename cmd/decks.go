package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/flashdeck/internal/api"
)

var decksCmd = &cobra.Command{
	Use:   "decks",
	Short: "List and manage decks",
}

var decksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List decks",
	RunE: func(cmd *cobra.Command, args []string) error {
		withCounts, _ := cmd.Flags().GetBool("counts")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		decks, err := e.client.ListDecks(ctx)
		if err != nil {
			return fmt.Errorf("list decks: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(decks) == 0 {
			fmt.Fprintln(out, "No decks found.")
			return nil
		}

		var counts map[string]int
		if withCounts {
			counts, err = e.client.DeckCardCounts(ctx, decks)
			if err != nil {
				return fmt.Errorf("count cards: %w", err)
			}
		}

		fmt.Fprintf(out, "%-36s  %-32s  %6s  %s\n", "ID", "Name", "Cards", "Public")
		fmt.Fprintln(out, strings.Repeat("─", 86))
		for _, d := range decks {
			n := "-"
			if c, ok := counts[d.ID]; ok {
				n = fmt.Sprint(c)
			}
			public := ""
			if d.IsPublic {
				public = "yes"
			}
			fmt.Fprintf(out, "%-36s  %-32s  %6s  %s\n", truncate(d.ID, 36), truncate(d.Name, 32), n, public)
		}
		return nil
	},
}

var decksShowCmd = &cobra.Command{
	Use:   "show <deck-id>",
	Short: "Show a deck and its cards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		d, err := e.client.GetDeck(ctx, args[0])
		if api.IsNotFound(err) {
			return fmt.Errorf("deck %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("get deck: %w", err)
		}
		cards, err := e.client.ListFlashcards(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("list flashcards: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:          %s\n", d.ID)
		fmt.Fprintf(out, "Name:        %s\n", d.Name)
		if d.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", d.Description)
		}
		fmt.Fprintf(out, "Public:      %v\n", d.IsPublic)
		if !d.CreatedAt.IsZero() {
			fmt.Fprintf(out, "Created:     %s\n", d.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(out, "Cards:       %d\n", len(cards))
		if len(cards) > 0 {
			fmt.Fprintln(out)
			printCards(out, cards)
		}
		return nil
	},
}

var decksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a deck",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		desc, _ := cmd.Flags().GetString("description")
		public, _ := cmd.Flags().GetBool("public")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		d, err := e.client.CreateDeck(cmd.Context(), api.DeckInput{
			Name:        strings.TrimSpace(name),
			Description: desc,
			IsPublic:    public,
		})
		if err != nil {
			return fmt.Errorf("create deck: %w", err)
		}
		e.logger.Info("deck created", "deck_id", d.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Created deck %s (%s)\n", d.Name, d.ID)
		return nil
	},
}

var decksDeleteCmd = &cobra.Command{
	Use:   "delete <deck-id>",
	Short: "Delete a deck and its cards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.client.DeleteDeck(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete deck: %w", err)
		}
		e.logger.Info("deck deleted", "deck_id", args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %s\n", args[0])
		return nil
	},
}

// truncate shortens s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func init() {
	decksListCmd.Flags().Bool("counts", false, "Fetch the number of cards in each deck")

	decksCreateCmd.Flags().String("name", "", "Deck name")
	decksCreateCmd.Flags().String("description", "", "Deck description")
	decksCreateCmd.Flags().Bool("public", false, "Make the deck public")
	_ = decksCreateCmd.MarkFlagRequired("name")

	decksCmd.AddCommand(decksListCmd)
	decksCmd.AddCommand(decksShowCmd)
	decksCmd.AddCommand(decksCreateCmd)
	decksCmd.AddCommand(decksDeleteCmd)
}
