package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/flashdeck/internal/api"
	"github.com/abhisek/flashdeck/internal/authoring"
	"github.com/abhisek/flashdeck/internal/card"
	"github.com/abhisek/flashdeck/internal/llm"
	"github.com/abhisek/flashdeck/internal/transfer"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List, author and transfer flashcards",
}

var cardsListCmd = &cobra.Command{
	Use:   "list <deck-id>",
	Short: "List the cards of a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		cards, err := e.client.ListFlashcards(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("list flashcards: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(cards) == 0 {
			fmt.Fprintln(out, "No cards in this deck.")
			return nil
		}
		printCards(out, cards)
		return nil
	},
}

func printCards(out io.Writer, cards []card.Flashcard) {
	fmt.Fprintf(out, "%-36s  %-16s  %-40s  %-24s  %s\n", "ID", "Type", "Question", "Answer", "Reviews")
	fmt.Fprintln(out, strings.Repeat("─", 130))
	for _, c := range cards {
		answer := ""
		if c.Answer != nil {
			answer = c.Answer.CorrectText()
		}
		if p := card.Problem(c.Answer); p != "" {
			answer = "(" + p + ")"
		}
		fmt.Fprintf(out, "%-36s  %-16s  %-40s  %-24s  %d/%d\n",
			truncate(c.ID, 36),
			c.Type.DisplayName(),
			truncate(oneLine(c.Question), 40),
			truncate(oneLine(answer), 24),
			c.CorrectReviews, c.TotalReviews)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cardFlags registers the flags that describe a card's content.
func cardFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("type", "t", string(card.TypeBasic), "Card type: basic, definition, multiple_choice, true_false or fill_in_blank")
	f.StringP("question", "q", "", "Question text; fill-in-blank questions mark the blank with "+card.BlankMarker)
	f.StringP("answer", "a", "", "Answer text, or the correct option, True/False or blank value")
	f.StringArrayP("option", "o", nil, "Multiple choice option (repeat for each)")
	f.StringP("explanation", "e", "", "Explanation shown after checking")
}

func parseCardType(s string) (card.Type, error) {
	t, ok := transfer.ParseType(s)
	if !ok {
		names := make([]string, len(card.AllTypes))
		for i, k := range card.AllTypes {
			names[i] = string(k)
		}
		return "", fmt.Errorf("unknown card type %q (want one of %s)", s, strings.Join(names, ", "))
	}
	return t, nil
}

// payloadFromFlags builds the answer payload for question from the card
// flags.
func payloadFromFlags(cmd *cobra.Command, question string, t card.Type) (json.RawMessage, error) {
	flags := cmd.Flags()
	answer, _ := flags.GetString("answer")
	options, _ := flags.GetStringArray("option")
	explanation, _ := flags.GetString("explanation")

	raw, rowErrs := transfer.BuildPayload(question, t, transfer.Fields{
		Answer:      strings.TrimSpace(answer),
		Correct:     strings.TrimSpace(answer),
		Options:     options,
		Explanation: strings.TrimSpace(explanation),
	})
	if len(rowErrs) > 0 {
		errs := make([]error, len(rowErrs))
		for i, re := range rowErrs {
			errs[i] = errors.New(re.Message)
		}
		return nil, fmt.Errorf("invalid card: %w", errors.Join(errs...))
	}
	return raw, nil
}

// newDrafter builds a Drafter on the configured LLM provider, recording
// requests in the history store when it is available.
func newDrafter(ctx context.Context, cmd *cobra.Command, e *env) (*authoring.Drafter, error) {
	cfg, err := llm.ResolveConfig()
	if err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	provider, err := llm.NewProvider(ctx, cfg, historyRepo(cmd, e), e.logger)
	if err != nil {
		return nil, err
	}
	return authoring.NewDrafter(provider, authoring.DefaultConfig(), e.logger), nil
}

func printDraft(out io.Writer, d *authoring.Draft) {
	fmt.Fprintf(out, "Type:     %s\n", d.Type.DisplayName())
	fmt.Fprintf(out, "Question: %s\n", d.Question)
	fmt.Fprintf(out, "Answer:   %s\n", d.Answer.CorrectText())
	if c, ok := d.Answer.(card.ChoiceAnswer); ok {
		for i, o := range c.Options {
			fmt.Fprintf(out, "  %c) %s\n", 'A'+i, o)
		}
	}
	if x := d.Answer.Explain(); x != "" {
		fmt.Fprintf(out, "Why:      %s\n", x)
	}
	fmt.Fprintf(out, "Model:    %s (%d in / %d out tokens)\n", d.Model, d.Usage.InputTokens, d.Usage.OutputTokens)
}

var cardsAddCmd = &cobra.Command{
	Use:   "add <deck-id>",
	Short: "Add a card to a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		question, _ := flags.GetString("question")
		question = strings.TrimSpace(question)
		typeName, _ := flags.GetString("type")
		draft, _ := flags.GetBool("draft")
		hint, _ := flags.GetString("hint")

		t, err := parseCardType(typeName)
		if err != nil {
			return err
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		var payload json.RawMessage
		if draft {
			d, err := newDrafter(ctx, cmd, e)
			if err != nil {
				return err
			}
			res, err := d.Draft(ctx, question, t, hint)
			if err != nil {
				return err
			}
			printDraft(out, res)
			payload = res.Payload
		} else {
			payload, err = payloadFromFlags(cmd, question, t)
			if err != nil {
				return err
			}
		}

		c, err := e.client.CreateFlashcard(ctx, api.FlashcardInput{
			DeckID:   args[0],
			Question: question,
			Type:     t,
			Answer:   payload,
		})
		if err != nil {
			return fmt.Errorf("create flashcard: %w", err)
		}
		e.logger.Info("flashcard created", "deck_id", args[0], "card_id", c.ID, "drafted", draft)
		fmt.Fprintf(out, "Created card %s\n", c.ID)
		return nil
	},
}

var cardsEditCmd = &cobra.Command{
	Use:   "edit <deck-id> <card-id>",
	Short: "Change a card's question or answer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckID, cardID := args[0], args[1]

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		cards, err := e.client.ListFlashcards(ctx, deckID)
		if err != nil {
			return fmt.Errorf("list flashcards: %w", err)
		}
		var current *card.Flashcard
		for i := range cards {
			if cards[i].ID == cardID {
				current = &cards[i]
				break
			}
		}
		if current == nil {
			return fmt.Errorf("card %s not found in deck %s", cardID, deckID)
		}

		flags := cmd.Flags()
		in := api.FlashcardInput{
			DeckID:   deckID,
			Question: current.Question,
			Type:     current.Type,
			Answer:   current.RawAnswer,
		}
		if flags.Changed("question") {
			in.Question, _ = flags.GetString("question")
			in.Question = strings.TrimSpace(in.Question)
		}
		if flags.Changed("type") {
			name, _ := flags.GetString("type")
			if in.Type, err = parseCardType(name); err != nil {
				return err
			}
		}
		answerChanged := flags.Changed("answer") || flags.Changed("option") || flags.Changed("explanation")
		if !flags.Changed("question") && !flags.Changed("type") && !answerChanged {
			return errors.New("nothing to change: pass --question, --type, --answer, --option or --explanation")
		}
		if answerChanged {
			if in.Answer, err = payloadFromFlags(cmd, in.Question, in.Type); err != nil {
				return err
			}
		} else if p := card.Problem(card.Normalize(in.Answer, in.Type)); p != "" {
			return fmt.Errorf("existing answer does not fit the card: %s; pass --answer", p)
		}

		c, err := e.client.UpdateFlashcard(ctx, cardID, in)
		if err != nil {
			return fmt.Errorf("update flashcard: %w", err)
		}
		e.logger.Info("flashcard updated", "card_id", c.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Updated card %s\n", c.ID)
		return nil
	},
}

var cardsDeleteCmd = &cobra.Command{
	Use:   "delete <card-id>",
	Short: "Delete a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.client.DeleteFlashcard(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete flashcard: %w", err)
		}
		e.logger.Info("flashcard deleted", "card_id", args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", args[0])
		return nil
	},
}

var cardsDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft an answer with the LLM without saving it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		question, _ := flags.GetString("question")
		typeName, _ := flags.GetString("type")
		hint, _ := flags.GetString("hint")
		asJSON, _ := flags.GetBool("json")

		t, err := parseCardType(typeName)
		if err != nil {
			return err
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		d, err := newDrafter(ctx, cmd, e)
		if err != nil {
			return err
		}
		res, err := d.Draft(ctx, strings.TrimSpace(question), t, hint)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			fmt.Fprintln(out, string(res.Payload))
			return nil
		}
		printDraft(out, res)
		return nil
	},
}

func init() {
	cardFlags(cardsAddCmd)
	cardsAddCmd.Flags().Bool("draft", false, "Draft the answer with the LLM instead of --answer")
	cardsAddCmd.Flags().String("hint", "", "Guidance for the drafted answer")
	_ = cardsAddCmd.MarkFlagRequired("question")

	cardFlags(cardsEditCmd)

	cardsDraftCmd.Flags().StringP("type", "t", string(card.TypeBasic), "Card type")
	cardsDraftCmd.Flags().StringP("question", "q", "", "Question text")
	cardsDraftCmd.Flags().String("hint", "", "Guidance for the drafted answer")
	cardsDraftCmd.Flags().Bool("json", false, "Print only the answer payload")
	_ = cardsDraftCmd.MarkFlagRequired("question")

	cardsCmd.AddCommand(cardsListCmd)
	cardsCmd.AddCommand(cardsAddCmd)
	cardsCmd.AddCommand(cardsEditCmd)
	cardsCmd.AddCommand(cardsDeleteCmd)
	cardsCmd.AddCommand(cardsDraftCmd)
	cardsCmd.AddCommand(cardsImportCmd)
	cardsCmd.AddCommand(cardsExportCmd)
}
