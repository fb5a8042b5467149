package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/flashdeck/internal/transfer"
)

var cardsImportCmd = &cobra.Command{
	Use:   "import <deck-id> <file.xlsx>",
	Short: "Create cards from a spreadsheet",
	Long: "Reads the first sheet of an xlsx workbook. The header row needs Type and Question " +
		"columns; Answer, Option A-D, Correct Answer and Explanation are used when present.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckID, path := args[0], args[1]
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := transfer.NewImporter(e.client, e.logger).Import(cmd.Context(), deckID, f, dryRun)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, re := range res.Errors {
			fmt.Fprintf(out, "  ✗ %s\n", re.Error())
		}
		verb := "Imported"
		if dryRun {
			verb = "Would import"
		}
		fmt.Fprintf(out, "%s %d of %d rows", verb, res.SuccessCount, res.TotalRows)
		if res.ErrorCount > 0 {
			fmt.Fprintf(out, " (%d with errors)", res.ErrorCount)
		}
		fmt.Fprintln(out)
		if res.SuccessCount == 0 && res.ErrorCount > 0 {
			return fmt.Errorf("no rows imported")
		}
		return nil
	},
}

var cardsExportCmd = &cobra.Command{
	Use:   "export <deck-id> <file.xlsx>",
	Short: "Write a deck's cards to a spreadsheet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckID, path := args[0], args[1]

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create workbook: %w", err)
		}
		n, err := transfer.ExportDeck(cmd.Context(), e.client, deckID, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			return err
		}
		e.logger.Info("deck exported", "deck_id", deckID, "cards", n, "path", path)
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cards to %s\n", n, path)
		return nil
	},
}

func init() {
	cardsImportCmd.Flags().Bool("dry-run", false, "Check the workbook without creating cards")
}
