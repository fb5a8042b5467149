package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/flashdeck/internal/api"
	"github.com/abhisek/flashdeck/internal/app"
	"github.com/abhisek/flashdeck/internal/screen"
	"github.com/abhisek/flashdeck/internal/screens/home"
	"github.com/abhisek/flashdeck/internal/screens/study"
	"github.com/abhisek/flashdeck/internal/screens/welcome"
	"github.com/abhisek/flashdeck/internal/store"
)

// historyRepo opens the history store. Study works without it, so a
// failure is reported and history is disabled.
func historyRepo(cmd *cobra.Command, e *env) store.EventRepo {
	st, err := e.openStore()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Study history unavailable:", err)
		e.logger.Warn("history store unavailable", "error", err)
		return nil
	}
	return st.EventRepo()
}

// runApp launches the TUI: a splash, then the deck picker.
func runApp(cmd *cobra.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	opts := study.Options{
		ShuffleOnRestart: e.cfg.ShuffleOnRestart,
		Logger:           e.logger,
	}
	repo := historyRepo(cmd, e)
	return app.Run(welcome.New(func() screen.Screen {
		return home.New(e.client, repo, opts)
	}))
}

var studyCmd = &cobra.Command{
	Use:   "study <deck-id>",
	Short: "Study a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		deck, err := e.client.GetDeck(cmd.Context(), args[0])
		if api.IsNotFound(err) {
			return fmt.Errorf("deck %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("get deck: %w", err)
		}

		opts := study.Options{
			ShuffleOnRestart: e.cfg.ShuffleOnRestart,
			Logger:           e.logger,
		}
		if cmd.Flags().Changed("shuffle") {
			opts.ShuffleOnRestart, _ = cmd.Flags().GetBool("shuffle")
		}
		return app.Run(study.New(e.client, historyRepo(cmd, e), *deck, opts))
	},
}

func init() {
	studyCmd.Flags().Bool("shuffle", true, "Shuffle the deck when studying it again (overrides FLASHDECK_SHUFFLE)")
}
