package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/abhisek/flashdeck/internal/api"
	"github.com/abhisek/flashdeck/internal/config"
	"github.com/abhisek/flashdeck/internal/logging"
	"github.com/abhisek/flashdeck/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "flashdeck",
	Short: "Study flashcard decks in the terminal",
	Long: "flashdeck studies decks served by a flashcard API, keeps a local study history " +
		"and drafts card answers with an LLM.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite history database (overrides FLASHDECK_DB)")
	pf.String("api", "", "Flashcard API base URL (overrides FLASHDECK_API_URL)")
	pf.String("log-file", "", "Log file path (overrides FLASHDECK_LOG_FILE)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(decksCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// env is the configuration, logger and API client shared by commands.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *api.Client
	closers []io.Closer
}

// loadConfig reads the environment, then applies persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if p, _ := flags.GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if u, _ := flags.GetString("api"); u != "" {
		cfg.APIURL = u
	}
	if p, _ := flags.GetString("log-file"); p != "" {
		cfg.LogFile = p
	}
	if l, _ := flags.GetString("log-level"); l != "" {
		cfg.LogLevel = l
	}
	return cfg, cfg.Validate()
}

// setup loads configuration and opens the log file. A log file that
// cannot be opened disables logging rather than failing the command.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	e := &env{cfg: cfg}
	logger, closer, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Logging disabled:", err)
		logger = logging.Discard()
	} else {
		e.closers = append(e.closers, closer)
	}
	e.logger = logger
	e.client = api.New(api.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	return e, nil
}

// openStore opens the history database. It is closed with the env.
func (e *env) openStore() (*store.Store, error) {
	if err := store.EnsureDir(e.cfg.DBPath); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	st, err := store.Open(e.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	e.closers = append(e.closers, st)
	return st, nil
}

// Close releases everything the env opened, newest first.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close()
	}
}
