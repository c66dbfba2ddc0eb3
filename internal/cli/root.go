// Package cli wires configuration, stores and the generation pipeline into
// the cardforge command tree.
package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/cardforge/internal/config"
	"github.com/kpauljoseph/cardforge/internal/generator"
	"github.com/kpauljoseph/cardforge/internal/material"
	"github.com/kpauljoseph/cardforge/internal/store"
	"github.com/kpauljoseph/cardforge/pkg/logger"
)

type options struct {
	configPath string
	envFile    string
	backend    string
	verbose    bool
	debug      bool
}

// app holds what a command needs once flags and config are resolved.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store store.RecordStore
	http  *store.HTTP
	close func()
}

// NewRootCmd builds the command tree. Tests drive it with SetArgs, SetIn and
// SetOut.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	a := &app{close: func() {}}

	root := &cobra.Command{
		Use:   "cardforge",
		Short: "Generate, store and study flashcards",
		Long: `cardforge turns study material into pair, fill-in-the-blank and
multiple-choice flashcards using an AI generation service, stores them in a
flashcard store and quizzes you on them in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML or TOML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.StringVar(&opts.backend, "backend", "", "store backend: http, postgres or memory (overrides config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.BoolVar(&opts.debug, "debug", false, "enable trace logging")

	root.AddCommand(
		newGenerateCmd(a),
		newListCmd(a),
		newStudyCmd(a),
		newMaterialsCmd(a),
		newVersionCmd(),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command, opts *options) error {
	if err := config.LoadEnvFiles(opts.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if opts.backend != "" {
		cfg.Store.Backend = opts.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	level := logger.ParseLevel(cfg.Log.Level)
	if opts.debug {
		level = logger.LevelTrace
	}
	a.log = logger.New(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithPrefix("[cardforge] "),
		logger.WithLevel(level),
	)
	if opts.verbose || cfg.Log.Verbose {
		a.log.SetVerbose(true)
		a.log.Debug("Verbose logging enabled")
	}

	return a.openStore(cmd.Context())
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Backend {
	case config.BackendPostgres:
		pg, pool, err := store.ConnectPostgres(ctx, a.cfg.Store.DatabaseURL, a.log)
		if err != nil {
			return err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return err
		}
		a.store = pg
		a.close = pool.Close
	case config.BackendMemory:
		a.store = store.NewMemory()
	default:
		a.http = store.NewHTTP(a.cfg.Store.URL, a.log,
			store.WithHTTPClient(&http.Client{Timeout: a.cfg.Store.Timeout}))
		a.store = a.http
	}
	a.log.Debug("Using %s store", a.cfg.Store.Backend)
	return nil
}

// materialSource picks the remote source when configured and the store can serve
// files; otherwise the local library.
func (a *app) materialSource() material.Source {
	if a.cfg.Materials.Remote && a.http != nil {
		return material.NewRemote(a.http, a.log)
	}
	return material.NewLibrary(a.cfg.Materials.Dir, a.log)
}

func (a *app) newGenerator() generator.ContentGenerator {
	return generator.NewHTTP(a.cfg.Generator.URL, a.log, generator.WithTimeout(a.cfg.Generator.Timeout))
}
