package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	api "github.com/Sardor-M/p-website-backend/api"
	"github.com/Sardor-M/p-website-backend/config"
	"github.com/Sardor-M/p-website-backend/database"
	"github.com/Sardor-M/p-website-backend/docstore"
	"github.com/Sardor-M/p-website-backend/firebase"
	"github.com/Sardor-M/p-website-backend/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:           "p-website-backend",
		Short:         "Blog API backed by Postgres or Firestore",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				setupLogger(config.Config{LogLevel: "info"})
				log.Error().Err(err).Msg("invalid configuration")
				return err
			}
			*cfg = loaded
			setupLogger(*cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}

	cmd.AddCommand(
		newServeCmd(cfg),
		newMigrateCmd(cfg),
		newGenerateCmd(cfg),
	)
	return cmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}
}

// setupLogger configures the global zerolog logger: JSON in production,
// human-readable console output elsewhere.
func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

func serve(ctx context.Context, cfg config.Config) error {
	log.Info().Str("env", cfg.Env).Str("backend", cfg.StoreBackend).Msg("Initializing app...")

	initCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	store, closeStore, err := openStore(initCtx, cfg)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("Error opening store")
		return err
	}
	defer closeStore()

	// Start reports ErrServerClosed after shutdown, so leave room for it.
	errChannel := make(chan error, 2)

	server, err := api.NewServer(cfg, services.NewBlogService(store))
	if err != nil {
		log.Error().Err(err).Msg("Error initializing server")
		return err
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(cfg.Server.ShutdownTimeout())
	return nil
}

// openStore wires the backend selected by STORE_BACKEND and returns its
// teardown.
func openStore(ctx context.Context, cfg config.Config) (services.BlogStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db, cfg.IsProduction()); err != nil {
			return nil, nil, err
		}
		currentDB := database.New(db)
		return currentDB.BlogPostRepo(), func() {
			if err := currentDB.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing database")
			}
		}, nil

	case config.BackendFirestore:
		app := firebase.NewApp(cfg, firebase.NewEnvironment(cfg), firebase.FirestoreDialer{ProbeCollection: docstore.CollectionName})
		if err := app.Init(ctx); err != nil {
			return nil, nil, err
		}
		client, err := app.Client(ctx)
		if err != nil {
			return nil, nil, err
		}
		if app.Fallback() {
			log.Warn().Msg("Running against the fallback Firestore project, writes will likely fail")
		}
		return docstore.NewBlogRepo(docstore.NewFirestoreCollection(client, docstore.CollectionName)), app.Close, nil

	case config.BackendMemory:
		log.Warn().Msg("Using the in-memory store, data is lost on restart")
		return docstore.NewBlogRepo(docstore.NewMemoryCollection()), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
