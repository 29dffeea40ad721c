package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/apostles/internal/api"
	"github.com/desertthunder/apostles/internal/auth"
	"github.com/desertthunder/apostles/internal/repositories"
	"github.com/desertthunder/apostles/internal/server"
	"github.com/desertthunder/apostles/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve opens the store and runs the API until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	loaded, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	config := *loaded
	if cmd.IsSet("host") {
		config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		config.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("db") {
		config.Database.Path = cmd.String("db")
	}
	if cmd.IsSet("log-level") {
		config.Log.Level = cmd.String("log-level")
	}

	handler, store, err := r.newAPI(&config)
	if err != nil {
		return err
	}
	defer store.Close()

	if shared.IsMemoryPath(config.Database.Path) {
		r.logger.Warn("using in-memory database, data is lost on exit")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, config.Server.Addr(), handler, r.logger)
}

// newAPI validates config and assembles the store, token authority and router.
// The caller owns the returned store.
func (r *Runner) newAPI(config *shared.Config) (http.Handler, *repositories.Store, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		return nil, nil, err
	}

	ttl, err := config.Session.SessionTTL()
	if err != nil {
		return nil, nil, err
	}

	taxonomy, err := api.LoadTaxonomy(config.Content.TaxonomyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}

	r.logger.Info("opening database", "path", config.Database.Path)
	store, err := repositories.Open(config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(store.DB(), config.Database.Path, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	router := api.NewRouter(api.Options{
		Store:    store,
		Tokens:   auth.NewTokenAuthority(ttl),
		Taxonomy: taxonomy,
		Session:  config.Session,
		Logger:   r.logger,
	})
	return router, store, nil
}
