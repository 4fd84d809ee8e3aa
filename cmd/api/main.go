package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/scrob-fm/scrob/internal/auth"
	"github.com/scrob-fm/scrob/internal/config"
	"github.com/scrob-fm/scrob/internal/db"
	"github.com/scrob-fm/scrob/internal/graphql"
	"github.com/scrob-fm/scrob/internal/handlers"
	"github.com/scrob-fm/scrob/internal/logging"
	"github.com/scrob-fm/scrob/internal/repo"
	"github.com/scrob-fm/scrob/internal/scheduler"
)

func main() {

	// Load configuration
	cfg := config.Load()

	log := logging.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	// Connect to database FIRST
	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
	)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.Run(cfg.DatabaseURL()); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("database ready")

	userRepo := repo.NewUserRepo(database)
	tokenRepo := repo.NewTokenRepo(database)
	scrobbleRepo := repo.NewScrobbleRepo(database)

	sessions := auth.NewService(userRepo, tokenRepo, log)
	resolver := auth.NewResolver(sessions)

	schema, err := graphql.NewSchema(graphql.Deps{
		Sessions:  sessions,
		Scrobbles: scrobbleRepo,
		Tokens:    tokenRepo,
	})
	if err != nil {
		log.Error("build graphql schema", "error", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(handlers.Deps{
		Sessions:           sessions,
		Resolver:           resolver,
		Users:              userRepo,
		Tokens:             tokenRepo,
		Scrobbles:          scrobbleRepo,
		GraphQL:            graphql.NewHandler(schema),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HSTS:               cfg.Env == "prod",
	})

	// Background maintenance
	cronJobs := scheduler.Run(tokenRepo, log)
	defer cronJobs.Stop()

	addr := cfg.Host + ":" + cfg.Port
	log.Info("starting server", "addr", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
