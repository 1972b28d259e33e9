package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dialbook/dialbook/internal/auth"
	"github.com/dialbook/dialbook/internal/config"
	"github.com/dialbook/dialbook/internal/database"
	"github.com/dialbook/dialbook/internal/httputil"
	"github.com/dialbook/dialbook/internal/person"
	"github.com/dialbook/dialbook/internal/token"
	"github.com/dialbook/dialbook/internal/user"
)

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}
	setupLogging()

	// Setup database
	db, err := database.NewBadgerDB(false)
	if err != nil {
		log.Fatal().Err(err).Msg("error opening database")
	}

	tokens := token.NewIssuer(config.Current.Auth.Secret, config.Current.Auth.TokenLife)
	mw := auth.NewMiddleware(tokens)

	// Setup routing
	r := mux.NewRouter()
	r.Use(httputil.RequestLogger)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	person.SetupRoutes(api, db, mw)
	user.SetupRoutes(api, db)
	auth.SetupRoutes(api, db, tokens)

	addr := config.Current.Server.Addr()
	srv := http.Server{
		Addr:    addr,
		Handler: r,

		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	<-c

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down server")
	}

	log.Info().Msg("closing database connection")
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("error closing database")
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(config.Current.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if config.Current.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
