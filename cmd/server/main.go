/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load .env (if present) and parse flags
  2. Configure zerolog (console in dev, JSON otherwise)
  3. Open the SQLite store
  4. Wire the report assembler and HTTP router
  5. Serve with graceful shutdown

CONFIGURATION (flag, falling back to environment variable):
  -port     PORT            HTTP port (default 8080)
  -db       DB_PATH         SQLite path (default timereport.db,
                            ":memory:" works)
  -region   REGION          Holiday calendar region label (default NZ)
  -jira     JIRA_BASE_URL   Base URL for issue browse links
  -env      APP_ENV         "dev" switches to console logging
  -seed                     Load the demo dataset on startup

GRACEFUL SHUTDOWN:
  SIGINT/SIGTERM stops accepting connections, waits up to 30s for
  in-flight requests, then closes the store.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/loom/timereport/api"
	"github.com/loom/timereport/report"
	"github.com/loom/timereport/store/sqlite"
)

func main() {
	// .env is optional; flags override it.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "timereport.db"), "SQLite database path")
	region := flag.String("region", envStr("REGION", "NZ"), "holiday calendar region")
	jiraBaseURL := flag.String("jira", envStr("JIRA_BASE_URL", ""), "Jira base URL for browse links")
	appEnv := flag.String("env", envStr("APP_ENV", "production"), "app environment")
	seed := flag.Bool("seed", false, "load the demo dataset on startup")
	flag.Parse()

	log := newLogger(*appEnv)

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	if *seed {
		if err := store.Seed(context.Background(), func(stage string, pct int) {
			log.Info().Int("progress", pct).Msg(stage)
		}); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	assembler := report.NewAssembler(store, *region, *jiraBaseURL)
	handler := api.NewHandler(store, assembler, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // seed streaming can outlive a short write window
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Str("region", *region).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "dev" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}
