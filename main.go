package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clash-of-cans/go-server/internal/httpserver"
	"github.com/clash-of-cans/go-server/internal/scoreboard"
	"github.com/clash-of-cans/go-server/internal/session"
	"github.com/clash-of-cans/go-server/internal/submit"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	secret := getEnv("TOKEN_SECRET", "")
	if secret == "" {
		secret = "dev_secret_change_me"
		log.Warn().Msg("TOKEN_SECRET not set; using development secret")
	}

	registry := session.NewMemory(session.Config{
		Secret:                 []byte(secret),
		RejectSuspiciousTiming: os.Getenv("REJECT_SUSPICIOUS_TIMING") == "1",
	})

	store, err := openStore()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open scoreboard store")
	}

	var opts []submit.Option
	if os.Getenv("ALLOW_UNTOKENED_SCORES") == "1" {
		opts = append(opts, submit.AllowUntokened())
	}
	validator := submit.NewValidator(registry, store, opts...)

	srv := httpserver.New(registry, store, validator, getEnv("STATIC_DIR", "./public"))
	port := getEnv("PORT", "3000")
	log.Info().Str("port", port).Msg("starting clash-of-cans server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// openStore picks the scoreboard backend: a single JSON document (default)
// or SQLite.
func openStore() (scoreboard.Store, error) {
	switch backend := getEnv("SCOREBOARD_BACKEND", "file"); backend {
	case "sqlite":
		dsn := getEnv("DATABASE_PATH", "./data/scores.db")
		log.Info().Str("backend", backend).Str("path", dsn).Msg("scoreboard store")
		return scoreboard.OpenSQLite(dsn)
	default:
		path := getEnv("SCOREBOARD_FILE", "./scoreboard.json")
		log.Info().Str("backend", "file").Str("path", path).Msg("scoreboard store")
		return scoreboard.NewFileStore(path), nil
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
