package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/coinsweeper/go/clients/sweeper_client"
	"github.com/mcdev12/coinsweeper/go/internal/config"
	"github.com/mcdev12/coinsweeper/go/internal/events"
	"github.com/mcdev12/coinsweeper/go/internal/gateway"
	"github.com/mcdev12/coinsweeper/go/internal/identity"
	"github.com/mcdev12/coinsweeper/go/internal/integrity"
	"github.com/mcdev12/coinsweeper/go/internal/logging"
	"github.com/mcdev12/coinsweeper/go/internal/round"
	"github.com/mcdev12/coinsweeper/go/internal/session"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, cfgErr := config.Load(getEnv("SWEEPER_CONFIG", config.DefaultFile))
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn().Err(envErr).Msg("could not load .env file")
	}
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("invalid configuration, using defaults for rejected values")
	}
	if cfg.File != "" {
		log.Info().Str("path", cfg.File).Msg("loaded config file")
	} else {
		log.Info().Msg("no config file applied, using defaults")
	}

	identities, err := identity.Load(cfg.IdentitiesFile)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.IdentitiesFile).Msg("no identities to run")
		return
	}

	clock := clockwork.NewRealClock()
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	runID := uuid.NewString()
	stats := events.NewStats(runID, clock.Now())
	publishers := events.MultiPublisher{events.LogPublisher{}}

	if cfg.NATS.URL != "" {
		nc, err := events.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			log.Error().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable, events stay local")
		} else {
			defer nc.Drain()
			publishers = append(publishers, events.NewNATSPublisher(nc, cfg.NATS.Subject))
			log.Info().Str("url", cfg.NATS.URL).Msg("publishing events to NATS")
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := sweeper_client.NewSweeperClient(cfg.Client())
	controller := round.NewController(api, integrity.NewSigner(cfg.Salt), clock, rng, cfg.Round())

	var server *http.Server
	if cfg.StatusAddr != "" {
		hub := gateway.NewHub(gateway.DefaultHubConfig())
		go hub.Start(ctx)
		publishers = append(publishers, hub)

		server = gateway.NewServer(cfg.StatusAddr, stats, hub)
		go func() {
			log.Info().Str("addr", server.Addr).Msg("status server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status server failed")
			}
		}()
	}
	publishers = append(publishers, stats)

	sessionSettings := cfg.Session()
	sessionSettings.RunID = runID
	orchestrator := session.NewOrchestrator(api, controller, publishers, clock, rng, sessionSettings)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info().
		Str("run_id", orchestrator.RunID()).
		Int("identities", len(identities)).
		Bool("always_win", cfg.AlwaysWin).
		Msg("starting coinsweeper runner")

	reports := orchestrator.Run(ctx, identities)

	var total float64
	for _, rep := range reports {
		total += rep.Score
	}
	log.Info().Int("identities", len(reports)).Float64("total_score", total).Msg("runner finished")

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("status server shutdown failed")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
