package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/counselpoint/gateway/internal/adapters/records/memstore"
	"github.com/counselpoint/gateway/internal/adapters/records/postgres"
	"github.com/counselpoint/gateway/internal/adapters/rest"
	signalws "github.com/counselpoint/gateway/internal/adapters/signal"
	"github.com/counselpoint/gateway/internal/app"
	"github.com/counselpoint/gateway/internal/config"
	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
	"github.com/counselpoint/gateway/internal/provider"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var store core.RecordStore
	switch cfg.Storage {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.Postgres.DSN, cfg.Postgres.PingTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open record store")
		}
		defer pg.Close()
		store = pg
	default:
		log.Warn().Msg("using in-memory record store; records vanish on restart")
		store = memstore.New()
	}

	var relayProvider core.ProviderClient
	videoStrategy := domain.StrategyPeerToPeer
	if cfg.Provider.Enabled {
		relayProvider = provider.NewClient(
			cfg.Provider.BaseURL,
			cfg.Provider.APIKey,
			cfg.Provider.APISecret,
			cfg.Provider.TokenTTL,
			cfg.Provider.Timeout,
			log.Logger,
		)
		videoStrategy = domain.StrategyDelegated
	}

	rtcConfig := provider.Configuration(
		cfg.ICE.STUNURLs,
		cfg.ICE.TURNURL,
		cfg.ICE.TURNUsername,
		cfg.ICE.TURNCredential,
	)
	iceServers := provider.WireServers(rtcConfig)

	registry := app.NewRegistry(log.Logger)
	authorizer := app.NewAuthorizer(store, videoStrategy, log.Logger)
	relay := app.NewRelay(registry, log.Logger)
	selector := app.NewStrategySelector(
		relayProvider,
		cfg.Provider.Domain,
		iceServers,
		cfg.Provider.Timeout,
		log.Logger,
	)
	gateway := app.NewGateway(registry, authorizer, relay, selector, app.SimplePolicy{}, log.Logger)

	tokens := rest.NewTokenService(cfg.Auth.Secret)
	wsCtrl := signalws.NewSessionWSController(gateway, cfg.ReadLimit, cfg.PingPeriod)
	handlers := rest.NewHandlers(store, authorizer, selector, registry, videoStrategy, log.Logger)

	r := rest.SetupRouter(ctx, cfg, wsCtrl, handlers, tokens)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("session gateway started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
