package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/modem-scraper/modem-scraper-pro/internal/api"
	"github.com/modem-scraper/modem-scraper-pro/internal/config"
	"github.com/modem-scraper/modem-scraper-pro/internal/scraper"
	"github.com/modem-scraper/modem-scraper-pro/internal/storage"
	"github.com/modem-scraper/modem-scraper-pro/internal/telemetry"
	"github.com/modem-scraper/modem-scraper-pro/pkg/hnap"
)

var (
	configFile = flag.String("config", "config/modem-scraper.yml", "Path to configuration file")
	validate   = flag.Bool("validate", false, "Validate configuration and exit")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if *validate {
		fmt.Println("Configuration is valid")
		return
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.Log.Level).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("name", cfg.Server.Name).
		Str("version", cfg.Server.Version).
		Str("device", cfg.Device.Address).
		Msg("Starting modem scraper")

	client := hnap.NewClient(cfg.Device.Address, hnap.Credential{
		Username: cfg.Device.Username,
		Password: cfg.Device.Password,
	}, hnap.Options{
		Timeout:            cfg.Device.RequestTimeout,
		AcceptInvalidCerts: cfg.Device.AcceptInvalidCerts,
		MaxAttempts:        cfg.Device.MaxAttempts,
		Backoff:            cfg.Device.RetryBackoff,
	})

	emitters, err := buildEmitters(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}
	defer func() {
		for _, em := range emitters {
			em.Close()
		}
	}()

	var logs scraper.LogPusher
	if cfg.Loki.Enabled && cfg.Scrape.CollectLogs {
		logs = telemetry.NewLokiPusher(cfg.Loki.URL, cfg.Loki.Labels)
		log.Info().Str("url", cfg.Loki.URL).Msg("Event log forwarding enabled")
	}

	store := storage.NewMemoryStore()

	s := scraper.New(client, store, emitters, scraper.Options{
		Interval:     cfg.Scrape.Interval,
		CycleTimeout: cfg.Scrape.CycleTimeout,
		LogWindow:    cfg.Scrape.LogWindow,
		Logs:         logs,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	var restServer *api.RESTServer
	if cfg.API.Enabled {
		restServer = api.NewRESTServer(cfg, store)
		go func() {
			if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("REST API server failed")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	cancel()
	<-done

	if restServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := restServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("REST API shutdown failed")
		}
	}

	log.Info().Msg("Shutdown complete")
}

// buildEmitters connects every enabled telemetry sink.
func buildEmitters(cfg *config.Config) ([]telemetry.Emitter, error) {
	var emitters []telemetry.Emitter

	if cfg.NATS.Enabled {
		opts := []nats.Option{
			nats.Name(cfg.Server.Name),
			nats.ReconnectWait(cfg.NATS.ReconnectInterval),
			nats.MaxReconnects(cfg.NATS.MaxReconnects),
		}
		if cfg.NATS.Username != "" {
			opts = append(opts, nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password))
		}
		nc, err := nats.Connect(cfg.NATS.URL, opts...)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATS.URL, err)
		}
		emitters = append(emitters, telemetry.NewNATSEmitter(nc, cfg.NATS.SubjectPrefix))
		log.Info().Str("url", cfg.NATS.URL).Str("prefix", cfg.NATS.SubjectPrefix).Msg("NATS telemetry enabled")
	}

	if cfg.MQTT.Enabled {
		em, err := telemetry.NewMQTTEmitter(cfg.MQTT.Broker, cfg.MQTT.ClientID,
			cfg.MQTT.Username, cfg.MQTT.Password, cfg.MQTT.TopicPrefix)
		if err != nil {
			return nil, err
		}
		emitters = append(emitters, em)
		log.Info().Str("broker", cfg.MQTT.Broker).Str("prefix", cfg.MQTT.TopicPrefix).Msg("MQTT telemetry enabled")
	}

	return emitters, nil
}
