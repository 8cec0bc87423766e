package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jkaberg/battery-state/internal/app"
	"github.com/jkaberg/battery-state/internal/card"
	"github.com/jkaberg/battery-state/internal/config"
	"github.com/jkaberg/battery-state/internal/hass"
	"github.com/jkaberg/battery-state/internal/localize"
	"github.com/jkaberg/battery-state/internal/mqtt"
	"github.com/jkaberg/battery-state/internal/netutil"
	"github.com/jkaberg/battery-state/internal/presenter"
	"github.com/jkaberg/battery-state/internal/watch"
	"github.com/sirupsen/logrus"
)

// version is injected at build time via ldflags
var version = "dev"

func main() {
	cfg := parseFlags()
	logger := setupLogger(cfg.Verbose)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	wsURL, _ := cfg.WebsocketURL()

	logger.WithFields(logrus.Fields{
		"version": version,
		"ha_url":  wsURL,
		"card":    cfg.CardPath,
		"card_id": cfg.CardID,
	}).Info("Starting battery-state")

	if err := run(cfg, wsURL, logger); err != nil {
		logger.WithError(err).Error("battery-state stopped with error")
		os.Exit(1)
	}
	logger.Info("battery-state stopped")
}

func run(cfg *config.Config, wsURL string, logger *logrus.Logger) error {
	cardCfg, raw, err := config.LoadCard(cfg.CardPath)
	if err != nil {
		return fmt.Errorf("failed to load card configuration: %w", err)
	}
	batteryCard, err := card.New(cardCfg, localize.English, logger)
	if err != nil {
		return fmt.Errorf("failed to build card: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Home Assistant -------------------------------------------------------------
	client := hass.NewClient(wsURL, cfg.HAToken, netutil.NewWebsocketDialer(cfg.HAInsecure, logger), hass.Options{
		RequestTimeout:    config.HARequestTimeout,
		ReconnectInterval: config.HAReconnectInterval,
		ReconnectBurst:    config.HAReconnectBurst,
	}, logger)

	a := app.New(batteryCard, client, hass.NewDispatcher(client, cfg.CardID), localize.English, logger)

	// Presenters -----------------------------------------------------------------
	presenters := 0
	if cfg.HasMQTT() {
		mqttClient, err := mqtt.NewClient(cfg.MQTTUrl, cfg.CardID, logger)
		if err != nil {
			return fmt.Errorf("failed to create MQTT client: %w", err)
		}
		defer mqttClient.Disconnect(250)

		mqttPresenter := presenter.NewMQTTPresenter(mqttClient, cfg.CardID, cfg.DiscoveryPrefix, version, logger)
		if err := mqttPresenter.ListenTaps(a.Tap); err != nil {
			logger.WithError(err).Warn("Failed to subscribe to MQTT taps")
		}
		a.AddPresenter(mqttPresenter)
		presenters++
		logger.Info("MQTT presenter ready")
	}
	if cfg.HasHTTP() {
		httpPresenter := presenter.NewHTTPPresenter(cfg.HTTPAddr, a.Tap, logger)
		a.AddPresenter(httpPresenter)
		a.AddService("http", httpPresenter.Run)
		presenters++
	}
	if cfg.Terminal {
		a.AddPresenter(presenter.NewTerminalPresenter(os.Stdout))
		presenters++
	}
	if presenters == 0 {
		logger.Warn("No presenters configured, nothing will display the card")
	}

	// Card reload ----------------------------------------------------------------
	if cfg.WatchCard {
		w := watch.New(cfg.CardPath, raw, config.ReloadDebounce, logger)
		reloads := a.Reloads()
		a.AddService("watch", func(ctx context.Context) error { return w.Run(ctx, reloads) })
	}

	return a.Run(ctx)
}

// -----------------------------------------------------------------------------
// Helpers & Flags
// -----------------------------------------------------------------------------

func parseFlags() *config.Config {
	cfg := config.GetDefaultConfig()

	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.StringVar(&cfg.HAURL, "ha-url", getEnv("BATTERY_STATE_HA_URL", cfg.HAURL), "Home Assistant URL (http(s):// or ws(s)://)")
	flag.StringVar(&cfg.HAToken, "ha-token", getEnv("BATTERY_STATE_HA_TOKEN", cfg.HAToken), "Home Assistant long-lived access token")
	flag.BoolVar(&cfg.HAInsecure, "ha-insecure", getEnv("BATTERY_STATE_HA_INSECURE", "false") == "true", "Skip TLS certificate verification")
	flag.StringVar(&cfg.MQTTUrl, "mqtt-url", getEnv("BATTERY_STATE_MQTT_URL", cfg.MQTTUrl), "MQTT URL")
	flag.StringVar(&cfg.DiscoveryPrefix, "discovery-prefix", getEnv("BATTERY_STATE_DISCOVERY_PREFIX", cfg.DiscoveryPrefix), "HA discovery prefix")
	flag.StringVar(&cfg.CardID, "card-id", getEnv("BATTERY_STATE_CARD_ID", cfg.CardID), "Card identifier used in MQTT topics")
	flag.StringVar(&cfg.CardPath, "card", getEnv("BATTERY_STATE_CARD", cfg.CardPath), "Path to the card YAML configuration")
	flag.BoolVar(&cfg.WatchCard, "watch", getEnv("BATTERY_STATE_WATCH", "true") == "true", "Reload the card when its file changes")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", getEnv("BATTERY_STATE_HTTP_ADDR", cfg.HTTPAddr), "Listen address for the HTTP view (empty disables)")
	flag.BoolVar(&cfg.Terminal, "terminal", getEnv("BATTERY_STATE_TERMINAL", "false") == "true", "Print the card to stdout")
	flag.BoolVar(&cfg.Verbose, "verbose", getEnv("BATTERY_STATE_VERBOSE", "false") == "true", "Verbose logging")

	flag.Parse()

	if *showVersion {
		fmt.Printf("battery-state %s\n", version)
		os.Exit(0)
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setupLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}
