// hubibot - chat remote control for a Hubitat hub
//
// hubibot long-polls the Telegram Bot API, resolves free-text device, mode
// and alarm names against the hub's Maker API inventory, and gates every
// command by the caller's access level.
//
// Usage:
//
//	hubibot [HUBIBOT_<PATH>=value ...]
//	hubibot token <level> [subject] [HUBIBOT_<PATH>=value ...]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nerrad567/hubibot/internal/api"
	"github.com/nerrad567/hubibot/internal/auth"
	"github.com/nerrad567/hubibot/internal/bot"
	"github.com/nerrad567/hubibot/internal/hubitat"
	"github.com/nerrad567/hubibot/internal/infrastructure/config"
	"github.com/nerrad567/hubibot/internal/infrastructure/influxdb"
	"github.com/nerrad567/hubibot/internal/infrastructure/logging"
	"github.com/nerrad567/hubibot/internal/infrastructure/mqtt"
	"github.com/nerrad567/hubibot/internal/telegram"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultTokenSubject names tokens minted without an explicit subject.
const defaultTokenSubject = "cli"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: cancelled on SIGINT/SIGTERM
//   - args: command line arguments without the program name
//   - stdout: receives subcommand output
//
// Returns:
//   - error: nil on clean shutdown (including an admin /exit)
func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) > 0 && args[0] == "token" {
		return runToken(args[1:], stdout)
	}

	log := logging.Default()
	log.Info("starting hubibot",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(args, log)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	hub, err := hubitat.NewClient(cfg.Hubitat)
	if err != nil {
		return fmt.Errorf("creating hub client: %w", err)
	}
	names, err := hubitat.NewRegistry(cfg.Hubitat, hub.ListInventory, log.Component("hubitat"))
	if err != nil {
		return fmt.Errorf("building device registry: %w", err)
	}
	log.Info("hub configured",
		"url", hub.BaseURL(),
		"device_groups", cfg.Hubitat.EnabledDeviceGroups,
	)

	users, err := auth.NewUsers(cfg.Telegram, names.Group)
	if err != nil {
		return fmt.Errorf("building user registry: %w", err)
	}
	users.SetLogger(log.Component("auth"))
	log.Info("user groups loaded", "groups", cfg.Telegram.EnabledUserGroups, "users", len(users.IDs()))

	// /exit cancels this context; SIGINT/SIGTERM cancel its parent.
	ctx, shutdown := context.WithCancel(ctx)
	defer shutdown()

	var sinks []bot.Sink

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := startMQTT(cfg.MQTT, names, log)
		if mqttErr != nil {
			return mqttErr
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		sinks = append(sinks, bot.NewMQTTSink(mqttClient, mqttClient.Topics().Command, mqttClient.QoS()))
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		sinks = append(sinks, bot.NewInfluxSink(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	if cfg.API.Enabled {
		srv, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Names:   names,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		sinks = append(sinks, srv.Hub())
	} else {
		log.Info("API disabled")
	}

	b, err := bot.New(bot.Options{
		Hub:             hub,
		Names:           names,
		Users:           users,
		RejectedMessage: cfg.Telegram.RejectedMessage,
		DefaultTimezone: cfg.Main.DefaultTimezone,
		Shutdown:        shutdown,
		Sinks:           sinks,
		Logger:          log.Component("bot"),
	})
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	tg, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("creating telegram client: %w", err)
	}
	poller := telegram.NewPoller(tg, b)
	poller.SetLogger(log.Component("telegram"))

	log.Info("initialisation complete, polling for messages")
	if err := poller.Run(ctx); err != nil {
		return fmt.Errorf("telegram polling: %w", err)
	}

	log.Info("hubibot stopped")
	return nil
}

// startMQTT connects to the broker and subscribes the refresh topic to
// names.Refresh.
func startMQTT(cfg config.MQTTConfig, names *hubitat.Registry, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	if err := client.OnRefresh(names.Refresh); err != nil {
		//nolint:errcheck // Already failing; the subscribe error is the one reported
		client.Close()
		return nil, fmt.Errorf("subscribing to refresh topic: %w", err)
	}

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
		"topic_prefix", client.Topics().Prefix(),
	)
	return client, nil
}

// runToken mints an admin API token: token <level> [subject] [overrides...].
func runToken(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: hubibot token <level> [subject]")
	}
	level, err := auth.ParseAccessLevel(args[0])
	if err != nil {
		return err
	}

	subject := defaultTokenSubject
	rest := args[1:]
	if len(rest) > 0 && !strings.HasPrefix(rest[0], config.EnvPrefix+"_") {
		subject = rest[0]
		rest = rest[1:]
	}

	cfg, err := config.Load(rest, nil)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.API.JWTSecret == "" {
		return errors.New("api.jwt_secret is not set")
	}

	ttl := time.Duration(cfg.API.TokenTTL) * time.Minute
	token, err := auth.GenerateToken(subject, level, cfg.API.JWTSecret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}
