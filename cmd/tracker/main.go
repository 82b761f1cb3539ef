// Tracker Core - location history and geofence visit service
//
// This is the main entry point for Tracker Core. It accepts location fixes
// from devices over HTTP and MQTT, stores them in SQLite and classifies them
// into zone visits on demand:
//   - Raw fix listings, day maps and GPX exports
//   - Date-scoped circular zones with arrival/departure classification
//   - Cross-day visit comparisons
//   - Live fix feed over WebSocket
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/tracker-core/internal/api"
	"github.com/nerrad567/tracker-core/internal/geofence"
	"github.com/nerrad567/tracker-core/internal/infrastructure/config"
	"github.com/nerrad567/tracker-core/internal/infrastructure/database"
	"github.com/nerrad567/tracker-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/tracker-core/internal/infrastructure/logging"
	"github.com/nerrad567/tracker-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/tracker-core/internal/ingest"
	"github.com/nerrad567/tracker-core/internal/tracking"
	"github.com/nerrad567/tracker-core/internal/visit"
	"github.com/nerrad567/tracker-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit // Linear startup sequence with a deferred close chain
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Tracker Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	fixRepo := tracking.NewSQLiteRepository(db.DB)
	zoneRepo := geofence.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = connectMQTT(cfg.MQTT, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
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
	} else {
		log.Info("InfluxDB disabled")
	}

	hub := api.NewHub(cfg.WebSocket, log.With("component", "websocket"))
	go hub.Run(ctx)

	ingestSvc := ingest.NewService(buildIngestDeps(fixRepo, mqttClient, influxClient, hub, log))
	if mqttClient != nil {
		if subErr := ingestSvc.SubscribeMQTT(mqttClient, byte(cfg.MQTT.QoS)); subErr != nil { //nolint:gosec // QoS validated to 0-2
			return fmt.Errorf("subscribing to device locations: %w", subErr)
		}
		log.Info("subscribed to device locations", "topic", mqttClient.Topics().AllDeviceLocations())
	}

	visitLog := log.With("component", "visits")
	engine := visit.NewEngine(visit.Options{
		DwellMergeThreshold: cfg.Visits.DwellMergeThreshold,
		VisitGap:            cfg.Visits.VisitGap,
		Location:            cfg.DisplayLocation(),
		OnReject:            visit.RejectReporter(visitLog),
	})
	visitDeps := visit.ServiceDeps{
		Engine:         engine,
		Zones:          zoneRepo,
		Fixes:          fixRepo,
		Logger:         visitLog,
		MaxCompareDays: cfg.Visits.MaxCompareDays,
	}
	if mqttClient != nil {
		visitDeps.Publisher = mqttClient
	}
	visitSvc := visit.NewService(visitDeps)
	log.Info("visit engine ready",
		"dwell_merge_threshold", engine.DwellMergeThreshold(),
		"visit_gap", engine.VisitGap(),
		"timezone", engine.Location().String(),
	)

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Fixes:    cfg.Fixes,
		Export:   cfg.Export,
		Logger:   log.With("component", "api"),
		DB:       db,
		FixRepo:  fixRepo,
		ZoneRepo: zoneRepo,
		Ingest:   ingestSvc,
		Visits:   visitSvc,
		MQTT:     mqttClient,
		Hub:      hub,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB (if enabled), MQTT (if enabled), database.

	log.Info("Tracker Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TRACKER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectMQTT connects to the broker and wires connection logging.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.With("component", "mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"topic_prefix", client.Topics().Prefix(),
	)
	return client, nil
}

// buildIngestDeps assembles the ingest fan-out. Optional clients are only
// set when present so the service never sees a typed nil interface.
func buildIngestDeps(fixes tracking.Repository, mqttClient *mqtt.Client, influxClient *influxdb.Client, hub *api.Hub, log *logging.Logger) ingest.Deps {
	deps := ingest.Deps{
		Fixes:    fixes,
		Notifier: hub,
		Logger:   log.With("component", "ingest"),
	}
	if mqttClient != nil {
		deps.Publisher = mqttClient
	}
	if influxClient != nil {
		deps.Telemetry = influxClient
	}
	return deps
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
