// SmartConnect Core - RFID Access Control
//
// This is the main entry point for the SmartConnect Core service. It serves
// the management REST API and live feed, ingests reader access reports over
// MQTT, and keeps the access event log.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/pflag"

	_ "github.com/nerrad567/smartconnect-core/migrations"

	"github.com/nerrad567/smartconnect-core/internal/api"
	"github.com/nerrad567/smartconnect-core/internal/auth"
	"github.com/nerrad567/smartconnect-core/internal/barrier"
	"github.com/nerrad567/smartconnect-core/internal/department"
	"github.com/nerrad567/smartconnect-core/internal/event"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/config"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/database"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/logging"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smartconnect-core/internal/ingest"
	"github.com/nerrad567/smartconnect-core/internal/sensor"
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

// options are the command-line flags.
type options struct {
	configPath string
	version    bool
}

func main() {
	// Cancel on Ctrl+C and SIGTERM so deferred shutdown runs.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Printf("smartconnect %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if err := run(ctx, opts.configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line. The config path falls back to
// SMARTCONNECT_CONFIG, then to defaultConfigPath.
func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("smartconnect", pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVarP(&opts.configPath, "config", "c", getConfigPath(), "path to the YAML configuration file")
	fs.BoolVarP(&opts.version, "version", "v", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// getConfigPath returns the configuration file path.
// Uses SMARTCONNECT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SMARTCONNECT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SmartConnect Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	users := auth.NewUserRepository(db.DB)
	roles := auth.NewRoleRepository(db.DB)
	profiles := auth.NewProfileRepository(db.DB)
	departments := department.NewSQLiteRepository(db.DB)
	sensors := sensor.NewSQLiteRepository(db.DB)
	barriers := barrier.NewSQLiteRepository(db.DB)
	barriers.SetLogger(log)
	recorder := event.NewRecorder(db.DB)

	if cfg.Bootstrap.AdminUsername != "" {
		if _, seedErr := auth.SeedAdmin(ctx, users, roles, profiles,
			cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminEmail, log.Logger); seedErr != nil {
			return fmt.Errorf("seeding administrator: %w", seedErr)
		}
	}

	// Role resolution, optionally cached in Redis
	var resolver auth.Resolver = auth.NewProfileResolver(profiles)
	if cfg.Redis.Enabled {
		redisClient, redisErr := connectRedis(ctx, cfg.Redis)
		if redisErr != nil {
			return fmt.Errorf("connecting to Redis: %w", redisErr)
		}
		defer func() {
			log.Info("closing Redis connection")
			if closeErr := redisClient.Close(); closeErr != nil {
				log.Error("error closing Redis", "error", closeErr)
			}
		}()
		cached := auth.NewCachedResolver(resolver, redisClient, cfg.RoleCacheTTL())
		cached.SetLogger(log)
		resolver = cached
		log.Info("role cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.RoleCacheTTL())
	} else {
		log.Info("role cache disabled")
	}
	authorizer := auth.NewAuthorizer(resolver)

	checks := map[string]api.HealthChecker{"database": db}

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		barriers.SetPublisher(ingest.NewBarrierPublisher(mqttClient))
		readers := ingest.NewService(mqttClient, sensors, recorder, byte(cfg.MQTT.QoS), log.Logger) //nolint:gosec // QoS validated to 0-2
		if startErr := readers.Start(ctx); startErr != nil {
			return fmt.Errorf("starting reader ingest: %w", startErr)
		}
		checks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled, reader ingest not started")
	}

	// Connect to InfluxDB (optional)
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
		recorder.AddObserver(influxClient)
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Tokens:      auth.NewTokenVerifier(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer),
		Authorizer:  authorizer,
		Departments: departments,
		Sensors:     sensors,
		Barriers:    barriers,
		Events:      recorder,
		Users:       users,
		Roles:       roles,
		Profiles:    profiles,
		DB:          db,
		Checks:      checks,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	recorder.AddObserver(server.Hub())

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API server, InfluxDB,
	// MQTT, Redis, database.

	log.Info("SmartConnect Core stopped")
	return nil
}

// connectRedis opens the role cache connection and verifies it responds.
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// healthCheck verifies every configured component once at startup and
// returns the first failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for _, name := range []string{"database", "mqtt", "influxdb"} {
		check, ok := checks[name]
		if !ok {
			continue
		}
		if err := check.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
