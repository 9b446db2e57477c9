package main

import (
	"context"
	"net/http"

	"github.com/itsatony/w4b_v3/server/geosensor/api"
	"github.com/itsatony/w4b_v3/server/geosensor/api/middleware"
	"github.com/itsatony/w4b_v3/server/geosensor/api/resources"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/cache"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/database"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/docstore"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/events"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/monitoring"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/repository"
	mongorepo "github.com/itsatony/w4b_v3/server/geosensor/internal/repository/mongo"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/repository/postgres"
	redisrepo "github.com/itsatony/w4b_v3/server/geosensor/internal/repository/redis"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/server"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func serverModule() fx.Option {
	return fx.Options(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Provide(
			config.Load,
			newLogger,
			provideDB,
			provideRedis,
			provideDocstore,
			provideSensorRepository,
			provideTelemetryRepository,
			provideDocumentRepository,
			provideHubService,
			provideMonitoring,
			providePublisher,
			provideRouter,
			provideServer,
		),
		fx.Invoke(runMigrations, registerEventHandlers, startServer),
	)
}

// newLogger builds the structured logger used for container lifecycle events.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(cfg.Monitoring.LogLevel); err == nil {
		zcfg.Level = level
	}
	zcfg.InitialFields = map[string]interface{}{
		"service": cfg.ServiceName,
	}
	return zcfg.Build()
}

func provideDB(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (database.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing postgres connection")
			return db.Close()
		},
	})
	return db, nil
}

func provideRedis(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing redis client")
			return client.Close()
		},
	})
	return client, nil
}

func provideDocstore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*docstore.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	store, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("disconnecting mongo client")
			return store.Close(ctx)
		},
	})
	return store, nil
}

func provideSensorRepository(db database.DB) repository.SensorRepository {
	return postgres.NewSensorRepository(db)
}

func provideTelemetryRepository(client *redis.Client) repository.TelemetryRepository {
	return redisrepo.NewTelemetryRepository(client)
}

func provideDocumentRepository(store *docstore.Store) repository.SensorDocumentRepository {
	return mongorepo.NewSensorDocumentRepository(store.Collection())
}

func provideHubService(
	sensors repository.SensorRepository,
	telemetry repository.TelemetryRepository,
	documents repository.SensorDocumentRepository,
) (*hubservice.HubService, error) {
	svc := hubservice.New(sensors, telemetry, documents)
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	return svc, nil
}

func provideMonitoring(cfg *config.Config) *monitoring.Service {
	return monitoring.NewService(monitoring.Config{Retention: cfg.Monitoring.Retention})
}

// providePublisher returns a nil publisher when no broker is configured.
func providePublisher(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (server.EventPublisher, error) {
	if !cfg.Events.Enabled() {
		logger.Info("event publishing disabled")
		return nil, nil
	}

	pub, err := events.NewPublisher(cfg.Events.RabbitMQURL, cfg.Events.Exchange)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing event publisher")
			return pub.Close()
		},
	})
	return pub, nil
}

func provideRouter(
	cfg *config.Config,
	svc *hubservice.HubService,
	mon *monitoring.Service,
	db database.DB,
	client *redis.Client,
	store *docstore.Store,
) http.Handler {
	checks := map[string]resources.Checker{
		"postgres": db.Ping,
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		"mongo": store.Ping,
	}
	res := resources.NewResources(svc, mon, checks)

	var auth *middleware.KeycloakMiddleware
	if cfg.Keycloak.Enabled() {
		auth = middleware.NewKeycloakMiddleware(cfg.Keycloak)
	}
	return api.NewRouter(res, auth, cfg.Server)
}

func provideServer(cfg *config.Config, handler http.Handler) *server.Server {
	return server.New(cfg, handler)
}

func runMigrations(lc fx.Lifecycle, cfg *config.Config, db database.DB, logger *zap.Logger) {
	if !cfg.Database.MigrateOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("applying migrations")
			return database.NewMigrator(db).Up()
		},
	})
}

func registerEventHandlers(svc *hubservice.HubService, mon *monitoring.Service, pub server.EventPublisher) {
	server.SetupEventHandlers(svc, mon, pub)
}

func startServer(lc fx.Lifecycle, srv *server.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := srv.Start(ctx); err != nil {
				return err
			}
			logger.Info("http server listening", zap.String("addr", srv.Addr()))
			return nil
		},
		OnStop: srv.Stop,
	})
}
