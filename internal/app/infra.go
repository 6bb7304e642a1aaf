package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/physio_backend/config"
	"github.com/Alijeyrad/physio_backend/internal/events"
	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/pkg/authorize"
	"github.com/Alijeyrad/physio_backend/pkg/crypto"
	"github.com/Alijeyrad/physio_backend/pkg/database"
	"github.com/Alijeyrad/physio_backend/pkg/email"
	"github.com/Alijeyrad/physio_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/physio_backend/pkg/redis"
	"github.com/Alijeyrad/physio_backend/pkg/sms"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRepoClient),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideSlotCache),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePublisher),
)

func ProvideRepoClient(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Migrations.AutoMigrate {
		n, err := database.NewMigrator(db).Up(context.Background())
		if err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("database: migrations applied", "count", n)
	}

	var opts []repo.Option
	if cfg.Authentication.EncryptionKey != "" {
		key, err := crypto.KeyFromHex(cfg.Authentication.EncryptionKey)
		if err != nil {
			db.Close()
			return nil, err
		}
		opts = append(opts, repo.WithNotesKey(key))
	}

	client := repo.NewClient(db, opts...)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideSlotCache(rdb *redis.Client) *redispkg.Cache {
	return redispkg.NewCache(rdb, "physio")
}

func ProvideAuthorization(cfg *config.Config) (authorize.IAuthorization, error) {
	return authorize.New(context.Background(), authorize.FromCentralConfig(cfg.Authorization), slog.Default())
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

// ProvideNatsClient returns nil when no NATS URL is configured; events are
// then dropped and the delivery workers stay idle.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		slog.Warn("nats: no url configured, events disabled")
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name("physio"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats: disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats: reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvidePublisher(nc *nats.Conn) events.Publisher {
	if nc == nil {
		return events.Nop{}
	}
	return events.NewNATSPublisher(nc)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
