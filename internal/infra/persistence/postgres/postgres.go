package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"smartblog/config"
	"smartblog/internal/domain/lifecycle"
	"smartblog/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Pool wait below poolWaitWarn is reported at debug level.
const (
	poolSampleInterval = 5 * time.Second
	poolWaitWarn       = 50 * time.Millisecond
)

type Params struct {
	fx.In
	fx.Lifecycle

	Config     *config.Config
	Logger     *slog.Logger
	Registerer prometheus.Registerer `optional:"true"`
}

// New opens the blog database. The schema is migrated on start when auth.autoMigrate is set
// and the pool statistics are exported when a metrics registerer is available.
func New(params Params) (*gorm.DB, error) {
	if params.Config.Postgres == nil {
		return nil, errors.New("postgres configuration is required")
	}

	db, err := pgLib.New(params.Config.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PostgreSQL client")
	}
	// Multi-step writes go through the transaction manager.
	db = db.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		Logger:                 newGormSlogLogger(params.Logger, params.Config),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	if params.Registerer != nil {
		if err := params.Registerer.Register(collectors.NewDBStatsCollector(sqlDB, "smartblog")); err != nil {
			return nil, errors.Wrap(err, "failed to register database stats collector")
		}
	}

	sampler := &poolSampler{logger: params.Logger, db: sqlDB, interval: poolSampleInterval}
	stopSampler := func() {}

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping PostgreSQL")
			}

			if params.Config.Auth != nil && params.Config.Auth.AutoMigrate {
				if err := Migrate(ctx, db); err != nil {
					return err
				}
				params.Logger.InfoContext(ctx, "Database schema migrated", slog.Int("tables", len(model.All())))
			}

			var sampleCtx context.Context
			sampleCtx, stopSampler = context.WithCancel(context.Background())
			go sampler.run(sampleCtx)

			return nil
		},
		OnStop: func(_ context.Context) error {
			stopSampler()

			return errors.Wrap(sqlDB.Close(), "failed to close PostgreSQL")
		},
	})

	return db, nil
}

// Migrate creates or updates the tables of every persistence model.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return errors.Wrap(err, "failed to auto-migrate schema")
	}

	return nil
}

// poolSampler logs the connection pool whenever callers had to wait for a connection.
type poolSampler struct {
	logger   *slog.Logger
	db       *sql.DB
	interval time.Duration
	prev     sql.DBStats
}

func (s *poolSampler) run(ctx context.Context) {
	if s.logger == nil || s.db == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.prev = s.db.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample(ctx, s.db.Stats())
		}
	}
}

func (s *poolSampler) sample(ctx context.Context, cur sql.DBStats) {
	waits := cur.WaitCount - s.prev.WaitCount
	waited := cur.WaitDuration - s.prev.WaitDuration
	s.prev = cur

	if waits <= 0 {
		return
	}

	level, msg := slog.LevelDebug, "Postgres pool wait observed"
	if waited >= poolWaitWarn {
		level, msg = slog.LevelWarn, "Postgres pool wait detected"
	}

	s.logger.LogAttrs(ctx, level, msg,
		slog.Int64("waits", waits),
		slog.Duration("waited", waited),
		slog.Duration("avgWait", waited/time.Duration(waits)),
		slog.Int("inUse", cur.InUse),
		slog.Int("idle", cur.Idle),
		slog.Int("maxOpen", cur.MaxOpenConnections),
	)
}
