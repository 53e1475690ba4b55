package main

import (
	"context"
	"fmt"
	"time"

	"civico/internal/adapter/metrics/inmemory"
	gormrepo "civico/internal/adapter/repo/gorm"
	"civico/internal/adapter/repo/memory"
	"civico/internal/adapter/repo/sqlite"
	"civico/internal/app/auth"
	"civico/internal/app/playerstate"
	"civico/internal/app/ports"
	"civico/internal/app/replay"
	"civico/internal/config"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
	"civico/migrations"

	"go.uber.org/zap"
)

// backend is one set of stores sharing a transaction manager.
type backend struct {
	Settlements ports.SettlementRepository
	Map         ports.MapIndex
	Credentials ports.CredentialRepository
	Events      ports.LedgerEventRepository
	TxManager   ports.TxManager
	close       func() error
}

func (b backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		store := memory.NewStore()
		return backend{
			Settlements: memory.NewSettlementRepo(store),
			Map:         memory.NewMapIndex(store),
			Credentials: memory.NewCredentialRepo(store),
			Events:      memory.NewEventRepo(store),
			TxManager:   memory.NewTxManager(store),
		}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return backend{}, fmt.Errorf("open sqlite: %w", err)
		}
		return backend{
			Settlements: sqlite.NewSettlementRepo(db),
			Map:         sqlite.NewMapIndex(db),
			Credentials: sqlite.NewCredentialRepo(db),
			Events:      sqlite.NewEventRepo(db),
			TxManager:   sqlite.NewTxManager(db),
			close:       db.Close,
		}, nil

	case config.BackendPostgres:
		db, err := gormrepo.OpenPostgresWithPool(cfg.DSN, gormrepo.PoolConfig{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return backend{}, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return backend{}, fmt.Errorf("postgres handle: %w", err)
		}
		if cfg.AutoMigrate {
			applied, err := gormrepo.ApplyMigrations(ctx, db, migrations.FS, migrations.PostgresDir)
			if err != nil {
				_ = sqlDB.Close()
				return backend{}, err
			}
			if len(applied) > 0 {
				log.Info("applied migrations", zap.Strings("versions", applied))
			}
		}
		return backend{
			Settlements: gormrepo.NewSettlementRepo(db),
			Map:         gormrepo.NewMapIndex(db),
			Credentials: gormrepo.NewCredentialRepo(db),
			Events:      gormrepo.NewEventRepo(db),
			TxManager:   gormrepo.NewTxManager(db),
			close:       sqlDB.Close,
		}, nil

	default:
		return backend{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// services holds the use cases shared by the HTTP API and the gateway.
type services struct {
	Register auth.RegisterUseCase
	Login    auth.LoginUseCase
	Logout   auth.LogoutUseCase
	Verify   auth.VerifyUseCase
	State    playerstate.UseCase
	Replay   replay.UseCase
	KPI      *inmemory.Recorder
}

func buildServices(b backend, game config.GameConfig, log *zap.Logger, now func() time.Time) services {
	bounds := worldmap.Bounds{Size: game.MapSize}
	recorder := inmemory.NewRecorder()
	return services{
		Register: auth.RegisterUseCase{
			Credentials: b.Credentials,
			Settlements: b.Settlements,
			Map:         b.Map,
			TxManager:   b.TxManager,
			Placer:      worldmap.Placer{Bounds: bounds},
			Log:         log,
			Now:         now,
		},
		Login:  auth.LoginUseCase{Credentials: b.Credentials, Now: now},
		Logout: auth.LogoutUseCase{Credentials: b.Credentials},
		Verify: auth.VerifyUseCase{Credentials: b.Credentials},
		State: playerstate.UseCase{
			TxManager:   b.TxManager,
			Settlements: b.Settlements,
			Events:      b.Events,
			Metrics:     recorder,
			Resolver: settlement.BattleResolver{
				Stats:        settlement.DefaultTroopStats,
				LootFraction: game.LootFraction,
			},
			Bounds:           bounds,
			PacifismCooldown: game.PacifismCooldown,
			MaxAttempts:      game.MaxAttempts,
			Log:              log,
			Now:              now,
		},
		Replay: replay.UseCase{Events: b.Events},
		KPI:    recorder,
	}
}
