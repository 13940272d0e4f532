package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"

	"hunt-event-service/internal/app"
	"hunt-event-service/internal/catalog"
	"hunt-event-service/internal/config"
	"hunt-event-service/internal/infra/memory"
	"hunt-event-service/internal/infra/postgres"
	"hunt-event-service/internal/infra/sqlstore"
	"hunt-event-service/internal/infra/sqlstore/migrations"
)

// backend is the storage selected by config.
type backend struct {
	store   app.Store
	ping    func(ctx context.Context) error
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects the configured store. SQL backends are migrated first.
func openBackend(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*backend, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return &backend{store: memory.NewStore()}, nil
	}

	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	b := &backend{closers: []func(){func() { _ = db.Close() }}}

	group, err := migrations.Apply(ctx, db)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	if !group.IsZero() {
		log.WithField("group", group.String()).Info("migrations applied")
	}

	store := sqlstore.NewStore(db)
	b.store = store
	b.ping = store.Ping
	return b, nil
}

// catalogTarget returns where catalog entries are written. Postgres goes through
// a pgx COPY; every other backend upserts through its store.
func catalogTarget(ctx context.Context, cfg config.Config, b *backend) (catalog.Upserter, error) {
	if cfg.Database.Driver == config.DriverPostgres {
		pool, err := pgxpool.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		return postgres.NewCatalogImporter(pool), nil
	}
	upserter, ok := b.store.(catalog.Upserter)
	if !ok {
		return nil, fmt.Errorf("driver %q cannot import a catalog", cfg.Database.Driver)
	}
	return upserter, nil
}

func importCatalog(ctx context.Context, cfg config.Config, b *backend, path string, log logrus.FieldLogger) error {
	dst, err := catalogTarget(ctx, cfg, b)
	if err != nil {
		return err
	}
	n, err := catalog.Import(ctx, dst, path)
	if err != nil {
		return fmt.Errorf("import catalog %s: %w", path, err)
	}
	log.WithFields(logrus.Fields{"file": path, "questions": n}).Info("catalog imported")
	return nil
}
