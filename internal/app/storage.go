package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/observability"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/persistence/memory"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/persistence/mysql"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/persistence/sqlite"
)

const storageInitTimeout = 30 * time.Second

func (app *Application) initializeStorage() error {
	var (
		records repository.SessionRecordRepository
		closer  io.Closer
	)

	ctx, cancel := context.WithTimeout(context.Background(), storageInitTimeout)
	defer cancel()

	switch app.config.Storage.Type {
	case "mysql":
		repos, db, err := mysql.NewRepositories(ctx, &app.config.Storage.MySQL)
		if err != nil {
			return fmt.Errorf("mysql init: %w", err)
		}
		records = repos.SessionRecord
		app.dbPinger = db
		closer = db

		app.logger.Get().Info("MySQL storage initialized",
			"host", app.config.Storage.MySQL.Primary.Host,
			"database", app.config.Storage.MySQL.Primary.Database,
			"pool_max_open", app.config.Storage.MySQL.Pool.MaxOpenConns,
		)

	case "sqlite":
		db, err := sqlite.NewDB(app.config.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite init: %w", err)
		}

		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return fmt.Errorf("sqlite migration: %w", err)
		}

		records = sqlite.NewRepositories(db.DB).SessionRecord
		app.dbPinger = db
		closer = db

		app.logger.Get().Info("SQLite storage initialized",
			"path", app.config.Storage.SQLite.Path,
		)

	case "memory", "":
		records = memory.NewSessionRecordRepository()

		app.logger.Get().Info("in-memory storage initialized")

	default:
		return fmt.Errorf("unknown storage type: %s", app.config.Storage.Type)
	}

	app.sessionRecords = &instrumentedRecords{
		next:    records,
		metrics: app.telemetry.Metrics,
	}
	app.dbCloser = closer
	return nil
}

func (app *Application) closeStorage() {
	if app.dbCloser == nil {
		return
	}
	if err := app.dbCloser.Close(); err != nil {
		app.logger.Get().Error("failed to close database", "error", err)
	}
	app.dbCloser = nil
}

// instrumentedRecords times every repository call.
type instrumentedRecords struct {
	next    repository.SessionRecordRepository
	metrics *observability.Metrics
}

func (r *instrumentedRecords) observe(ctx context.Context, op string, start time.Time, err error) {
	r.metrics.RecordRepositoryOperation(ctx, op, "session_record", time.Since(start), err == nil)
}

func (r *instrumentedRecords) Save(ctx context.Context, record *entity.SessionRecord) error {
	start := time.Now()
	err := r.next.Save(ctx, record)
	r.observe(ctx, "save", start, err)
	return err
}

func (r *instrumentedRecords) FindByID(ctx context.Context, id string) (*entity.SessionRecord, error) {
	start := time.Now()
	record, err := r.next.FindByID(ctx, id)
	r.observe(ctx, "find_by_id", start, err)
	return record, err
}

func (r *instrumentedRecords) FindByUser(ctx context.Context, userID string, limit int) ([]*entity.SessionRecord, error) {
	start := time.Now()
	records, err := r.next.FindByUser(ctx, userID, limit)
	r.observe(ctx, "find_by_user", start, err)
	return records, err
}
