package repository

import (
	"context"
	"database/sql"
	"time"

	"microclimate_station/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// TelemetryRepo is the persisted-log sink. Append is synchronous and
// durable; it performs no buffering of its own. Batching into time
// windows is the pipeline's job.
type TelemetryRepo interface {
	Append(ctx context.Context, rec models.LogRecord) error
}

// EventRepo is the append-only station event history.
type EventRepo interface {
	Append(ctx context.Context, e models.StationEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.StationEvent, error)
}

// Repository bundles the SQL-backed repositories. The telemetry sink is
// constructed separately (it writes CSV, not SQLite).
type Repository struct {
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
