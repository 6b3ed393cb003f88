package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitness-booking-api/internal/models"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS fitness_classes (
	position INT NOT NULL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	instructor TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	timezone TEXT NOT NULL,
	capacity INT NOT NULL,
	available_slots INT NOT NULL CHECK (available_slots >= 0)
);
CREATE TABLE IF NOT EXISTS bookings (
	position BIGINT NOT NULL,
	booking_id TEXT PRIMARY KEY,
	class_id TEXT NOT NULL,
	class_name TEXT NOT NULL,
	client_name TEXT NOT NULL,
	client_email TEXT NOT NULL,
	class_time TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS bookings_client_email_idx ON bookings (client_email);`

// PostgresSnapshotRepository stores the same full snapshots as the file
// backend, one table per collection. Each persist replaces the table content
// inside a single transaction.
type PostgresSnapshotRepository struct {
	db *sqlx.DB
}

// NewPostgresSnapshotRepository constructs a PostgresSnapshotRepository.
func NewPostgresSnapshotRepository(db *sqlx.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// EnsureSchema creates the snapshot tables when missing.
func (r *PostgresSnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// LoadClasses returns the catalog in insertion order or ErrSnapshotNotFound.
func (r *PostgresSnapshotRepository) LoadClasses(ctx context.Context) ([]models.ClassSlot, error) {
	var classes []models.ClassSlot
	query := `SELECT id, name, instructor, start_time, timezone, capacity, available_slots FROM fitness_classes ORDER BY position`
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("load classes: %w", err)
	}
	if len(classes) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return classes, nil
}

// LoadBookings returns every booking in creation order.
func (r *PostgresSnapshotRepository) LoadBookings(ctx context.Context) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := `SELECT booking_id, class_id, class_name, client_name, client_email, class_time, created_at FROM bookings ORDER BY position`
	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return bookings, nil
}

// PersistClasses replaces the stored catalog.
func (r *PostgresSnapshotRepository) PersistClasses(ctx context.Context, classes []models.ClassSlot) error {
	return r.replace(ctx, "fitness_classes", func(tx *sqlx.Tx) error {
		const insert = `INSERT INTO fitness_classes (position, id, name, instructor, start_time, timezone, capacity, available_slots)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		for i, class := range classes {
			if _, err := tx.ExecContext(ctx, insert, i, class.ID, class.Name, class.Instructor, class.StartTime.UTC(), class.Timezone, class.Capacity, class.RemainingCapacity); err != nil {
				return fmt.Errorf("insert class %s: %w", class.ID, err)
			}
		}
		return nil
	})
}

// PersistBookings replaces the stored booking index.
func (r *PostgresSnapshotRepository) PersistBookings(ctx context.Context, bookings []models.Booking) error {
	return r.replace(ctx, "bookings", func(tx *sqlx.Tx) error {
		const insert = `INSERT INTO bookings (position, booking_id, class_id, class_name, client_name, client_email, class_time, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		for i, booking := range bookings {
			if _, err := tx.ExecContext(ctx, insert, i, booking.ID, booking.ClassID, booking.ClassName, booking.ClientName, booking.ClientEmail, booking.ClassTime.UTC(), booking.CreatedAt.UTC()); err != nil {
				return fmt.Errorf("insert booking %s: %w", booking.ID, err)
			}
		}
		return nil
	})
}

func (r *PostgresSnapshotRepository) replace(ctx context.Context, table string, fill func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s snapshot: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// table is one of two package constants, never caller input.
	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err = fill(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s snapshot: %w", table, err)
	}
	return nil
}
