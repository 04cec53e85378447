package syncer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liftingsocial/wlbridge/go/internal/models"
	"github.com/liftingsocial/wlbridge/go/internal/sqlutil"
)

// SyncLogRepository stores the append-only sync audit log. Entries are
// never mutated after creation except the pending -> success/failed
// transition.
type SyncLogRepository interface {
	InsertPending(ctx context.Context, entry *models.SyncLog) error
	MarkCompleted(ctx context.Context, id uuid.UUID, status models.SyncLogStatus, durationMs int64, errorMessage *string, syncedCount int) error
	ListByEvent(ctx context.Context, eventID string, limit int) ([]models.SyncLog, error)
}

// PostgresSyncLogRepository persists sync logs in Postgres via pgx.
type PostgresSyncLogRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSyncLogRepository(pool *pgxpool.Pool) *PostgresSyncLogRepository {
	return &PostgresSyncLogRepository{pool: pool}
}

func (r *PostgresSyncLogRepository) InsertPending(ctx context.Context, entry *models.SyncLog) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO sync_logs (id, event_id, sync_type, direction, status, synced_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.EventID, entry.SyncType, entry.Direction, entry.Status, entry.SyncedCount, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

func (r *PostgresSyncLogRepository) MarkCompleted(ctx context.Context, id uuid.UUID, status models.SyncLogStatus, durationMs int64, errorMessage *string, syncedCount int) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE sync_logs
        SET status = $2, duration_ms = $3, error_message = $4, synced_count = $5
        WHERE id = $1 AND status = 'pending'`,
		id, status, durationMs, sqlutil.ToSqlString(errorMessage), syncedCount,
	)
	if err != nil {
		return fmt.Errorf("failed to mark sync log completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sync log %s not pending or not found", id)
	}
	return nil
}

func (r *PostgresSyncLogRepository) ListByEvent(ctx context.Context, eventID string, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id, event_id, sync_type, direction, status, synced_count, duration_ms, error_message, created_at
        FROM sync_logs
        WHERE event_id = $1
        ORDER BY created_at DESC
        LIMIT $2`,
		eventID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync logs: %w", err)
	}
	defer rows.Close()

	var logs []models.SyncLog
	for rows.Next() {
		var entry models.SyncLog
		var durationMs sql.NullInt64
		var errorMessage sql.NullString

		if err := rows.Scan(
			&entry.ID, &entry.EventID, &entry.SyncType, &entry.Direction,
			&entry.Status, &entry.SyncedCount, &durationMs, &errorMessage, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync log row: %w", err)
		}

		entry.DurationMs = sqlutil.FromSqlInt64(durationMs)
		entry.ErrorMessage = sqlutil.FromSqlStringPtr(errorMessage)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sync log rows: %w", err)
	}

	return logs, nil
}
