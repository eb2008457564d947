package journal

import (
	"context"
	"database/sql"
	"time"
)

// FrameLog receives every raw frame crossing the wire. Implementations must
// tolerate being nil-checked by callers; persistence is best-effort and never
// affects protocol behavior.
type FrameLog interface {
	SaveFrame(ctx context.Context, cpID, direction, action string, payload []byte) error
}

// Repository persists frames and transaction records to Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository ctor.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveFrame stores one raw OCPP frame.
func (r *Repository) SaveFrame(ctx context.Context, cpID, direction, action string, payload []byte) error {
	const query = `
		INSERT INTO ocpp_frames (cp_id, direction, action, payload)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, cpID, direction, action, payload)
	return err
}

// SaveTransactionStart records an accepted StartTransaction.
func (r *Repository) SaveTransactionStart(ctx context.Context, cpID string, transactionID, connectorID int, idTag string, meterStart int, startedAt time.Time) error {
	const query = `
		INSERT INTO cp_transactions (cp_id, transaction_id, connector_id, id_tag, meter_start, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cp_id, transaction_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, cpID, transactionID, connectorID, idTag, meterStart, startedAt)
	return err
}

// SaveTransactionStop closes a transaction record.
func (r *Repository) SaveTransactionStop(ctx context.Context, cpID string, transactionID, meterStop int, reason string, stoppedAt time.Time) error {
	const query = `
		UPDATE cp_transactions
		SET meter_stop = $3, stop_reason = $4, stopped_at = $5
		WHERE cp_id = $1 AND transaction_id = $2
	`
	_, err := r.db.ExecContext(ctx, query, cpID, transactionID, meterStop, reason, stoppedAt)
	return err
}
