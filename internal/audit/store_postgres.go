package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	id "factorline/pkg/domain"
)

// PostgresStore persists events through the transactional outbox pattern:
// every event lands in the outbox table, and the outbox worker publishes it
// to Kafka. Kafka is the downstream source of truth for observers; the table
// doubles as the queryable local trail.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the outbox table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_outbox (
			id           uuid PRIMARY KEY,
			invoice_id   bigint NOT NULL,
			action       text NOT NULL,
			payload      jsonb NOT NULL,
			created_at   timestamptz NOT NULL,
			published_at timestamptz
		);
		CREATE INDEX IF NOT EXISTS audit_outbox_invoice_idx ON audit_outbox (invoice_id, created_at);
		CREATE INDEX IF NOT EXISTS audit_outbox_pending_idx ON audit_outbox (created_at) WHERE published_at IS NULL;
	`)
	if err != nil {
		return fmt.Errorf("migrate audit outbox: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, invoice_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.ID, int64(event.InvoiceID), string(event.Action), payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByInvoice(ctx context.Context, invoiceID id.InvoiceID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_outbox WHERE invoice_id = $1 ORDER BY created_at
	`, int64(invoiceID))
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) PendingOutbox(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) MarkPublished(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = now() WHERE id = ANY($1)
	`, pq.Array(eventIDs))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
