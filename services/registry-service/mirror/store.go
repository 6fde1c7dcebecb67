package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/provenanceworks/collectible-registry/services/registry-service/models"
)

// Store gives the synchronizer parameterized access to the mirror tables.
// It never opens connections of its own; the shared pool is injected.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const collectibleColumns = `id, name, issuing_organization, designer, material, batch_number,
		production_date, description, current_owner, status, digital_fingerprint,
		image_url, estimated_value_cents, pending_transfer_to, pending_transfer_by,
		created_at, updated_at`

// Upsert inserts or refreshes a mirror row from ledger-derived state.
// Presentation fields keep their existing values on conflict.
func (s *Store) Upsert(ctx context.Context, rec models.CollectibleMirror) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collectibles (
			id, name, issuing_organization, designer, material, batch_number,
			production_date, description, current_owner, status, digital_fingerprint,
			image_url, estimated_value_cents
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			current_owner = EXCLUDED.current_owner,
			status = EXCLUDED.status,
			digital_fingerprint = EXCLUDED.digital_fingerprint,
			updated_at = NOW()`,
		rec.ID, rec.Name, rec.IssuingOrganization, rec.Designer, rec.Material,
		rec.BatchNumber, rec.ProductionDate, rec.Description, rec.CurrentOwner,
		rec.Status, rec.DigitalFingerprint, rec.ImageURL, rec.EstimatedValueCents)
	if err != nil {
		return fmt.Errorf("upsert collectible %s: %w", rec.ID, err)
	}
	return nil
}

// UpdateOwnership rewrites only the ledger-derived ownership fields and
// clears any pending-transfer gate. Presentation columns are untouched.
func (s *Store) UpdateOwnership(ctx context.Context, id, owner, status, fingerprint string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET
			current_owner = $2,
			status = $3,
			digital_fingerprint = $4,
			pending_transfer_to = '',
			pending_transfer_by = '',
			updated_at = NOW()
		WHERE id = $1`,
		id, owner, status, fingerprint)
	if err != nil {
		return fmt.Errorf("update ownership for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update ownership for %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// UpdateFingerprint is the read-repair path: it touches nothing but the
// fingerprint column.
func (s *Store) UpdateFingerprint(ctx context.Context, id, fingerprint string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE collectibles SET digital_fingerprint = $2, updated_at = NOW() WHERE id = $1`,
		id, fingerprint)
	if err != nil {
		return fmt.Errorf("repair fingerprint for %s: %w", id, err)
	}
	return nil
}

// UpdatePresentation sets the mirror-only display fields.
func (s *Store) UpdatePresentation(ctx context.Context, id, imageURL string, estimatedValueCents int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET image_url = $2, estimated_value_cents = $3, updated_at = NOW()
		WHERE id = $1`,
		id, imageURL, estimatedValueCents)
	if err != nil {
		return fmt.Errorf("update presentation for %s: %w", id, err)
	}
	return nil
}

// SetPendingTransfer records the off-ledger approval gate for a transfer.
func (s *Store) SetPendingTransfer(ctx context.Context, id, to, requestedBy string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET pending_transfer_to = $2, pending_transfer_by = $3, updated_at = NOW()
		WHERE id = $1`,
		id, to, requestedBy)
	if err != nil {
		return fmt.Errorf("set pending transfer for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set pending transfer for %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ClearPendingTransfer drops the approval gate without transferring.
func (s *Store) ClearPendingTransfer(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET pending_transfer_to = '', pending_transfer_by = '', updated_at = NOW()
		WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("clear pending transfer for %s: %w", id, err)
	}
	return nil
}

// InsertTransferEvent appends a local copy of a ledger transfer event.
func (s *Store) InsertTransferEvent(ctx context.Context, ev models.TransferEventRow) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfer_events (id, collectible_id, from_identity, to_identity, event_type, ledger_tx_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ledger_tx_id) DO NOTHING`,
		ev.ID, ev.CollectibleID, ev.FromIdentity, ev.ToIdentity, ev.EventType, ev.LedgerTxID, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert transfer event for %s: %w", ev.CollectibleID, err)
	}
	return nil
}

// GetByID returns the mirror row, or nil when no row exists.
func (s *Store) GetByID(ctx context.Context, id string) (*models.CollectibleMirror, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+collectibleColumns+` FROM collectibles WHERE id = $1`, id)
	rec, err := scanCollectible(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collectible %s: %w", id, err)
	}
	return rec, nil
}

// ListByOwner returns every collectible currently held by an identity.
func (s *Store) ListByOwner(ctx context.Context, owner string) ([]models.CollectibleMirror, error) {
	return s.list(ctx,
		`SELECT `+collectibleColumns+` FROM collectibles WHERE current_owner = $1 ORDER BY created_at DESC`,
		owner)
}

// ListByStatus returns every collectible in a lifecycle status.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]models.CollectibleMirror, error) {
	return s.list(ctx,
		`SELECT `+collectibleColumns+` FROM collectibles WHERE status = $1 ORDER BY created_at DESC`,
		status)
}

// ListEvents returns the locally mirrored transfer history, oldest first.
func (s *Store) ListEvents(ctx context.Context, collectibleID string) ([]models.TransferEventRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collectible_id, from_identity, to_identity, event_type, ledger_tx_id, occurred_at
		FROM transfer_events WHERE collectible_id = $1 ORDER BY occurred_at ASC`,
		collectibleID)
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", collectibleID, err)
	}
	defer rows.Close()

	var events []models.TransferEventRow
	for rows.Next() {
		var ev models.TransferEventRow
		if err := rows.Scan(&ev.ID, &ev.CollectibleID, &ev.FromIdentity, &ev.ToIdentity,
			&ev.EventType, &ev.LedgerTxID, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event for %s: %w", collectibleID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) list(ctx context.Context, query string, arg any) ([]models.CollectibleMirror, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list collectibles: %w", err)
	}
	defer rows.Close()

	var records []models.CollectibleMirror
	for rows.Next() {
		rec, err := scanCollectible(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collectible: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollectible(row rowScanner) (*models.CollectibleMirror, error) {
	var rec models.CollectibleMirror
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.IssuingOrganization, &rec.Designer, &rec.Material,
		&rec.BatchNumber, &rec.ProductionDate, &rec.Description, &rec.CurrentOwner,
		&rec.Status, &rec.DigitalFingerprint, &rec.ImageURL, &rec.EstimatedValueCents,
		&rec.PendingTransferTo, &rec.PendingTransferBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
