package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/provenanceworks/collectible-registry/pkg/fabricclient"
	"github.com/provenanceworks/collectible-registry/services/registry-service/models"
)

// LedgerReader is the slice of the orchestrator the synchronizer needs for
// reconciling reads.
type LedgerReader interface {
	Query(ctx context.Context, id string) (*fabricclient.Collectible, error)
}

// MirrorWriteError marks a relational write that failed after the ledger had
// already committed. The business operation itself succeeded; the mirror is
// behind until read-repair or a retried projection catches it up.
type MirrorWriteError struct {
	CollectibleID string
	Op            string
	Err           error
}

func (e *MirrorWriteError) Error() string {
	return fmt.Sprintf("MIRROR_WRITE_FAILED: %s %s: %v", e.Op, e.CollectibleID, e.Err)
}

func (e *MirrorWriteError) Unwrap() error { return e.Err }

// Synchronizer projects successful ledger results into the mirror and serves
// reads that prefer ledger truth but survive ledger outages.
type Synchronizer struct {
	store  *Store
	ledger LedgerReader
	log    zerolog.Logger
}

func NewSynchronizer(store *Store, ledger LedgerReader, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		store:  store,
		ledger: ledger,
		log:    log.With().Str("component", "mirror-sync").Logger(),
	}
}

// PersistAfterCreate projects a freshly created ledger record. The mirror's
// owner starts unset: an ACTIVE collectible is held by its issuer but not
// yet claimed by anyone.
func (s *Synchronizer) PersistAfterCreate(ctx context.Context, rec *fabricclient.Collectible) error {
	mirror := Project(rec)
	if err := s.store.Upsert(ctx, mirror); err != nil {
		s.log.Error().Str("id", rec.ID).Err(err).Msg("mirror write failed after ledger create")
		return &MirrorWriteError{CollectibleID: rec.ID, Op: "create", Err: err}
	}
	return nil
}

// PersistAfterOwnershipChange projects a claim or transfer result: ownership
// fields plus a local copy of the appended transfer event. Only ever called
// with a successful ledger transaction result as provenance.
func (s *Synchronizer) PersistAfterOwnershipChange(ctx context.Context, rec *fabricclient.Collectible) error {
	if err := s.store.UpdateOwnership(ctx, rec.ID, rec.CurrentOwner, rec.Status, rec.DigitalFingerprint); err != nil {
		s.log.Error().Str("id", rec.ID).Err(err).Msg("mirror write failed after ownership change")
		return &MirrorWriteError{CollectibleID: rec.ID, Op: "ownership", Err: err}
	}

	if n := len(rec.TransferHistory); n > 0 {
		last := rec.TransferHistory[n-1]
		ev := models.TransferEventRow{
			CollectibleID: rec.ID,
			FromIdentity:  last.From,
			ToIdentity:    last.To,
			EventType:     last.Type,
			LedgerTxID:    last.TxID,
			OccurredAt:    time.Unix(last.Timestamp, 0).UTC(),
		}
		if err := s.store.InsertTransferEvent(ctx, ev); err != nil {
			s.log.Error().Str("id", rec.ID).Str("tx", last.TxID).Err(err).Msg("mirror event write failed")
			return &MirrorWriteError{CollectibleID: rec.ID, Op: "event", Err: err}
		}
	}
	return nil
}

// ReadResult is a reconciled view of one collectible. Stale marks mirror
// state served while the ledger was unreachable.
type ReadResult struct {
	Record models.CollectibleMirror
	Stale  bool
}

// ReadWithReconciliation prefers a live ledger read, merging mirror-only
// presentation fields in and opportunistically repairing the mirror's
// fingerprint. When the ledger is unreachable it falls back to the mirror's
// last-known state, flagged stale rather than failed.
func (s *Synchronizer) ReadWithReconciliation(ctx context.Context, id string) (*ReadResult, error) {
	ledgerRec, err := s.ledger.Query(ctx, id)
	if err != nil {
		if fabricclient.IsDomain(err) {
			// A definite ledger answer, e.g. NOT_FOUND: no staleness involved.
			return nil, err
		}

		mirrorRec, merr := s.store.GetByID(ctx, id)
		if merr != nil || mirrorRec == nil {
			return nil, err
		}
		s.log.Warn().Str("id", id).Err(err).Msg("ledger unreachable, serving mirror state")
		return &ReadResult{Record: *mirrorRec, Stale: true}, nil
	}

	view := Project(ledgerRec)
	mirrorRec, merr := s.store.GetByID(ctx, id)
	if merr != nil {
		s.log.Warn().Str("id", id).Err(merr).Msg("mirror read failed during reconciliation")
	}
	if mirrorRec != nil {
		view.ImageURL = mirrorRec.ImageURL
		view.EstimatedValueCents = mirrorRec.EstimatedValueCents
		view.PendingTransferTo = mirrorRec.PendingTransferTo
		view.PendingTransferBy = mirrorRec.PendingTransferBy
		view.CreatedAt = mirrorRec.CreatedAt
		view.UpdatedAt = mirrorRec.UpdatedAt

		if mirrorRec.DigitalFingerprint != ledgerRec.DigitalFingerprint {
			if rerr := s.store.UpdateFingerprint(ctx, id, ledgerRec.DigitalFingerprint); rerr != nil {
				s.log.Warn().Str("id", id).Err(rerr).Msg("fingerprint read-repair failed")
			} else {
				s.log.Info().Str("id", id).Msg("repaired stale mirror fingerprint")
			}
		}
	}
	return &ReadResult{Record: view, Stale: false}, nil
}

// Project maps ledger truth onto the mirror schema. An unclaimed
// collectible is held by its issuer on the ledger, but the mirror models
// that as "owner unset".
func Project(rec *fabricclient.Collectible) models.CollectibleMirror {
	owner := rec.CurrentOwner
	if rec.Status == fabricclient.StatusActive {
		owner = ""
	}
	return models.CollectibleMirror{
		ID:                  rec.ID,
		Name:                rec.Name,
		IssuingOrganization: rec.IssuingOrganization,
		Designer:            rec.Designer,
		Material:            rec.Material,
		BatchNumber:         rec.BatchNumber,
		ProductionDate:      rec.ProductionDate,
		Description:         rec.Description,
		CurrentOwner:        owner,
		Status:              rec.Status,
		DigitalFingerprint:  rec.DigitalFingerprint,
	}
}
