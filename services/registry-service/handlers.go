package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/provenanceworks/collectible-registry/pkg/common"
	"github.com/provenanceworks/collectible-registry/pkg/common/api"
	"github.com/provenanceworks/collectible-registry/pkg/fabricclient"
	"github.com/provenanceworks/collectible-registry/services/registry-service/mirror"
	"github.com/provenanceworks/collectible-registry/services/registry-service/models"
)

// Service wires the orchestrator, the mirror store and the synchronizer
// behind the HTTP boundary. Handlers stay thin; lifecycle semantics live in
// the ledger contract and the synchronizer.
type Service struct {
	fabric *fabricclient.Client
	store  *mirror.Store
	sync   *mirror.Synchronizer
	issuer string
	log    zerolog.Logger
}

// ledgerReader adapts the orchestrator to the synchronizer's read seam.
type ledgerReader struct {
	fabric *fabricclient.Client
}

func (r ledgerReader) Query(ctx context.Context, id string) (*fabricclient.Collectible, error) {
	res, err := r.fabric.Evaluate(ctx, fabricclient.FnReadCollectible, id)
	if err != nil {
		return nil, err
	}
	rec := res.Record()
	if rec == nil {
		return nil, fmt.Errorf("unexpected ledger payload for %s", id)
	}
	return rec, nil
}

func httpStatusFor(code fabricclient.Code) int {
	switch code {
	case fabricclient.CodeNotFound:
		return http.StatusNotFound
	case fabricclient.CodeAlreadyExists, fabricclient.CodeAlreadyClaimed:
		return http.StatusConflict
	case fabricclient.CodeNotOwner:
		return http.StatusForbidden
	case fabricclient.CodeTimeout:
		return http.StatusGatewayTimeout
	case fabricclient.CodeSessionNotInitialized:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Service) writeLedgerError(w http.ResponseWriter, err error) {
	code := fabricclient.CodeOf(err)
	if code == "" {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	api.WriteError(w, httpStatusFor(code), string(code), err.Error())
}

// respond projects a ledger result and reports a mirror lag without failing
// the operation: the ledger committed, so the business operation succeeded.
func (s *Service) respond(w http.ResponseWriter, status int, rec *fabricclient.Collectible, mirrorErr error) {
	if mirrorErr != nil {
		s.log.Error().Str("id", rec.ID).Err(mirrorErr).Msg("mirror behind ledger, flagged for reconciliation")
	}
	api.WriteSuccess(w, status, models.CollectibleResponse{
		Record:      mirror.Project(rec),
		MirrorStale: mirrorErr != nil,
	})
}

func (s *Service) CreateCollectibleHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCollectibleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if req.ID == "" || req.Name == "" {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "id and name are required")
		return
	}

	res, err := s.fabric.Submit(r.Context(), fabricclient.FnCreateCollectible,
		req.ID, req.Name, s.issuer, req.Designer, req.Material,
		req.BatchNumber, req.ProductionDate, req.Description)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	rec := res.Record()
	if rec == nil {
		api.WriteError(w, http.StatusBadGateway, "BAD_LEDGER_PAYLOAD", "ledger returned an unexpected payload")
		return
	}

	mirrorErr := s.sync.PersistAfterCreate(r.Context(), rec)
	if mirrorErr == nil && req.ImageURL != "" {
		if err := s.store.UpdatePresentation(r.Context(), rec.ID, req.ImageURL, 0); err != nil {
			s.log.Warn().Str("id", rec.ID).Err(err).Msg("presentation update failed")
		}
	}
	s.respond(w, http.StatusCreated, rec, mirrorErr)
}

func (s *Service) ClaimCollectibleHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	claimant := req.Claimant
	if claimant == "" {
		if claims, ok := common.ClaimsFrom(r.Context()); ok {
			claimant = claims.Subject
		}
	}
	if claimant == "" {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "claimant is required")
		return
	}

	res, err := s.fabric.Submit(r.Context(), fabricclient.FnClaimCollectible, id, claimant)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	rec := res.Record()
	if rec == nil {
		api.WriteError(w, http.StatusBadGateway, "BAD_LEDGER_PAYLOAD", "ledger returned an unexpected payload")
		return
	}

	s.respond(w, http.StatusOK, rec, s.sync.PersistAfterOwnershipChange(r.Context(), rec))
}

func (s *Service) TransferCollectibleHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if req.NewOwner == "" {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "new_owner is required")
		return
	}

	// The caller identity comes from the validated session, never the body.
	claims, ok := common.ClaimsFrom(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	res, err := s.fabric.Submit(r.Context(), fabricclient.FnTransferCollectible, id, req.NewOwner, claims.Subject)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	rec := res.Record()
	if rec == nil {
		api.WriteError(w, http.StatusBadGateway, "BAD_LEDGER_PAYLOAD", "ledger returned an unexpected payload")
		return
	}

	s.respond(w, http.StatusOK, rec, s.sync.PersistAfterOwnershipChange(r.Context(), rec))
}

// RequestTransferHandler records an off-ledger approval gate; nothing is
// submitted to the ledger until the request is approved.
func (s *Service) RequestTransferHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewOwner == "" {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "new_owner is required")
		return
	}
	claims, ok := common.ClaimsFrom(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	if err := s.store.SetPendingTransfer(r.Context(), id, req.NewOwner, claims.Subject); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	api.WriteSuccess(w, http.StatusAccepted, map[string]string{
		"id":                  id,
		"pending_transfer_to": req.NewOwner,
	})
}

// ApproveTransferHandler resolves a pending transfer: approval executes the
// ledger transfer (which clears the gate on projection), rejection just
// clears the gate.
func (s *Service) ApproveTransferHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.TransferApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	cached, err := s.store.GetByID(r.Context(), id)
	if err != nil || cached == nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "collectible not tracked")
		return
	}
	if cached.PendingTransferTo == "" {
		api.WriteError(w, http.StatusConflict, "NO_PENDING_TRANSFER", "no pending transfer to resolve")
		return
	}

	if !req.Approve {
		if err := s.store.ClearPendingTransfer(r.Context(), id); err != nil {
			api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
			return
		}
		api.WriteSuccess(w, http.StatusOK, map[string]string{"id": id, "result": "rejected"})
		return
	}

	res, err := s.fabric.Submit(r.Context(), fabricclient.FnTransferCollectible,
		id, cached.PendingTransferTo, cached.PendingTransferBy)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	rec := res.Record()
	if rec == nil {
		api.WriteError(w, http.StatusBadGateway, "BAD_LEDGER_PAYLOAD", "ledger returned an unexpected payload")
		return
	}

	s.respond(w, http.StatusOK, rec, s.sync.PersistAfterOwnershipChange(r.Context(), rec))
}

func (s *Service) GetCollectibleHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	res, err := s.sync.ReadWithReconciliation(r.Context(), id)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, models.CollectibleResponse{
		Record: res.Record,
		Stale:  res.Stale,
	})
}

func (s *Service) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	res, err := s.fabric.Evaluate(r.Context(), fabricclient.FnGetTransferHistory, id)
	if err != nil {
		// Ledger unreachable: fall back to the locally mirrored events.
		if !fabricclient.IsDomain(err) {
			events, merr := s.store.ListEvents(r.Context(), id)
			if merr == nil {
				s.log.Warn().Str("id", id).Err(err).Msg("ledger unreachable, serving mirrored history")
				api.WriteSuccess(w, http.StatusOK, map[string]any{"events": events, "stale": true})
				return
			}
		}
		s.writeLedgerError(w, err)
		return
	}

	history, herr := res.History()
	if herr != nil {
		api.WriteError(w, http.StatusBadGateway, "BAD_LEDGER_PAYLOAD", herr.Error())
		return
	}
	api.WriteSuccess(w, http.StatusOK, map[string]any{"events": history})
}

func (s *Service) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Fingerprint == "" {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "fingerprint is required")
		return
	}

	res, err := s.fabric.Evaluate(r.Context(), fabricclient.FnVerifyAuthenticity, id, req.Fingerprint)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, models.VerifyResponse{ID: id, Authentic: res.Bool()})
}

func (s *Service) ListCollectiblesHandler(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	status := r.URL.Query().Get("status")

	var (
		records []models.CollectibleMirror
		err     error
	)
	switch {
	case owner != "":
		records, err = s.store.ListByOwner(r.Context(), owner)
	case status != "":
		records, err = s.store.ListByStatus(r.Context(), status)
	default:
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "owner or status query is required")
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	api.WriteSuccess(w, http.StatusOK, records)
}

func (s *Service) BatchHandler(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	claims, _ := common.ClaimsFrom(r.Context())

	items := make([]fabricclient.BatchItem, 0, len(req.Operations))
	for _, op := range req.Operations {
		item, err := s.batchItem(op, claims)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		items = append(items, item)
	}

	out := s.fabric.SubmitBatch(r.Context(), items)

	resp := models.BatchResponse{
		Submitted: out.Submitted,
		Succeeded: out.Succeeded,
		Failed:    out.Failed,
	}
	for i, item := range out.Items {
		entry := models.BatchItemResponse{Index: item.Index, Status: item.Status}
		if item.Err != nil {
			entry.Error = item.Err.Error()
		} else if rec := item.Result.Record(); rec != nil {
			if err := s.projectBatchItem(r.Context(), req.Operations[i].Op, rec); err != nil {
				s.log.Error().Str("id", rec.ID).Err(err).Msg("mirror behind ledger for batch item")
			}
			view := mirror.Project(rec)
			entry.Record = &view
		}
		resp.Items = append(resp.Items, entry)
	}
	api.WriteSuccess(w, http.StatusOK, resp)
}

func (s *Service) batchItem(op models.BatchOperation, claims common.Claims) (fabricclient.BatchItem, error) {
	if op.ID == "" {
		return fabricclient.BatchItem{}, errors.New("every batch operation needs an id")
	}
	switch op.Op {
	case "create":
		return fabricclient.BatchItem{
			Fn: fabricclient.FnCreateCollectible,
			Args: []string{op.ID, op.Name, s.issuer, op.Designer, op.Material,
				op.BatchNumber, op.ProductionDate, op.Description},
		}, nil
	case "claim":
		claimant := op.Claimant
		if claimant == "" {
			claimant = claims.Subject
		}
		return fabricclient.BatchItem{
			Fn:   fabricclient.FnClaimCollectible,
			Args: []string{op.ID, claimant},
		}, nil
	case "transfer":
		return fabricclient.BatchItem{
			Fn:   fabricclient.FnTransferCollectible,
			Args: []string{op.ID, op.NewOwner, claims.Subject},
		}, nil
	default:
		return fabricclient.BatchItem{}, fmt.Errorf("unknown batch op %q", op.Op)
	}
}

func (s *Service) projectBatchItem(ctx context.Context, op string, rec *fabricclient.Collectible) error {
	if op == "create" {
		return s.sync.PersistAfterCreate(ctx, rec)
	}
	return s.sync.PersistAfterOwnershipChange(ctx, rec)
}
