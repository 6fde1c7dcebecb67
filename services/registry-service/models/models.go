package models

import "time"

// CollectibleMirror is the relational projection of the on-ledger record
// plus presentation-only fields that never exist on the ledger. Ownership,
// status and fingerprint are derived state: they are only ever written from
// a successful ledger transaction result.
type CollectibleMirror struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	IssuingOrganization string    `json:"issuing_organization"`
	Designer            string    `json:"designer"`
	Material            string    `json:"material"`
	BatchNumber         string    `json:"batch_number"`
	ProductionDate      string    `json:"production_date"`
	Description         string    `json:"description"`
	CurrentOwner        string    `json:"current_owner"` // empty until claimed
	Status              string    `json:"status"`
	DigitalFingerprint  string    `json:"digital_fingerprint"`
	ImageURL            string    `json:"image_url,omitempty"`
	EstimatedValueCents int64     `json:"estimated_value_cents,omitempty"`
	PendingTransferTo   string    `json:"pending_transfer_to,omitempty"`
	PendingTransferBy   string    `json:"pending_transfer_by,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TransferEventRow mirrors one ledger transfer event for local queries,
// stamped with the ledger transaction reference for traceability.
type TransferEventRow struct {
	ID            string    `json:"id"`
	CollectibleID string    `json:"collectible_id"`
	FromIdentity  string    `json:"from"`
	ToIdentity    string    `json:"to"`
	EventType     string    `json:"type"`
	LedgerTxID    string    `json:"ledger_tx_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type CreateCollectibleRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Designer       string `json:"designer"`
	Material       string `json:"material"`
	BatchNumber    string `json:"batch_number"`
	ProductionDate string `json:"production_date"`
	Description    string `json:"description"`
	ImageURL       string `json:"image_url"`
}

type ClaimRequest struct {
	Claimant string `json:"claimant"`
}

type TransferRequest struct {
	NewOwner string `json:"new_owner"`
}

type TransferApprovalRequest struct {
	Approve bool `json:"approve"`
}

type VerifyRequest struct {
	Fingerprint string `json:"fingerprint"`
}

type VerifyResponse struct {
	ID        string `json:"id"`
	Authentic bool   `json:"authentic"`
}

// BatchOperation is one entry of a batch submission request.
type BatchOperation struct {
	Op             string `json:"op"` // create, claim, transfer
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Designer       string `json:"designer,omitempty"`
	Material       string `json:"material,omitempty"`
	BatchNumber    string `json:"batch_number,omitempty"`
	ProductionDate string `json:"production_date,omitempty"`
	Description    string `json:"description,omitempty"`
	Claimant       string `json:"claimant,omitempty"`
	NewOwner       string `json:"new_owner,omitempty"`
}

type BatchRequest struct {
	Operations []BatchOperation `json:"operations"`
}

type BatchItemResponse struct {
	Index  int                `json:"index"`
	Status string             `json:"status"`
	Record *CollectibleMirror `json:"record,omitempty"`
	Error  string             `json:"error,omitempty"`
}

type BatchResponse struct {
	Submitted int                 `json:"submitted"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Items     []BatchItemResponse `json:"items"`
}

// CollectibleResponse is the standard operation result: the record plus a
// staleness marker for mirror-served or mirror-lagging reads.
type CollectibleResponse struct {
	Record      CollectibleMirror `json:"record"`
	Stale       bool              `json:"stale,omitempty"`
	MirrorStale bool              `json:"mirror_stale,omitempty"`
}
