package chaincode

// Collectible is the canonical digital-identity record for a physical item.
// The ledger owns this record; every off-chain copy is derived from it.
type Collectible struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	IssuingOrganization string          `json:"issuing_organization"` // MSP ID of the issuer
	Designer            string          `json:"designer"`
	Material            string          `json:"material"`
	BatchNumber         string          `json:"batch_number"`
	ProductionDate      string          `json:"production_date"`
	Description         string          `json:"description"`
	CurrentOwner        string          `json:"current_owner"`
	DigitalFingerprint  string          `json:"digital_fingerprint"`
	Status              string          `json:"status"` // ACTIVE, CLAIMED, TRANSFERRED
	TransferHistory     []TransferEvent `json:"transfer_history"`
}

// TransferEvent is one entry in the append-only ownership audit trail.
type TransferEvent struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"` // CLAIM, TRANSFER
	TxID      string `json:"tx_id"`
}

const (
	StatusActive      = "ACTIVE"
	StatusClaimed     = "CLAIMED"
	StatusTransferred = "TRANSFERRED"

	EventTypeClaim    = "CLAIM"
	EventTypeTransfer = "TRANSFER"
)

// Stable error code tokens. They lead every domain error message so clients
// can classify failures without parsing prose.
const (
	ErrAlreadyExists  = "ALREADY_EXISTS"
	ErrNotFound       = "NOT_FOUND"
	ErrAlreadyClaimed = "ALREADY_CLAIMED"
	ErrNotOwner       = "NOT_OWNER"
)

const (
	EventCollectibleCreated = "CollectibleCreated"
	EventOwnershipChanged   = "OwnershipChanged"

	adminRoleAttribute = "role"
	adminRoleValue     = "admin"
)
