package fabricclient

// Collectible mirrors the chaincode's canonical on-ledger record. The JSON
// tags are the wire format; they must track the contract's schema.
type Collectible struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	IssuingOrganization string          `json:"issuing_organization"`
	Designer            string          `json:"designer"`
	Material            string          `json:"material"`
	BatchNumber         string          `json:"batch_number"`
	ProductionDate      string          `json:"production_date"`
	Description         string          `json:"description"`
	CurrentOwner        string          `json:"current_owner"`
	DigitalFingerprint  string          `json:"digital_fingerprint"`
	Status              string          `json:"status"`
	TransferHistory     []TransferEvent `json:"transfer_history"`
}

// TransferEvent is one entry of the ledger's append-only audit trail.
type TransferEvent struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
	TxID      string `json:"tx_id"`
}

// Ledger status values, as written by the contract.
const (
	StatusActive      = "ACTIVE"
	StatusClaimed     = "CLAIMED"
	StatusTransferred = "TRANSFERRED"
)

// Contract function names exposed by collectible-core.
const (
	FnCreateCollectible   = "CreateCollectible"
	FnClaimCollectible    = "ClaimCollectible"
	FnTransferCollectible = "TransferCollectible"
	FnReadCollectible     = "ReadCollectible"
	FnGetTransferHistory  = "GetTransferHistory"
	FnVerifyAuthenticity  = "VerifyAuthenticity"
)
