package chaincode

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// SmartContract manages the collectible lifecycle on the ledger
type SmartContract struct {
	contractapi.Contract
}

// InitLedger initializes the ledger
func (s *SmartContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	// No genesis records; collectibles are only ever created explicitly.
	return nil
}

// CreateCollectible registers a new collectible identity. The digital
// fingerprint is computed here, exactly once, over the serialized record.
func (s *SmartContract) CreateCollectible(ctx contractapi.TransactionContextInterface, id string, name string, issuingOrg string, designer string, material string, batchNumber string, productionDate string, description string) (*Collectible, error) {
	existing, err := ctx.GetStub().GetState(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read collectible %s: %v", id, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: collectible %s already exists", ErrAlreadyExists, id)
	}

	collectible := Collectible{
		ID:                  id,
		Name:                name,
		IssuingOrganization: issuingOrg,
		Designer:            designer,
		Material:            material,
		BatchNumber:         batchNumber,
		ProductionDate:      productionDate,
		Description:         description,
		CurrentOwner:        issuingOrg,
		Status:              StatusActive,
		TransferHistory:     []TransferEvent{},
	}
	collectible.DigitalFingerprint = computeFingerprint(&collectible)

	collectibleBytes, _ := json.Marshal(collectible)
	if err := ctx.GetStub().PutState(id, collectibleBytes); err != nil {
		return nil, fmt.Errorf("failed to store collectible %s: %v", id, err)
	}

	ctx.GetStub().SetEvent(EventCollectibleCreated, collectibleBytes)

	return &collectible, nil
}

// ClaimCollectible moves an unclaimed collectible from the issuing
// organization to its first owner.
func (s *SmartContract) ClaimCollectible(ctx contractapi.TransactionContextInterface, id string, claimant string) (*Collectible, error) {
	collectible, err := s.readCollectible(ctx, id)
	if err != nil {
		return nil, err
	}

	if collectible.CurrentOwner != collectible.IssuingOrganization {
		return nil, fmt.Errorf("%s: collectible %s is already claimed by %s", ErrAlreadyClaimed, id, collectible.CurrentOwner)
	}

	collectible.TransferHistory = append(collectible.TransferHistory, TransferEvent{
		From:      collectible.IssuingOrganization,
		To:        claimant,
		Timestamp: time.Now().Unix(),
		Type:      EventTypeClaim,
		TxID:      ctx.GetStub().GetTxID(),
	})
	collectible.CurrentOwner = claimant
	collectible.Status = StatusClaimed

	collectibleBytes, _ := json.Marshal(collectible)
	if err := ctx.GetStub().PutState(id, collectibleBytes); err != nil {
		return nil, fmt.Errorf("failed to update collectible %s: %v", id, err)
	}

	ctx.GetStub().SetEvent(EventOwnershipChanged, collectibleBytes)

	return collectible, nil
}

// TransferCollectible moves ownership to a new identity. Only the current
// owner may transfer, unless the caller is an administrator or belongs to
// the issuing organization's MSP.
func (s *SmartContract) TransferCollectible(ctx contractapi.TransactionContextInterface, id string, newOwner string, caller string) (*Collectible, error) {
	collectible, err := s.readCollectible(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller != collectible.CurrentOwner {
		admin, err := s.callerIsAdmin(ctx, collectible.IssuingOrganization)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, fmt.Errorf("%s: %s does not own collectible %s", ErrNotOwner, caller, id)
		}
	}

	collectible.TransferHistory = append(collectible.TransferHistory, TransferEvent{
		From:      collectible.CurrentOwner,
		To:        newOwner,
		Timestamp: time.Now().Unix(),
		Type:      EventTypeTransfer,
		TxID:      ctx.GetStub().GetTxID(),
	})
	collectible.CurrentOwner = newOwner
	collectible.Status = StatusTransferred

	collectibleBytes, _ := json.Marshal(collectible)
	if err := ctx.GetStub().PutState(id, collectibleBytes); err != nil {
		return nil, fmt.Errorf("failed to update collectible %s: %v", id, err)
	}

	ctx.GetStub().SetEvent(EventOwnershipChanged, collectibleBytes)

	return collectible, nil
}

// ReadCollectible returns the collectible state
func (s *SmartContract) ReadCollectible(ctx contractapi.TransactionContextInterface, id string) (*Collectible, error) {
	return s.readCollectible(ctx, id)
}

// GetTransferHistory returns the ownership audit trail, oldest first
func (s *SmartContract) GetTransferHistory(ctx contractapi.TransactionContextInterface, id string) ([]TransferEvent, error) {
	collectible, err := s.readCollectible(ctx, id)
	if err != nil {
		return nil, err
	}
	return collectible.TransferHistory, nil
}

// VerifyAuthenticity compares a supplied fingerprint against the stored one.
// A mismatch is a valid false result, never an error.
func (s *SmartContract) VerifyAuthenticity(ctx contractapi.TransactionContextInterface, id string, suppliedFingerprint string) (bool, error) {
	collectible, err := s.readCollectible(ctx, id)
	if err != nil {
		return false, err
	}
	return collectible.DigitalFingerprint == suppliedFingerprint, nil
}

// CollectibleExists reports whether a collectible is present on the ledger
func (s *SmartContract) CollectibleExists(ctx contractapi.TransactionContextInterface, id string) (bool, error) {
	existing, err := ctx.GetStub().GetState(id)
	if err != nil {
		return false, fmt.Errorf("failed to read collectible %s: %v", id, err)
	}
	return existing != nil, nil
}

func (s *SmartContract) readCollectible(ctx contractapi.TransactionContextInterface, id string) (*Collectible, error) {
	collectibleBytes, err := ctx.GetStub().GetState(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read collectible %s: %v", id, err)
	}
	if collectibleBytes == nil {
		return nil, fmt.Errorf("%s: collectible %s does not exist", ErrNotFound, id)
	}

	var collectible Collectible
	if err := json.Unmarshal(collectibleBytes, &collectible); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collectible %s: %v", id, err)
	}
	return &collectible, nil
}

// callerIsAdmin checks the administrative identity class: membership in the
// issuing organization's MSP, or the admin role attribute on the cert.
func (s *SmartContract) callerIsAdmin(ctx contractapi.TransactionContextInterface, issuerMSP string) (bool, error) {
	mspID, err := ctx.GetClientIdentity().GetMSPID()
	if err != nil {
		return false, fmt.Errorf("failed to get MSP ID: %v", err)
	}
	if mspID == issuerMSP {
		return true, nil
	}

	val, found, err := ctx.GetClientIdentity().GetAttributeValue(adminRoleAttribute)
	if err != nil {
		return false, fmt.Errorf("failed to get role attribute: %v", err)
	}
	return found && val == adminRoleValue, nil
}

// computeFingerprint hashes the canonical serialized record. The stored
// value is immutable provenance; it is never recomputed after creation.
func computeFingerprint(c *Collectible) string {
	clone := *c
	clone.DigitalFingerprint = ""
	clone.TransferHistory = []TransferEvent{}
	payload, _ := json.Marshal(clone)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
