package fabricclient

import (
	"bytes"
	"encoding/json"
)

// DecodeState tags how a ledger result buffer was interpreted.
type DecodeState int

const (
	// DecodeEmpty marks a genuinely empty payload.
	DecodeEmpty DecodeState = iota
	// DecodeDecoded marks a payload parsed into a Collectible.
	DecodeDecoded
	// DecodeRawFallback marks a payload that is not a well-formed record;
	// the raw text is preserved so callers can tell a malformed result
	// apart from an empty one.
	DecodeRawFallback
)

// DecodeResult is the typed view of the opaque buffer a ledger call returns.
type DecodeResult struct {
	State  DecodeState
	Record *Collectible
	Raw    string
}

func decodePayload(payload []byte) DecodeResult {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return DecodeResult{State: DecodeEmpty}
	}

	var rec Collectible
	if err := json.Unmarshal(trimmed, &rec); err != nil || rec.ID == "" {
		return DecodeResult{State: DecodeRawFallback, Raw: string(payload)}
	}
	return DecodeResult{State: DecodeDecoded, Record: &rec}
}

// decodeHistory parses a GetTransferHistory payload.
func decodeHistory(payload []byte) ([]TransferEvent, error) {
	var events []TransferEvent
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, err
	}
	return events, nil
}
