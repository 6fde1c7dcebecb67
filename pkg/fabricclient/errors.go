package fabricclient

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Code identifies a stable failure class surfaced to callers.
type Code string

const (
	CodeSessionNotInitialized Code = "SESSION_NOT_INITIALIZED"
	CodeEndorsementFailed     Code = "ENDORSEMENT_FAILED"
	CodeLedgerError           Code = "LEDGER_ERROR"
	CodeTimeout               Code = "TIMEOUT"

	// Domain codes emitted by the contract and propagated verbatim; these
	// are expected business outcomes, not systemic failures.
	CodeNotFound       Code = "NOT_FOUND"
	CodeAlreadyExists  Code = "ALREADY_EXISTS"
	CodeAlreadyClaimed Code = "ALREADY_CLAIMED"
	CodeNotOwner       Code = "NOT_OWNER"
)

var domainCodes = []Code{CodeNotFound, CodeAlreadyExists, CodeAlreadyClaimed, CodeNotOwner}

// Error is the typed failure returned by every orchestrator call. It always
// names the contract function and arguments for diagnostics.
type Error struct {
	Code    Code
	Fn      string
	Args    []string
	Elapsed time.Duration
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s(%s): %v", e.Code, e.Fn, strings.Join(e.Args, ", "), e.Err)
	}
	return fmt.Sprintf("%s: %s(%s)", e.Code, e.Fn, strings.Join(e.Args, ", "))
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the failure code from err, or "" when err did not come
// from the orchestrator.
func CodeOf(err error) Code {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsDomain reports whether err is a business outcome from the contract
// rather than a network or session failure.
func IsDomain(err error) bool {
	code := CodeOf(err)
	for _, dc := range domainCodes {
		if code == dc {
			return true
		}
	}
	return false
}

// classify maps a raw submission error onto the taxonomy. Contract errors
// travel back as text, so domain codes are matched on the stable leading
// token the contract embeds in its messages.
func classify(err error) Code {
	msg := err.Error()
	for _, code := range domainCodes {
		if strings.Contains(msg, string(code)) {
			return code
		}
	}
	if strings.Contains(strings.ToLower(msg), "endorse") {
		return CodeEndorsementFailed
	}
	return CodeLedgerError
}
