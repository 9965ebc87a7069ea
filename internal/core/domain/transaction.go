// Package domain holds the gateway-agnostic vocabulary of a payment transaction:
// operation kinds, modifiers, canonical statuses and the lifecycle rules between them.
package domain

import (
	"slices"
	"strings"
)

// TransactionType is the kind of operation a builder describes.
type TransactionType string

const (
	TypeSale      TransactionType = "SALE"
	TypeAuthorize TransactionType = "AUTHORIZE"
	TypeCapture   TransactionType = "CAPTURE"
	TypeRefund    TransactionType = "REFUND"
	TypeReverse   TransactionType = "REVERSE"
	TypeVoid      TransactionType = "VOID"
)

// IsFollowUp reports whether the type operates on a prior transaction.
func (t TransactionType) IsFollowUp() bool {
	switch t {
	case TypeCapture, TypeReverse, TypeVoid:
		return true
	default:
		return false
	}
}

// TransactionModifier alters how a gateway interprets a transaction.
// Exactly one modifier is active on a builder.
type TransactionModifier string

const (
	ModifierNone            TransactionModifier = "NONE"
	ModifierEncryptedMobile TransactionModifier = "ENCRYPTED_MOBILE"
	ModifierDecryptedMobile TransactionModifier = "DECRYPTED_MOBILE"
	ModifierPayByLink       TransactionModifier = "PAY_BY_LINK"
)

// ParseModifier maps a user supplied name (e.g. "encrypted-mobile") to a modifier.
func ParseModifier(s string) (TransactionModifier, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	if normalized == "" {
		return ModifierNone, true
	}
	m := TransactionModifier(normalized)
	switch m {
	case ModifierNone, ModifierEncryptedMobile, ModifierDecryptedMobile, ModifierPayByLink:
		return m, true
	}
	return ModifierNone, false
}

// TransactionStatus is the canonical, gateway independent result of an execution.
type TransactionStatus string

const (
	StatusInitiated     TransactionStatus = "INITIATED"
	StatusPreauthorized TransactionStatus = "PREAUTHORIZED"
	StatusCaptured      TransactionStatus = "CAPTURED"
	StatusReversed      TransactionStatus = "REVERSED"
	StatusDeclined      TransactionStatus = "DECLINED"
	StatusPending       TransactionStatus = "PENDING"
	StatusRefunded      TransactionStatus = "REFUNDED"
	StatusUnknown       TransactionStatus = "UNKNOWN"
)

// Action is a follow-up operation that may be chained from a transaction result.
type Action string

const (
	ActionCapture Action = "capture"
	ActionRefund  Action = "refund"
	ActionReverse Action = "reverse"
)

// Type returns the transaction type a follow-up builder is seeded with.
func (a Action) Type() TransactionType {
	switch a {
	case ActionCapture:
		return TypeCapture
	case ActionRefund:
		return TypeRefund
	default:
		return TypeReverse
	}
}

var transitions = map[TransactionStatus][]TransactionStatus{
	StatusInitiated:     {StatusPreauthorized, StatusCaptured, StatusDeclined, StatusPending},
	StatusPreauthorized: {StatusCaptured, StatusReversed, StatusDeclined},
	StatusCaptured:      {StatusRefunded, StatusReversed},
}

var followUps = map[TransactionStatus][]Action{
	StatusPreauthorized: {ActionCapture, ActionReverse},
	StatusCaptured:      {ActionRefund, ActionReverse},
}

// CanTransition validates a lifecycle move between two canonical statuses.
//
// Valid transitions are:
//   - Initiated → Preauthorized, Captured, Declined, Pending
//   - Preauthorized → Captured, Reversed, Declined
//   - Captured → Refunded, Reversed
//
// Every other move returns an INVALID_TRANSITION error.
func CanTransition(from, to TransactionStatus) error {
	if slices.Contains(transitions[from], to) {
		return nil
	}
	return NewInvalidTransitionError(string(from), string(to))
}

// AllowedActions lists the follow-ups legal from a status, in a stable order.
func AllowedActions(status TransactionStatus) []Action {
	return slices.Clone(followUps[status])
}

// Allows reports whether action may be chained from status.
func Allows(status TransactionStatus, action Action) bool {
	return slices.Contains(followUps[status], action)
}

// IsTerminal reports whether no follow-up can be chained from the status.
func IsTerminal(status TransactionStatus) bool {
	return len(followUps[status]) == 0
}

// ApprovedStatus is the status an approved response implies for a transaction type.
// Refunds follow the gateway convention of reporting a settled refund as captured.
func ApprovedStatus(t TransactionType) TransactionStatus {
	switch t {
	case TypeAuthorize:
		return StatusPreauthorized
	case TypeReverse, TypeVoid:
		return StatusReversed
	default:
		return StatusCaptured
	}
}
