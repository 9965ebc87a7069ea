package builder

import (
	"errors"
	"slices"
	"sync"

	"github.com/DanielPopoola/paykit/internal/core/domain"
)

// Target selects the (type, modifier) pairs a rule applies to. An empty list
// matches every value.
type Target struct {
	Types     []domain.TransactionType
	Modifiers []domain.TransactionModifier
}

func (t Target) matches(txType domain.TransactionType, modifier domain.TransactionModifier) bool {
	if len(t.Types) > 0 && !slices.Contains(t.Types, txType) {
		return false
	}
	if len(t.Modifiers) > 0 && !slices.Contains(t.Modifiers, modifier) {
		return false
	}
	return true
}

// Rule is a declarative check run before dispatch. Check returns true when the
// builder satisfies the rule.
type Rule struct {
	Target Target
	Code   string
	Field  string
	Reason string
	Check  func(b *TransactionBuilder) bool
}

func (r Rule) violation(b *TransactionBuilder) error {
	switch r.Code {
	case domain.ErrCodeMissingField:
		return domain.NewMissingFieldError(r.Field)
	case domain.ErrCodeInvalidModifierCombination:
		return domain.NewInvalidModifierError(b.transactionType, b.transactionModifier, r.Reason)
	case domain.ErrCodeInvalidMultiCapture:
		return domain.NewInvalidMultiCaptureError(r.Reason)
	case domain.ErrCodeUnexpectedField:
		return domain.NewUnexpectedFieldError(r.Field, r.Reason)
	case domain.ErrCodeInvalidField:
		return domain.NewInvalidFieldError(r.Field, errors.New(r.Reason))
	default:
		return &domain.BuilderError{Code: r.Code, Field: r.Field, Message: r.Reason}
	}
}

// Validations is an ordered rule registry. Rules run in registration order and
// the first violation is returned.
type Validations struct {
	mu    sync.RWMutex
	rules []Rule
}

func NewValidations(rules ...Rule) *Validations {
	v := &Validations{}
	v.Register(rules...)
	return v
}

// DefaultValidations returns a registry holding DefaultRules.
func DefaultValidations() *Validations {
	return NewValidations(DefaultRules()...)
}

func (v *Validations) Register(rules ...Rule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules = append(v.rules, rules...)
}

// Len returns the number of registered rules.
func (v *Validations) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rules)
}

// Validate runs every applicable rule against b, failing fast.
func (v *Validations) Validate(b *TransactionBuilder) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	for _, r := range v.rules {
		if !r.Target.matches(b.transactionType, b.transactionModifier) {
			continue
		}
		if !r.Check(b) {
			return r.violation(b)
		}
	}
	return nil
}

var (
	directTypes   = []domain.TransactionType{domain.TypeSale, domain.TypeAuthorize}
	followUpTypes = []domain.TransactionType{domain.TypeCapture, domain.TypeReverse, domain.TypeVoid}
	mobileModes   = []domain.TransactionModifier{domain.ModifierEncryptedMobile, domain.ModifierDecryptedMobile}
	instrumentMod = []domain.TransactionModifier{
		domain.ModifierNone, domain.ModifierEncryptedMobile, domain.ModifierDecryptedMobile,
	}
)

// DefaultRules is the rule set every client starts with.
func DefaultRules() []Rule {
	return []Rule{
		{
			Target: Target{Types: directTypes, Modifiers: instrumentMod},
			Code:   domain.ErrCodeMissingField,
			Field:  "paymentMethod",
			Check:  func(b *TransactionBuilder) bool { return b.paymentMethod != nil },
		},
		{
			Target: Target{Types: followUpTypes},
			Code:   domain.ErrCodeMissingField,
			Field:  "transactionId",
			Check:  hasTransactionReference,
		},
		{
			Target: Target{Types: []domain.TransactionType{domain.TypeRefund}},
			Code:   domain.ErrCodeMissingField,
			Field:  "paymentMethod",
			Check:  func(b *TransactionBuilder) bool { return b.paymentMethod != nil },
		},
		{
			Target: Target{Types: directTypes},
			Code:   domain.ErrCodeMissingField,
			Field:  "amount",
			Check:  func(b *TransactionBuilder) bool { return b.amount != nil },
		},
		{
			Target: Target{Types: directTypes},
			Code:   domain.ErrCodeMissingField,
			Field:  "currency",
			Check:  func(b *TransactionBuilder) bool { return b.currency != "" },
		},
		{
			Target: Target{Types: []domain.TransactionType{domain.TypeRefund}},
			Code:   domain.ErrCodeMissingField,
			Field:  "amount",
			Check:  func(b *TransactionBuilder) bool { return b.amount != nil || hasTransactionReference(b) },
		},
		{
			Target: Target{Types: []domain.TransactionType{domain.TypeRefund}},
			Code:   domain.ErrCodeMissingField,
			Field:  "currency",
			Check:  func(b *TransactionBuilder) bool { return b.currency != "" || hasTransactionReference(b) },
		},
		{
			Code:   domain.ErrCodeInvalidField,
			Field:  "amount",
			Reason: "amount must be greater than zero",
			Check:  func(b *TransactionBuilder) bool { return b.amount == nil || b.amount.IsPositive() },
		},
		{
			Target: Target{Modifiers: mobileModes},
			Code:   domain.ErrCodeInvalidModifierCombination,
			Reason: "mobile wallet data is only accepted on sale or authorize",
			Check: func(b *TransactionBuilder) bool {
				return slices.Contains(directTypes, b.transactionType)
			},
		},
		{
			Target: Target{Modifiers: []domain.TransactionModifier{domain.ModifierPayByLink}},
			Code:   domain.ErrCodeInvalidModifierCombination,
			Reason: "payment links can only be created for a sale",
			Check:  func(b *TransactionBuilder) bool { return b.transactionType == domain.TypeSale },
		},
		{
			Target: Target{Modifiers: instrumentMod},
			Code:   domain.ErrCodeInvalidModifierCombination,
			Reason: "payment method does not support the modifier",
			Check: func(b *TransactionBuilder) bool {
				return b.paymentMethod == nil || b.paymentMethod.Supports(b.transactionModifier)
			},
		},
		{
			Target: Target{Modifiers: mobileModes},
			Code:   domain.ErrCodeMissingField,
			Field:  "token",
			Check: func(b *TransactionBuilder) bool {
				w, ok := b.paymentMethod.(*domain.MobileWallet)
				return ok && w.Token != ""
			},
		},
		{
			Target: Target{Modifiers: []domain.TransactionModifier{domain.ModifierEncryptedMobile}},
			Code:   domain.ErrCodeMissingField,
			Field:  "mobileType",
			Check: func(b *TransactionBuilder) bool {
				w, ok := b.paymentMethod.(*domain.MobileWallet)
				return ok && w.MobileType != ""
			},
		},
		{
			Target: Target{Modifiers: []domain.TransactionModifier{domain.ModifierDecryptedMobile}},
			Code:   domain.ErrCodeMissingField,
			Field:  "cryptogram",
			Check: func(b *TransactionBuilder) bool {
				w, ok := b.paymentMethod.(*domain.MobileWallet)
				return ok && w.Cryptogram != ""
			},
		},
		{
			Target: Target{Modifiers: []domain.TransactionModifier{domain.ModifierPayByLink}},
			Code:   domain.ErrCodeMissingField,
			Field:  "payLinkData",
			Check:  func(b *TransactionBuilder) bool { return b.payLinkData != nil },
		},
		{
			Code:   domain.ErrCodeInvalidMultiCapture,
			Reason: "sequence and payment count must be positive",
			Check: func(b *TransactionBuilder) bool {
				return !b.multiCapture || (b.multiCaptureSequence > 0 && b.multiCapturePaymentCount > 0)
			},
		},
		{
			Code:   domain.ErrCodeInvalidMultiCapture,
			Reason: "sequence cannot exceed payment count",
			Check: func(b *TransactionBuilder) bool {
				return !b.multiCapture || b.multiCaptureSequence <= b.multiCapturePaymentCount
			},
		},
		{
			Code:   domain.ErrCodeInvalidMultiCapture,
			Reason: "multi-capture applies to authorize and capture only",
			Check: func(b *TransactionBuilder) bool {
				return !b.multiCapture ||
					b.transactionType == domain.TypeCapture ||
					b.transactionType == domain.TypeAuthorize
			},
		},
		{
			Code:   domain.ErrCodeUnexpectedField,
			Field:  "entryClass",
			Reason: "only valid on a check refund",
			Check:  func(b *TransactionBuilder) bool { return b.entryClass == "" || isCheckRefund(b) },
		},
		{
			Code:   domain.ErrCodeUnexpectedField,
			Field:  "paymentPurposeCode",
			Reason: "only valid on a check refund",
			Check:  func(b *TransactionBuilder) bool { return b.paymentPurposeCode == "" || isCheckRefund(b) },
		},
	}
}

func hasTransactionReference(b *TransactionBuilder) bool {
	ref, ok := b.paymentMethod.(*domain.TransactionReference)
	return ok && ref.TransactionID != ""
}

func isCheckRefund(b *TransactionBuilder) bool {
	_, ok := b.paymentMethod.(*domain.ECheck)
	return ok && b.transactionType == domain.TypeRefund
}
