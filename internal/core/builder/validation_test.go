package builder

import (
	"errors"
	"testing"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	c := newMockClient()
	ten := decimal.NewFromInt(10)
	wallet := func() *domain.MobileWallet {
		return &domain.MobileWallet{Token: "5425230000004415", MobileType: domain.MobileGooglePay}
	}
	ref := &domain.TransactionReference{TransactionID: "TRN_1"}

	tests := []struct {
		name  string
		build func() *TransactionBuilder
		code  string
		field string
	}{
		{
			name:  "sale without payment method",
			build: func() *TransactionBuilder { return c.Charge(nil, ten).WithCurrency("USD") },
			code:  domain.ErrCodeMissingField,
			field: "paymentMethod",
		},
		{
			name:  "capture without reference",
			build: func() *TransactionBuilder { return c.NewTransaction(domain.TypeCapture, testCard()) },
			code:  domain.ErrCodeMissingField,
			field: "transactionId",
		},
		{
			name:  "refund without payment method",
			build: func() *TransactionBuilder { return c.Refund(nil, ten).WithCurrency("USD") },
			code:  domain.ErrCodeMissingField,
			field: "paymentMethod",
		},
		{
			name:  "sale without amount",
			build: func() *TransactionBuilder { return c.NewTransaction(domain.TypeSale, testCard()).WithCurrency("USD") },
			code:  domain.ErrCodeMissingField,
			field: "amount",
		},
		{
			name:  "sale with zero amount",
			build: func() *TransactionBuilder { return c.Charge(testCard(), decimal.Zero).WithCurrency("USD") },
			code:  domain.ErrCodeInvalidField,
			field: "amount",
		},
		{
			name:  "standalone refund without amount",
			build: func() *TransactionBuilder { return c.NewTransaction(domain.TypeRefund, testCard()).WithCurrency("USD") },
			code:  domain.ErrCodeMissingField,
			field: "amount",
		},
		{
			name:  "standalone refund without currency",
			build: func() *TransactionBuilder { return c.Refund(testCard(), ten) },
			code:  domain.ErrCodeMissingField,
			field: "currency",
		},
		{
			name:  "standalone refund with zero amount",
			build: func() *TransactionBuilder { return c.Refund(testCard(), decimal.Zero).WithCurrency("USD") },
			code:  domain.ErrCodeInvalidField,
			field: "amount",
		},
		{
			name: "linked refund with negative amount",
			build: func() *TransactionBuilder {
				return c.NewTransaction(domain.TypeRefund, ref).WithAmount(decimal.NewFromInt(-50))
			},
			code:  domain.ErrCodeInvalidField,
			field: "amount",
		},
		{
			name: "capture with zero amount",
			build: func() *TransactionBuilder {
				return c.NewTransaction(domain.TypeCapture, ref).WithAmount(decimal.Zero)
			},
			code:  domain.ErrCodeInvalidField,
			field: "amount",
		},
		{
			name:  "malformed currency",
			build: func() *TransactionBuilder { return c.Charge(testCard(), ten).WithCurrency("EU") },
			code:  domain.ErrCodeInvalidField,
			field: "currency",
		},
		{
			name:  "sale without currency",
			build: func() *TransactionBuilder { return c.Charge(testCard(), ten) },
			code:  domain.ErrCodeMissingField,
			field: "currency",
		},
		{
			name: "encrypted mobile on a refund",
			build: func() *TransactionBuilder {
				return c.Refund(wallet(), ten).WithCurrency("USD").WithModifier(domain.ModifierEncryptedMobile)
			},
			code: domain.ErrCodeInvalidModifierCombination,
		},
		{
			name: "pay by link on authorize",
			build: func() *TransactionBuilder {
				return c.NewTransaction(domain.TypeAuthorize, nil).WithAmount(ten).WithCurrency("USD").
					WithModifier(domain.ModifierPayByLink)
			},
			code: domain.ErrCodeInvalidModifierCombination,
		},
		{
			name: "encrypted mobile with a card",
			build: func() *TransactionBuilder {
				return c.Charge(testCard(), ten).WithCurrency("USD").WithModifier(domain.ModifierEncryptedMobile)
			},
			code: domain.ErrCodeInvalidModifierCombination,
		},
		{
			name: "encrypted mobile without token",
			build: func() *TransactionBuilder {
				return c.Charge(&domain.MobileWallet{MobileType: domain.MobileApplePay}, ten).WithCurrency("USD").
					WithModifier(domain.ModifierEncryptedMobile)
			},
			code:  domain.ErrCodeMissingField,
			field: "token",
		},
		{
			name: "encrypted mobile without wallet type",
			build: func() *TransactionBuilder {
				return c.Charge(&domain.MobileWallet{Token: "tok"}, ten).WithCurrency("USD").
					WithModifier(domain.ModifierEncryptedMobile)
			},
			code:  domain.ErrCodeMissingField,
			field: "mobileType",
		},
		{
			name: "decrypted mobile without cryptogram",
			build: func() *TransactionBuilder {
				return c.Charge(wallet(), ten).WithCurrency("USD").WithModifier(domain.ModifierDecryptedMobile)
			},
			code:  domain.ErrCodeMissingField,
			field: "cryptogram",
		},
		{
			name: "pay by link without link data",
			build: func() *TransactionBuilder {
				return c.NewTransaction(domain.TypeSale, nil).WithAmount(ten).WithCurrency("USD").
					WithModifier(domain.ModifierPayByLink)
			},
			code:  domain.ErrCodeMissingField,
			field: "payLinkData",
		},
		{
			name: "multi-capture sequence beyond count",
			build: func() *TransactionBuilder {
				return c.NewTransaction(domain.TypeCapture, ref).WithMultiCapture(3, 2)
			},
			code: domain.ErrCodeInvalidMultiCapture,
		},
		{
			name: "multi-capture zero sequence",
			build: func() *TransactionBuilder {
				return c.NewTransaction(domain.TypeCapture, ref).WithMultiCapture(0, 2)
			},
			code: domain.ErrCodeInvalidMultiCapture,
		},
		{
			name: "multi-capture on a sale",
			build: func() *TransactionBuilder {
				return c.Charge(testCard(), ten).WithCurrency("USD").WithMultiCapture(1, 2)
			},
			code: domain.ErrCodeInvalidMultiCapture,
		},
		{
			name: "entry class on a card sale",
			build: func() *TransactionBuilder {
				return c.Charge(testCard(), ten).WithCurrency("USD").WithEntryClass("PPD")
			},
			code:  domain.ErrCodeUnexpectedField,
			field: "entryClass",
		},
		{
			name: "purpose code on a card refund",
			build: func() *TransactionBuilder {
				return c.Refund(testCard(), ten).WithCurrency("USD").WithPaymentPurposeCode("150")
			},
			code:  domain.ErrCodeUnexpectedField,
			field: "paymentPurposeCode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			require.Error(t, err)
			assert.True(t, domain.IsErrorCode(err, tt.code), "got %v", err)

			var builderErr *domain.BuilderError
			require.True(t, errors.As(err, &builderErr))
			if tt.field != "" {
				assert.Equal(t, tt.field, builderErr.Field)
			}
		})
	}
}

func TestDefaultRules_ValidConfigurations(t *testing.T) {
	c := newMockClient()
	ten := decimal.NewFromInt(10)
	ref := &domain.TransactionReference{TransactionID: "TRN_1"}

	valid := map[string]*TransactionBuilder{
		"card sale": c.Charge(testCard(), ten).WithCurrency("USD"),
		"encrypted mobile sale": c.Charge(&domain.MobileWallet{Token: "tok", MobileType: domain.MobileApplePay}, ten).
			WithCurrency("EUR").WithModifier(domain.ModifierEncryptedMobile),
		"decrypted mobile authorize": c.Authorize(&domain.MobileWallet{Token: "tok"}, ten).
			WithCurrency("EUR").WithMobileWalletData("cryptogram", "05"),
		"multi-capture":  c.NewTransaction(domain.TypeCapture, ref).WithMultiCapture(2, 2),
		"full capture":   c.NewTransaction(domain.TypeCapture, ref),
		"check refund": c.Refund(&domain.ECheck{AccountNumber: "1234567890"}, ten).WithCurrency("USD").
			WithEntryClass("PPD").WithPaymentPurposeCode("150"),
		"linked partial refund": c.NewTransaction(domain.TypeRefund, ref).WithAmount(decimal.NewFromInt(5)),
		"wallet data before wallet": c.Authorize(nil, ten).WithCurrency("EUR").
			WithMobileWalletData("cryptogram", "05").
			WithPaymentMethod(&domain.MobileWallet{Token: "tok"}),
		"reference void": c.NewTransaction(domain.TypeVoid, ref),
		"pay by link": c.NewTransaction(domain.TypeSale, nil).WithAmount(ten).WithCurrency("GBP").
			WithPayLinkData(domain.PayLinkData{Type: "PAYMENT", UsageMode: "SINGLE", Name: "Order"}),
	}

	for name, b := range valid {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, b.Validate())
		})
	}
}

func TestValidations_FailFastInRegistrationOrder(t *testing.T) {
	var calls []string
	rule := func(name string, ok bool) Rule {
		return Rule{
			Code:   "CUSTOM",
			Reason: name,
			Check: func(*TransactionBuilder) bool {
				calls = append(calls, name)
				return ok
			},
		}
	}

	v := NewValidations(rule("first", true), rule("second", false), rule("third", false))
	c := NewClient(nil, nil, WithValidations(v))

	err := c.Charge(testCard(), decimal.NewFromInt(1)).Validate()
	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, "CUSTOM"))
	assert.Contains(t, err.Error(), "second")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestValidations_TargetsScopeRules(t *testing.T) {
	v := NewValidations(Rule{
		Target: Target{
			Types:     []domain.TransactionType{domain.TypeRefund},
			Modifiers: []domain.TransactionModifier{domain.ModifierNone},
		},
		Code:  domain.ErrCodeMissingField,
		Field: "description",
		Check: func(b *TransactionBuilder) bool { return b.description != "" },
	})
	c := NewClient(nil, nil, WithValidations(v))

	assert.NoError(t, c.Charge(testCard(), decimal.NewFromInt(1)).Validate())
	assert.Error(t, c.Refund(testCard(), decimal.NewFromInt(1)).Validate())
	assert.NoError(t, c.Refund(testCard(), decimal.NewFromInt(1)).WithDescription("damaged").Validate())
}

func TestValidations_RegisterExtendsDefaults(t *testing.T) {
	c := newMockClient()
	before := c.Validations().Len()

	c.Validations().Register(Rule{
		Code:   domain.ErrCodeMissingField,
		Field:  "clientTransactionId",
		Check:  func(b *TransactionBuilder) bool { return b.clientTransactionID != "" },
		Reason: "merchant reference required",
	})

	assert.Equal(t, before+1, c.Validations().Len())
	err := c.Charge(testCard(), decimal.NewFromInt(1)).WithCurrency("USD").Validate()
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingField))
}
