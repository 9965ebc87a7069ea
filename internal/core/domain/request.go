package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayLinkData describes a hosted payment link.
type PayLinkData struct {
	Type           string     `json:"type" validate:"required,oneof=PAYMENT HOSTED_PAYMENT_PAGE"`
	UsageMode      string     `json:"usageMode" validate:"required,oneof=SINGLE MULTIPLE"`
	UsageLimit     int        `json:"usageLimit" validate:"gte=0"`
	Name           string     `json:"name" validate:"required"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	IsShippable    bool       `json:"isShippable"`
	ReturnURL      string     `json:"returnUrl,omitempty" validate:"omitempty,url"`
	StatusURL      string     `json:"statusUrl,omitempty" validate:"omitempty,url"`
}

// NormalizedRequest is the gateway agnostic request handed to a connector.
// JSON names are the canonical field names connectors map from.
type NormalizedRequest struct {
	TransactionType          TransactionType     `json:"transactionType"`
	Modifier                 TransactionModifier `json:"modifier"`
	Amount                   *decimal.Decimal    `json:"amount,omitempty"`
	Currency                 string              `json:"currency,omitempty"`
	PaymentMethodKind        PaymentMethodKind   `json:"paymentMethodKind"`
	PaymentMethodRef         string              `json:"paymentMethodRef,omitempty"`
	ParentTransactionID      string              `json:"parentTransactionId,omitempty"`
	ClientTransactionID      string              `json:"clientTransactionId,omitempty"`
	Description              string              `json:"description,omitempty"`
	AllowDuplicates          bool                `json:"allowDuplicates"`
	SupplementaryData        map[string]string   `json:"supplementaryData,omitempty"`
	MultiCapture             bool                `json:"multiCapture"`
	MultiCaptureSequence     int                 `json:"multiCaptureSequence,omitempty"`
	MultiCapturePaymentCount int                 `json:"multiCapturePaymentCount,omitempty"`
	PayLinkData              *PayLinkData        `json:"payLinkData,omitempty"`
	PaymentLinkID            string              `json:"paymentLinkId,omitempty"`
	EntryClass               string              `json:"entryClass,omitempty"`
	PaymentPurposeCode       string              `json:"paymentPurposeCode,omitempty"`
	TransactionData          string              `json:"transactionData,omitempty"`

	// PaymentMethod gives connectors access to instrument details. It is never
	// serialized as part of the canonical field set.
	PaymentMethod PaymentMethod `json:"-"`
}

// RawResponse is what a connector got back, before normalization. Every field
// is optional.
type RawResponse struct {
	Status              string
	ResponseCode        string
	ResponseMessage     string
	TransactionID       string
	AuthorizationCode   string
	ReferenceNumber     string
	ParentTransactionID string
	Amount              *decimal.Decimal
	Currency            string
}
