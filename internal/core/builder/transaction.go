package builder

import (
	"time"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/normalize"
	"github.com/shopspring/decimal"
)

// Transaction is the immutable result of an execution. Follow-up operations are
// started from it and inherit its identity and gateway.
type Transaction struct {
	client *Client

	id                  string
	gateway             string
	txType              domain.TransactionType
	status              domain.TransactionStatus
	amount              *decimal.Decimal
	currency            string
	authorizationCode   string
	responseCode        string
	responseMessage     string
	referenceNumber     string
	parentTransactionID string
	clientTransactionID string
	processedAt         time.Time

	// detached transactions were rebuilt from an id alone; their status is not
	// known locally so the gateway is left to enforce the lifecycle.
	detached bool
}

func newTransaction(b *TransactionBuilder, gateway string, o normalize.Outcome) *Transaction {
	tx := &Transaction{
		client:              b.client,
		id:                  o.TransactionID,
		gateway:             gateway,
		txType:              b.transactionType,
		status:              o.Status,
		amount:              b.amount,
		currency:            b.currency,
		authorizationCode:   o.AuthorizationCode,
		responseCode:        o.ResponseCode,
		responseMessage:     o.ResponseMessage,
		referenceNumber:     o.ReferenceNumber,
		parentTransactionID: o.ParentTransactionID,
		clientTransactionID: b.clientTransactionID,
		processedAt:         b.client.now(),
	}
	if o.Amount != nil {
		tx.amount = o.Amount
	}
	if o.Currency != "" {
		tx.currency = o.Currency
	}
	if tx.parentTransactionID == "" {
		tx.parentTransactionID = b.parentTransactionID
	}
	return tx
}

func (t *Transaction) ID() string { return t.id }
func (t *Transaction) Gateway() string { return t.gateway }
func (t *Transaction) Type() domain.TransactionType { return t.txType }
func (t *Transaction) Status() domain.TransactionStatus { return t.status }
func (t *Transaction) Currency() string { return t.currency }
func (t *Transaction) AuthorizationCode() string { return t.authorizationCode }
func (t *Transaction) ResponseCode() string { return t.responseCode }
func (t *Transaction) ResponseMessage() string { return t.responseMessage }
func (t *Transaction) ReferenceNumber() string { return t.referenceNumber }
func (t *Transaction) ParentTransactionID() string { return t.parentTransactionID }
func (t *Transaction) ClientTransactionID() string { return t.clientTransactionID }
func (t *Transaction) ProcessedAt() time.Time { return t.processedAt }

// Amount returns nil when neither the request nor the gateway carried one.
func (t *Transaction) Amount() *decimal.Decimal {
	if t.amount == nil {
		return nil
	}
	a := *t.amount
	return &a
}

// AllowedActions lists the follow-ups that can be chained from this result.
func (t *Transaction) AllowedActions() []domain.Action {
	if t.detached {
		return []domain.Action{domain.ActionCapture, domain.ActionRefund, domain.ActionReverse}
	}
	return domain.AllowedActions(t.status)
}

// Capture starts a capture of a preauthorized transaction. Without WithAmount
// the full authorized amount is captured.
func (t *Transaction) Capture() *TransactionBuilder {
	return t.followUp(domain.ActionCapture, domain.TypeCapture)
}

// Refund starts a refund of a captured transaction.
func (t *Transaction) Refund() *TransactionBuilder {
	return t.followUp(domain.ActionRefund, domain.TypeRefund)
}

// Reverse starts a reversal of a preauthorized or captured transaction.
func (t *Transaction) Reverse() *TransactionBuilder {
	return t.followUp(domain.ActionReverse, domain.TypeReverse)
}

// Void is a reversal sent before settlement.
func (t *Transaction) Void() *TransactionBuilder {
	return t.followUp(domain.ActionReverse, domain.TypeVoid)
}

func (t *Transaction) followUp(action domain.Action, txType domain.TransactionType) *TransactionBuilder {
	ref := &domain.TransactionReference{
		TransactionID: t.id,
		Gateway:       t.gateway,
		OriginalType:  t.txType,
	}
	b := newTransactionBuilder(t.client, txType, ref)
	b.currency = t.currency
	b.gateway = t.gateway
	b.parentTransactionID = t.id

	if !t.detached && !domain.Allows(t.status, action) {
		b.fail(domain.NewInvalidTransitionError(string(t.status), string(action)))
	}
	return b
}
