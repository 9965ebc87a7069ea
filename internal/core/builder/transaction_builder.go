// Package builder assembles payment transactions with a fluent API, validates
// them against declarative rules and executes them through the connector the
// dispatch resolver selects.
package builder

import (
	"context"
	"maps"
	"strings"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionBuilder accumulates the configuration of one transaction. Setters
// return the builder so calls chain. Problems detected while chaining are held
// and returned by Execute.
type TransactionBuilder struct {
	client *Client
	err    error

	transactionType     domain.TransactionType
	transactionModifier domain.TransactionModifier
	paymentMethod       domain.PaymentMethod
	amount              *decimal.Decimal
	currency            string
	description         string
	clientTransactionID string
	gateway             string
	parentTransactionID string
	allowDuplicates     bool
	supplementaryData   map[string]string

	multiCapture             bool
	multiCaptureSequence     int
	multiCapturePaymentCount int

	payLinkData   *domain.PayLinkData
	paymentLinkID string

	entryClass         string
	paymentPurposeCode string
	transactionData    string

	walletData *walletData
}

// walletData is the decrypted wallet payload waiting for a *domain.MobileWallet.
type walletData struct {
	cryptogram string
	eci        string
}

func newTransactionBuilder(c *Client, t domain.TransactionType, pm domain.PaymentMethod) *TransactionBuilder {
	return &TransactionBuilder{
		client:              c,
		transactionType:     t,
		transactionModifier: domain.ModifierNone,
		paymentMethod:       pm,
	}
}

// fail records the first deferred error; later ones are dropped.
func (b *TransactionBuilder) fail(err error) *TransactionBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *TransactionBuilder) WithTransactionType(t domain.TransactionType) *TransactionBuilder {
	b.transactionType = t
	return b
}

// WithModifier replaces the active modifier.
func (b *TransactionBuilder) WithModifier(m domain.TransactionModifier) *TransactionBuilder {
	b.transactionModifier = m
	return b
}

func (b *TransactionBuilder) WithPaymentMethod(pm domain.PaymentMethod) *TransactionBuilder {
	b.paymentMethod = pm
	b.applyWalletData()
	return b
}

func (b *TransactionBuilder) WithAmount(amount decimal.Decimal) *TransactionBuilder {
	b.amount = &amount
	return b
}

// WithCurrency accepts an ISO 4217 alphabetic code in any case.
func (b *TransactionBuilder) WithCurrency(currency string) *TransactionBuilder {
	c, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return b.fail(domain.NewInvalidFieldError("currency", err))
	}
	b.currency = c
	return b
}

func (b *TransactionBuilder) WithDescription(description string) *TransactionBuilder {
	b.description = description
	return b
}

// WithClientTransactionID sets the merchant reference. Connectors that support
// idempotent submission use it as the idempotency key.
func (b *TransactionBuilder) WithClientTransactionID(id string) *TransactionBuilder {
	b.clientTransactionID = id
	return b
}

// WithGateway pins dispatch to the named connector.
func (b *TransactionBuilder) WithGateway(name string) *TransactionBuilder {
	b.gateway = name
	return b
}

func (b *TransactionBuilder) WithAllowDuplicates(allow bool) *TransactionBuilder {
	b.allowDuplicates = allow
	return b
}

// WithSupplementaryData adds one key/value pair. An empty key or value is ignored.
func (b *TransactionBuilder) WithSupplementaryData(key, value string) *TransactionBuilder {
	if strings.TrimSpace(key) == "" || value == "" {
		return b
	}
	if b.supplementaryData == nil {
		b.supplementaryData = make(map[string]string)
	}
	b.supplementaryData[key] = value
	return b
}

func (b *TransactionBuilder) WithSupplementaryDataMap(data map[string]string) *TransactionBuilder {
	for k, v := range data {
		b.WithSupplementaryData(k, v)
	}
	return b
}

// WithMultiCapture marks the request as capture number sequence of count.
func (b *TransactionBuilder) WithMultiCapture(sequence, count int) *TransactionBuilder {
	b.multiCapture = true
	b.multiCaptureSequence = sequence
	b.multiCapturePaymentCount = count
	return b
}

// WithPayLinkData supplies link details and switches the modifier to PayByLink
// unless the builder pays through an existing link.
func (b *TransactionBuilder) WithPayLinkData(data domain.PayLinkData) *TransactionBuilder {
	b.payLinkData = &data
	if b.paymentLinkID == "" {
		b.transactionModifier = domain.ModifierPayByLink
	}
	return b
}

func (b *TransactionBuilder) WithPaymentLinkID(id string) *TransactionBuilder {
	b.paymentLinkID = id
	return b
}

func (b *TransactionBuilder) WithEntryClass(entryClass string) *TransactionBuilder {
	b.entryClass = entryClass
	return b
}

func (b *TransactionBuilder) WithPaymentPurposeCode(code string) *TransactionBuilder {
	b.paymentPurposeCode = code
	return b
}

// WithTransactionData attaches an opaque gateway specific payload.
func (b *TransactionBuilder) WithTransactionData(data string) *TransactionBuilder {
	b.transactionData = data
	return b
}

// WithMobileWalletData sets the cryptogram and ECI of a decrypted wallet
// payload and switches the modifier to DecryptedMobile. The data is attached to
// the mobile wallet payment method whether it is set before or after this call;
// any other payment method fails validation for the modifier.
func (b *TransactionBuilder) WithMobileWalletData(cryptogram, eci string) *TransactionBuilder {
	b.walletData = &walletData{cryptogram: cryptogram, eci: eci}
	b.transactionModifier = domain.ModifierDecryptedMobile
	b.applyWalletData()
	return b
}

// applyWalletData copies the wallet so the caller's payment method is never mutated.
func (b *TransactionBuilder) applyWalletData() {
	w, ok := b.paymentMethod.(*domain.MobileWallet)
	if !ok || b.walletData == nil {
		return
	}
	updated := *w
	updated.Cryptogram = b.walletData.cryptogram
	updated.Eci = b.walletData.eci
	b.paymentMethod = &updated
}

func (b *TransactionBuilder) TransactionType() domain.TransactionType { return b.transactionType }

func (b *TransactionBuilder) Modifier() domain.TransactionModifier { return b.transactionModifier }

func (b *TransactionBuilder) PaymentMethod() domain.PaymentMethod { return b.paymentMethod }

// Amount returns nil when no amount has been set.
func (b *TransactionBuilder) Amount() *decimal.Decimal { return b.amount }

func (b *TransactionBuilder) Currency() string { return b.currency }

func (b *TransactionBuilder) Gateway() string { return b.gateway }

func (b *TransactionBuilder) SupplementaryData() map[string]string {
	return maps.Clone(b.supplementaryData)
}

func (b *TransactionBuilder) MultiCapture() (enabled bool, sequence, count int) {
	return b.multiCapture, b.multiCaptureSequence, b.multiCapturePaymentCount
}

func (b *TransactionBuilder) PayLinkData() *domain.PayLinkData { return b.payLinkData }

func (b *TransactionBuilder) PaymentLinkID() string { return b.paymentLinkID }

func (b *TransactionBuilder) EntryClass() string { return b.entryClass }

func (b *TransactionBuilder) PaymentPurposeCode() string { return b.paymentPurposeCode }

// Err returns the deferred error recorded while chaining, if any.
func (b *TransactionBuilder) Err() error { return b.err }

// Validate runs the client's rules without dispatching.
func (b *TransactionBuilder) Validate() error {
	if b.err != nil {
		return b.err
	}
	return b.client.validations.Validate(b)
}

// Request returns the canonical request the builder would hand to a connector.
func (b *TransactionBuilder) Request() domain.NormalizedRequest {
	req := domain.NormalizedRequest{
		TransactionType:          b.transactionType,
		Modifier:                 b.transactionModifier,
		Currency:                 b.currency,
		PaymentMethodKind:        domain.KindOf(b.paymentMethod),
		ParentTransactionID:      b.parentTransactionID,
		ClientTransactionID:      b.clientTransactionID,
		Description:              b.description,
		AllowDuplicates:          b.allowDuplicates,
		SupplementaryData:        maps.Clone(b.supplementaryData),
		MultiCapture:             b.multiCapture,
		MultiCaptureSequence:     b.multiCaptureSequence,
		MultiCapturePaymentCount: b.multiCapturePaymentCount,
		PaymentLinkID:            b.paymentLinkID,
		EntryClass:               b.entryClass,
		PaymentPurposeCode:       b.paymentPurposeCode,
		TransactionData:          b.transactionData,
		PaymentMethod:            b.paymentMethod,
	}
	if b.amount != nil {
		amount := *b.amount
		req.Amount = &amount
	}
	if b.payLinkData != nil {
		data := *b.payLinkData
		req.PayLinkData = &data
	}
	if b.paymentMethod != nil {
		req.PaymentMethodRef = b.paymentMethod.Reference()
	}
	if ref, ok := b.paymentMethod.(*domain.TransactionReference); ok && req.ParentTransactionID == "" {
		req.ParentTransactionID = ref.TransactionID
	}
	return req
}

// Execute validates the builder, dispatches it and returns the normalized
// result. Nothing reaches a connector unless every rule passes.
func (b *TransactionBuilder) Execute(ctx context.Context) (*Transaction, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	req := b.Request()
	conn, err := b.client.resolver.Resolve(req, b.gateway)
	if err != nil {
		return nil, err
	}

	raw, err := conn.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	outcome := b.client.normalizer.Normalize(conn.Name(), b.transactionType, raw)
	return newTransaction(b, conn.Name(), outcome), nil
}

// Result carries the outcome of an asynchronous execution.
type Result struct {
	Transaction *Transaction
	Err         error
}

// ExecuteAsync runs Execute in its own goroutine. The channel receives exactly
// one Result and is then closed.
func (b *TransactionBuilder) ExecuteAsync(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		tx, err := b.Execute(ctx)
		out <- Result{Transaction: tx, Err: err}
	}()
	return out
}
