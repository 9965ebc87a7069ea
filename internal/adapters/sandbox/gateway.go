// Package sandbox is an in-memory gateway that answers like a hosted card API.
// It keeps every transaction it approved so follow-ups can be checked against
// the original amount and state.
package sandbox

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/normalize"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultName = "sandbox"

// Gateway response vocabulary.
const (
	statusInitiated     = "INITIATED"
	statusPreauthorized = "PREAUTHORIZED"
	statusCaptured      = "CAPTURED"
	statusReversed      = "REVERSED"
	statusDeclined      = "DECLINED"
	statusPending       = "PENDING"

	codeSuccess  = "SUCCESS"
	codeDeclined = "DECLINED"
)

// Cards and amounts that force a non-approved outcome.
var (
	DeclinedCards = []string{"4000000000000002", "4000000000009995"}
	PendingAmount = decimal.RequireFromString("1.11")
)

type record struct {
	id       string
	txType   domain.TransactionType
	status   string
	amount   decimal.Decimal
	captured decimal.Decimal
	refunded decimal.Decimal
	currency string
	captures int
	// parent is the authorization a capture settled.
	parent *record
}

func (r *record) remaining() decimal.Decimal {
	return r.amount.Sub(r.captured)
}

// refundable is what is left to refund. A capture also draws on the balance of
// its authorization, so money refunded through either id counts once.
func (r *record) refundable() decimal.Decimal {
	left := r.captured.Sub(r.refunded)
	if r.parent != nil {
		left = decimal.Min(left, r.parent.refundable())
	}
	return left
}

// Gateway implements ports.Connector.
type Gateway struct {
	name    string
	latency time.Duration
	newID   func() string

	mu      sync.Mutex
	records map[string]*record
	links   map[string]domain.PayLinkData
}

type Option func(*Gateway)

// WithLatency delays every response, honoring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(g *Gateway) { g.latency = d }
}

func WithIDGenerator(fn func() string) Option {
	return func(g *Gateway) { g.newID = fn }
}

func New(name string, opts ...Option) *Gateway {
	if name == "" {
		name = DefaultName
	}
	g := &Gateway{
		name:    name,
		newID:   func() string { return "TRN_" + strings.ReplaceAll(uuid.NewString(), "-", "") },
		records: make(map[string]*record),
		links:   make(map[string]domain.PayLinkData),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Name() string { return g.name }

var (
	allTypes = []domain.TransactionType{
		domain.TypeSale, domain.TypeAuthorize, domain.TypeCapture,
		domain.TypeRefund, domain.TypeReverse, domain.TypeVoid,
	}
	instruments = []domain.PaymentMethodKind{
		domain.KindCard, domain.KindTokenizedCard, domain.KindStoredCredential, domain.KindECheck,
	}
)

func (g *Gateway) Capabilities() ports.CapabilitySet {
	return ports.CapabilitySet{
		{
			Types:     []domain.TransactionType{domain.TypeSale, domain.TypeAuthorize, domain.TypeRefund},
			Modifiers: []domain.TransactionModifier{domain.ModifierNone},
			Methods:   instruments,
			Hints:     []ports.Hint{ports.HintPayByLink, ports.HintMultiCapture},
		},
		{
			Types:     []domain.TransactionType{domain.TypeSale, domain.TypeAuthorize},
			Modifiers: []domain.TransactionModifier{domain.ModifierEncryptedMobile, domain.ModifierDecryptedMobile},
			Methods:   []domain.PaymentMethodKind{domain.KindMobileWallet},
			Hints:     []ports.Hint{ports.HintMultiCapture},
		},
		{
			Types:     []domain.TransactionType{domain.TypeSale},
			Modifiers: []domain.TransactionModifier{domain.ModifierPayByLink},
			Methods:   []domain.PaymentMethodKind{domain.KindNone},
			Hints:     []ports.Hint{ports.HintPayByLink},
		},
		{
			Types:     allTypes,
			Modifiers: []domain.TransactionModifier{domain.ModifierNone},
			Methods:   []domain.PaymentMethodKind{domain.KindTransactionReference},
			Hints:     []ports.Hint{ports.HintMultiCapture},
		},
	}
}

// StatusTable is the vocabulary the sandbox answers with.
func (g *Gateway) StatusTable() normalize.StatusTable {
	return normalize.DefaultTable
}

func (g *Gateway) Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch req.TransactionType {
	case domain.TypeSale, domain.TypeAuthorize:
		if req.Modifier == domain.ModifierPayByLink {
			return g.createLink(req)
		}
		return g.charge(req)
	case domain.TypeCapture:
		return g.capture(req)
	case domain.TypeRefund:
		if req.PaymentMethodKind == domain.KindTransactionReference {
			return g.refundReference(req)
		}
		return g.charge(req)
	case domain.TypeReverse, domain.TypeVoid:
		return g.reverse(req)
	default:
		return nil, g.reject("UNSUPPORTED_TRANSACTION_TYPE", fmt.Sprintf("unsupported type %s", req.TransactionType))
	}
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return domain.ClassifyTransportFailure(g.name, err)
		}
		return nil
	}

	timer := time.NewTimer(g.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.ClassifyTransportFailure(g.name, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (g *Gateway) charge(req domain.NormalizedRequest) (*domain.RawResponse, error) {
	amount := decimal.Zero
	if req.Amount != nil {
		amount = *req.Amount
	}

	if req.PaymentLinkID != "" {
		if _, ok := g.links[req.PaymentLinkID]; !ok {
			return nil, g.reject("RESOURCE_NOT_FOUND", fmt.Sprintf("payment link %s not found", req.PaymentLinkID))
		}
	}

	rec := &record{
		id:       g.newID(),
		txType:   req.TransactionType,
		amount:   amount,
		currency: req.Currency,
	}

	switch {
	case isDeclinedCard(req.PaymentMethod):
		rec.status = statusDeclined
	case amount.Equal(PendingAmount):
		rec.status = statusPending
	case req.TransactionType == domain.TypeAuthorize:
		rec.status = statusPreauthorized
	default:
		rec.status = statusCaptured
		rec.captured = amount
	}

	g.records[rec.id] = rec
	return g.response(rec, rec.status, ""), nil
}

func (g *Gateway) createLink(req domain.NormalizedRequest) (*domain.RawResponse, error) {
	id := "LNK_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if req.PayLinkData != nil {
		g.links[id] = *req.PayLinkData
	}
	return &domain.RawResponse{
		Status:          statusInitiated,
		ResponseCode:    codeSuccess,
		ResponseMessage: statusInitiated,
		TransactionID:   id,
		ReferenceNumber: id,
		Amount:          req.Amount,
		Currency:        req.Currency,
	}, nil
}

func (g *Gateway) capture(req domain.NormalizedRequest) (*domain.RawResponse, error) {
	auth, err := g.lookup(req.ParentTransactionID)
	if err != nil {
		return nil, err
	}
	if auth.status != statusPreauthorized {
		return nil, g.reject("INVALID_REQUEST_DATA", fmt.Sprintf("transaction %s is %s", auth.id, auth.status))
	}

	amount := auth.remaining()
	if req.Amount != nil {
		amount = *req.Amount
	}
	if !amount.IsPositive() {
		return nil, g.reject("INVALID_REQUEST_DATA", "capture amount must be greater than zero")
	}
	if amount.GreaterThan(auth.remaining()) {
		return nil, g.reject("INVALID_REQUEST_DATA", "capture amount exceeds the authorized amount")
	}

	if req.MultiCapture {
		if req.MultiCaptureSequence != auth.captures+1 {
			return nil, g.reject("INVALID_REQUEST_DATA",
				fmt.Sprintf("expected capture sequence %d, got %d", auth.captures+1, req.MultiCaptureSequence))
		}
	}

	auth.captures++
	auth.captured = auth.captured.Add(amount)
	if !req.MultiCapture || req.MultiCaptureSequence == req.MultiCapturePaymentCount || auth.remaining().IsZero() {
		auth.status = statusCaptured
	}

	rec := &record{
		id:       g.newID(),
		txType:   domain.TypeCapture,
		status:   statusCaptured,
		amount:   amount,
		captured: amount,
		currency: auth.currency,
		parent:   auth,
	}
	g.records[rec.id] = rec
	return g.response(rec, statusCaptured, auth.id), nil
}

// refundReference answers with CAPTURED for an accepted refund, the status a
// settled credit carries on this gateway.
func (g *Gateway) refundReference(req domain.NormalizedRequest) (*domain.RawResponse, error) {
	orig, err := g.lookup(req.ParentTransactionID)
	if err != nil {
		return nil, err
	}
	if orig.status != statusCaptured && !(orig.status == statusPreauthorized && orig.captured.IsPositive()) {
		return nil, g.reject("INVALID_REQUEST_DATA", fmt.Sprintf("transaction %s is %s", orig.id, orig.status))
	}

	if orig.parent != nil && orig.parent.status == statusReversed {
		return nil, g.reject("INVALID_REQUEST_DATA", fmt.Sprintf("authorization %s is %s", orig.parent.id, statusReversed))
	}

	refundable := orig.refundable()
	if !refundable.IsPositive() {
		return nil, g.reject("INVALID_REQUEST_DATA", fmt.Sprintf("transaction %s has nothing left to refund", orig.id))
	}
	amount := refundable
	if req.Amount != nil {
		amount = *req.Amount
	}
	if !amount.IsPositive() {
		return nil, g.reject("INVALID_REQUEST_DATA", "refund amount must be greater than zero")
	}
	if amount.GreaterThan(refundable) {
		return nil, g.reject("INVALID_REQUEST_DATA", "refund amount exceeds the captured amount")
	}
	for r := orig; r != nil; r = r.parent {
		r.refunded = r.refunded.Add(amount)
	}

	rec := &record{
		id:       g.newID(),
		txType:   domain.TypeRefund,
		status:   statusCaptured,
		amount:   amount,
		currency: orig.currency,
	}
	g.records[rec.id] = rec
	return g.response(rec, statusCaptured, orig.id), nil
}

func (g *Gateway) reverse(req domain.NormalizedRequest) (*domain.RawResponse, error) {
	orig, err := g.lookup(req.ParentTransactionID)
	if err != nil {
		return nil, err
	}
	if orig.status != statusPreauthorized && orig.status != statusCaptured {
		return nil, g.reject("INVALID_REQUEST_DATA", fmt.Sprintf("transaction %s is %s", orig.id, orig.status))
	}
	orig.status = statusReversed

	rec := &record{
		id:       g.newID(),
		txType:   req.TransactionType,
		status:   statusReversed,
		amount:   orig.amount,
		currency: orig.currency,
	}
	g.records[rec.id] = rec
	return g.response(rec, statusReversed, orig.id), nil
}

func (g *Gateway) lookup(id string) (*record, error) {
	rec, ok := g.records[id]
	if !ok {
		return nil, g.reject("RESOURCE_NOT_FOUND", fmt.Sprintf("transaction %s not found", id))
	}
	return rec, nil
}

func (g *Gateway) response(rec *record, status, parentID string) *domain.RawResponse {
	resp := &domain.RawResponse{
		Status:              status,
		ResponseCode:        codeSuccess,
		ResponseMessage:     status,
		TransactionID:       rec.id,
		ParentTransactionID: parentID,
		Currency:            rec.currency,
	}
	if status == statusDeclined {
		resp.ResponseCode = codeDeclined
	} else {
		resp.AuthorizationCode = authCode(rec.id)
	}
	amount := rec.amount
	resp.Amount = &amount
	return resp
}

func (g *Gateway) reject(code, message string) *domain.TransportError {
	return &domain.TransportError{
		Kind:       domain.TransportRejected,
		Gateway:    g.name,
		Code:       code,
		Message:    message,
		StatusCode: 400,
	}
}

// Status reports the gateway side state of a transaction, for inspection in tests
// and the CLI.
func (g *Gateway) Status(id string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[id]
	if !ok {
		return "", false
	}
	return rec.status, true
}

func isDeclinedCard(pm domain.PaymentMethod) bool {
	card, ok := pm.(*domain.CreditCardData)
	return ok && slices.Contains(DeclinedCards, card.Number)
}

func authCode(id string) string {
	code := strings.ToUpper(strings.TrimPrefix(id, "TRN_"))
	if len(code) > 6 {
		code = code[:6]
	}
	return code
}
