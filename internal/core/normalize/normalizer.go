// Package normalize turns connector responses into canonical statuses.
package normalize

import (
	"slices"
	"strings"
	"sync"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StatusTable is the status vocabulary of one gateway. Codes listed in
// Approvals mean "approved" and resolve to the status the transaction type implies.
type StatusTable struct {
	Statuses  map[string]domain.TransactionStatus
	Approvals []string
}

// DefaultTable covers gateways that already speak canonical status names.
var DefaultTable = StatusTable{
	Statuses: map[string]domain.TransactionStatus{
		"INITIATED":     domain.StatusInitiated,
		"PREAUTHORIZED": domain.StatusPreauthorized,
		"CAPTURED":      domain.StatusCaptured,
		"REVERSED":      domain.StatusReversed,
		"DECLINED":      domain.StatusDeclined,
		"PENDING":       domain.StatusPending,
		"REFUNDED":      domain.StatusRefunded,
	},
}

// Outcome is a normalized response, ready to become a Transaction.
type Outcome struct {
	Status              domain.TransactionStatus
	TransactionID       string
	AuthorizationCode   string
	ResponseCode        string
	ResponseMessage     string
	ReferenceNumber     string
	ParentTransactionID string
	Amount              *decimal.Decimal
	Currency            string
}

// Normalizer holds one status table per gateway name.
type Normalizer struct {
	mu     sync.RWMutex
	tables map[string]StatusTable
}

func NewNormalizer() *Normalizer {
	return &Normalizer{tables: make(map[string]StatusTable)}
}

// Register sets the table for a gateway, replacing any previous one.
func (n *Normalizer) Register(gateway string, table StatusTable) *Normalizer {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tables[gateway] = table
	return n
}

// Normalize never fails: unrecognized or missing statuses become StatusUnknown
// and the raw code and message are preserved for diagnostics.
func (n *Normalizer) Normalize(gateway string, txType domain.TransactionType, raw *domain.RawResponse) Outcome {
	if raw == nil {
		return Outcome{Status: domain.StatusUnknown}
	}

	return Outcome{
		Status:              n.classify(gateway, txType, raw),
		TransactionID:       raw.TransactionID,
		AuthorizationCode:   raw.AuthorizationCode,
		ResponseCode:        raw.ResponseCode,
		ResponseMessage:     raw.ResponseMessage,
		ReferenceNumber:     raw.ReferenceNumber,
		ParentTransactionID: raw.ParentTransactionID,
		Amount:              raw.Amount,
		Currency:            raw.Currency,
	}
}

func (n *Normalizer) classify(gateway string, txType domain.TransactionType, raw *domain.RawResponse) domain.TransactionStatus {
	n.mu.RLock()
	table, ok := n.tables[gateway]
	n.mu.RUnlock()
	if !ok {
		table = DefaultTable
	}

	for _, code := range []string{raw.Status, raw.ResponseCode} {
		if status, ok := table.lookup(code, txType); ok {
			return status
		}
	}
	return domain.StatusUnknown
}

func (t StatusTable) lookup(code string, txType domain.TransactionType) (domain.TransactionStatus, bool) {
	key := strings.ToUpper(strings.TrimSpace(code))
	if key == "" {
		return "", false
	}
	if slices.ContainsFunc(t.Approvals, func(a string) bool { return strings.EqualFold(a, key) }) {
		return domain.ApprovedStatus(txType), true
	}
	for k, status := range t.Statuses {
		if strings.EqualFold(k, key) {
			return status, true
		}
	}
	return "", false
}
