package ports

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/DanielPopoola/paykit/internal/core/domain"
)

// Connector defines the behavior of a remote payment gateway.
type Connector interface {
	// Name identifies the gateway; follow-up transactions are routed back to it.
	Name() string
	// Capabilities declares which requests the connector can execute.
	Capabilities() CapabilitySet
	// Send executes one request. Failures are *domain.TransportError.
	Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error)
}

// Hint is a routing requirement derived from the request beyond type/modifier/method.
type Hint string

const (
	HintPayByLink    Hint = "pay_by_link"
	HintMultiCapture Hint = "multi_capture"
)

// SelectionKey is the tuple a resolver matches against capability declarations.
type SelectionKey struct {
	Type     domain.TransactionType
	Modifier domain.TransactionModifier
	Method   domain.PaymentMethodKind
	Hints    []Hint
	Gateway  string
}

func (k SelectionKey) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "type=%s modifier=%s method=%s", k.Type, k.Modifier, k.Method)
	if len(k.Hints) > 0 {
		hints := make([]string, len(k.Hints))
		for i, h := range k.Hints {
			hints[i] = string(h)
		}
		fmt.Fprintf(&b, " hints=%s", strings.Join(hints, ","))
	}
	if k.Gateway != "" {
		fmt.Fprintf(&b, " gateway=%s", k.Gateway)
	}
	return b.String()
}

// Capability is one declared combination a connector handles. Hints lists the
// routing requirements it can honor on top of the type/modifier/method match.
type Capability struct {
	Types     []domain.TransactionType
	Modifiers []domain.TransactionModifier
	Methods   []domain.PaymentMethodKind
	Hints     []Hint
}

// Covers reports whether the capability satisfies every element of the key.
func (c Capability) Covers(key SelectionKey) bool {
	if !slices.Contains(c.Types, key.Type) {
		return false
	}
	if !slices.Contains(c.Modifiers, key.Modifier) {
		return false
	}
	if !slices.Contains(c.Methods, key.Method) {
		return false
	}
	for _, h := range key.Hints {
		if !slices.Contains(c.Hints, h) {
			return false
		}
	}
	return true
}

// CapabilitySet is the full declaration of a connector.
type CapabilitySet []Capability

func (s CapabilitySet) Covers(key SelectionKey) bool {
	for _, c := range s {
		if c.Covers(key) {
			return true
		}
	}
	return false
}
