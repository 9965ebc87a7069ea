// Package dispatch selects the gateway connector for a validated request by
// looking up declared capabilities.
package dispatch

import (
	"fmt"
	"sync"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/go-playground/validator"
)

// Resolver maps a selection key onto exactly one connector. Connectors are
// consulted in registration order, so resolution is deterministic.
type Resolver struct {
	mu         sync.RWMutex
	connectors []ports.Connector
	validate   *validator.Validate
}

func NewResolver(connectors ...ports.Connector) *Resolver {
	r := &Resolver{validate: validator.New()}
	r.Register(connectors...)
	return r
}

// Register appends connectors. A name registered twice keeps its first position.
func (r *Resolver) Register(connectors ...ports.Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range connectors {
		if c == nil || r.indexOf(c.Name()) >= 0 {
			continue
		}
		r.connectors = append(r.connectors, c)
	}
}

func (r *Resolver) indexOf(name string) int {
	for i, c := range r.connectors {
		if c.Name() == name {
			return i
		}
	}
	return -1
}

// Resolve returns the first connector whose capabilities cover the request.
func (r *Resolver) Resolve(req domain.NormalizedRequest, gateway string) (ports.Connector, error) {
	if err := r.checkPayByLink(req); err != nil {
		return nil, err
	}

	key := SelectionKeyFor(req, gateway)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.connectors {
		if key.Gateway != "" && c.Name() != key.Gateway {
			continue
		}
		if c.Capabilities().Covers(key) {
			return c, nil
		}
	}
	return nil, domain.NewUnsupportedCombinationError(key.String())
}

// SelectionKeyFor derives the routing tuple of a request.
func SelectionKeyFor(req domain.NormalizedRequest, gateway string) ports.SelectionKey {
	key := ports.SelectionKey{
		Type:     req.TransactionType,
		Modifier: req.Modifier,
		Method:   req.PaymentMethodKind,
		Gateway:  gateway,
	}
	if req.PayLinkData != nil || req.PaymentLinkID != "" {
		key.Hints = append(key.Hints, ports.HintPayByLink)
	}
	if req.MultiCapture {
		key.Hints = append(key.Hints, ports.HintMultiCapture)
	}
	return key
}

// checkPayByLink rejects link requests whose link data and link id do not form a
// usable pair. Creating a link needs link data; paying through one needs both.
func (r *Resolver) checkPayByLink(req domain.NormalizedRequest) error {
	switch {
	case req.PayLinkData == nil && req.PaymentLinkID == "":
		return nil
	case req.PayLinkData == nil:
		return domain.NewIncompletePayByLinkError("paymentLinkId requires payLinkData", nil)
	case req.Modifier != domain.ModifierPayByLink && req.PaymentLinkID == "":
		return domain.NewIncompletePayByLinkError("payLinkData without paymentLinkId outside a pay-by-link request", nil)
	}

	if err := r.validate.Struct(req.PayLinkData); err != nil {
		return domain.NewIncompletePayByLinkError("payLinkData is invalid", err)
	}
	return nil
}

// ConnectorInfo describes a registered connector.
type ConnectorInfo struct {
	Name         string
	Capabilities ports.CapabilitySet
}

// Describe lists registered connectors in resolution order.
func (r *Resolver) Describe() []ConnectorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ConnectorInfo, len(r.connectors))
	for i, c := range r.connectors {
		infos[i] = ConnectorInfo{Name: c.Name(), Capabilities: c.Capabilities()}
	}
	return infos
}

func (i ConnectorInfo) String() string {
	return fmt.Sprintf("%s (%d capabilities)", i.Name, len(i.Capabilities))
}
