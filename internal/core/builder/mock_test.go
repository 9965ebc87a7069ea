package builder

import (
	"context"

	"github.com/DanielPopoola/paykit/internal/core/dispatch"
	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/normalize"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockConnector accepts every combination its capabilities declare.
type MockConnector struct {
	mock.Mock
	name string
	caps ports.CapabilitySet
}

func NewMockConnector(name string) *MockConnector {
	return &MockConnector{name: name, caps: everything()}
}

func (m *MockConnector) Name() string { return m.name }

func (m *MockConnector) Capabilities() ports.CapabilitySet { return m.caps }

func (m *MockConnector) Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*domain.RawResponse)
	return resp, args.Error(1)
}

func everything() ports.CapabilitySet {
	return ports.CapabilitySet{{
		Types: []domain.TransactionType{
			domain.TypeSale, domain.TypeAuthorize, domain.TypeCapture,
			domain.TypeRefund, domain.TypeReverse, domain.TypeVoid,
		},
		Modifiers: []domain.TransactionModifier{
			domain.ModifierNone, domain.ModifierEncryptedMobile,
			domain.ModifierDecryptedMobile, domain.ModifierPayByLink,
		},
		Methods: []domain.PaymentMethodKind{
			domain.KindNone, domain.KindCard, domain.KindTokenizedCard, domain.KindMobileWallet,
			domain.KindStoredCredential, domain.KindECheck, domain.KindTransactionReference,
		},
		Hints: []ports.Hint{ports.HintPayByLink, ports.HintMultiCapture},
	}}
}

func newMockClient(connectors ...ports.Connector) *Client {
	return NewClient(dispatch.NewResolver(connectors...), normalize.NewNormalizer())
}
