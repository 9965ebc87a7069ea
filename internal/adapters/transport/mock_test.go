package transport

import (
	"context"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Name() string { return "mock" }

func (m *MockConnector) Capabilities() ports.CapabilitySet { return nil }

func (m *MockConnector) Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*domain.RawResponse)
	return resp, args.Error(1)
}

func saleRequest() domain.NormalizedRequest {
	return domain.NormalizedRequest{
		TransactionType:   domain.TypeSale,
		Modifier:          domain.ModifierNone,
		PaymentMethodKind: domain.KindCard,
		PaymentMethodRef:  "5262",
	}
}
