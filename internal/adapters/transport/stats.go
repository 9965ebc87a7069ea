package transport

import (
	"context"
	"time"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/DanielPopoola/paykit/internal/metrics"
)

type StatsConnector struct {
	ports.Connector
	stats *metrics.GatewayStats
}

// Stats records latency and response codes of inner into the registry entry
// named after the connector.
func Stats(inner ports.Connector, registry *metrics.Registry) *StatsConnector {
	return &StatsConnector{
		Connector: inner,
		stats:     registry.Gateway(inner.Name()),
	}
}

func (s *StatsConnector) Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error) {
	start := time.Now()
	resp, err := s.Connector.Send(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		kind := "UNCLASSIFIED"
		if transportErr, ok := domain.IsTransportError(err); ok {
			kind = string(transportErr.Kind)
		}
		s.stats.RecordFailure(elapsed, kind)
		return nil, err
	}

	code := ""
	if resp != nil {
		code = resp.ResponseCode
		if code == "" {
			code = resp.Status
		}
	}
	s.stats.RecordExecution(elapsed, code)
	return resp, nil
}
