package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/ports"
)

type LoggingConnector struct {
	ports.Connector
	logger *slog.Logger
}

// Logging records every request sent through inner. Instrument details are
// logged only through their non-sensitive reference.
func Logging(inner ports.Connector, logger *slog.Logger) *LoggingConnector {
	return &LoggingConnector{
		Connector: inner,
		logger:    logger.With("gateway", inner.Name()),
	}
}

func (l *LoggingConnector) Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error) {
	start := time.Now()

	l.logger.DebugContext(ctx, "sending transaction",
		"type", req.TransactionType,
		"modifier", req.Modifier,
		"payment_method", req.PaymentMethodKind,
		"payment_method_ref", req.PaymentMethodRef,
		"parent_transaction_id", req.ParentTransactionID,
		"client_transaction_id", req.ClientTransactionID,
	)

	resp, err := l.Connector.Send(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		attrs := []any{
			"type", req.TransactionType,
			"duration", elapsed,
			"error", err,
		}
		if transportErr, ok := domain.IsTransportError(err); ok {
			attrs = append(attrs, "kind", transportErr.Kind, "retryable", transportErr.IsRetryable())
		}
		l.logger.ErrorContext(ctx, "transaction failed", attrs...)
		return nil, err
	}

	if resp == nil {
		l.logger.WarnContext(ctx, "gateway returned no response", "type", req.TransactionType, "duration", elapsed)
		return nil, nil
	}

	l.logger.InfoContext(ctx, "transaction completed",
		"type", req.TransactionType,
		"transaction_id", resp.TransactionID,
		"status", resp.Status,
		"response_code", resp.ResponseCode,
		"duration", elapsed,
	)
	return resp, nil
}
