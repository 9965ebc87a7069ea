package normalize_test

import (
	"testing"

	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/normalize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var isoTable = normalize.StatusTable{
	Statuses: map[string]domain.TransactionStatus{
		"05": domain.StatusDeclined,
		"09": domain.StatusPending,
	},
	Approvals: []string{"00", "10"},
}

func TestNormalize(t *testing.T) {
	n := normalize.NewNormalizer().Register("iso", isoTable)

	t.Run("default table", func(t *testing.T) {
		amount := decimal.NewFromInt(10)
		out := n.Normalize("sandbox", domain.TypeSale, &domain.RawResponse{
			TransactionID: "TRN_1", Status: "captured", ResponseCode: "SUCCESS",
			AuthorizationCode: "ABC123", Amount: &amount, Currency: "EUR",
		})

		assert.Equal(t, domain.StatusCaptured, out.Status)
		assert.Equal(t, "TRN_1", out.TransactionID)
		assert.Equal(t, "ABC123", out.AuthorizationCode)
		assert.True(t, out.Amount.Equal(amount))
		assert.Equal(t, "EUR", out.Currency)
	})

	t.Run("approval depends on type", func(t *testing.T) {
		raw := &domain.RawResponse{ResponseCode: "00"}
		assert.Equal(t, domain.StatusPreauthorized, n.Normalize("iso", domain.TypeAuthorize, raw).Status)
		assert.Equal(t, domain.StatusCaptured, n.Normalize("iso", domain.TypeSale, raw).Status)
		assert.Equal(t, domain.StatusReversed, n.Normalize("iso", domain.TypeVoid, raw).Status)
	})

	t.Run("explicit codes", func(t *testing.T) {
		assert.Equal(t, domain.StatusDeclined, n.Normalize("iso", domain.TypeSale, &domain.RawResponse{ResponseCode: "05"}).Status)
		assert.Equal(t, domain.StatusPending, n.Normalize("iso", domain.TypeSale, &domain.RawResponse{ResponseCode: "09"}).Status)
	})

	t.Run("unrecognized codes are unknown", func(t *testing.T) {
		out := n.Normalize("iso", domain.TypeSale, &domain.RawResponse{ResponseCode: "96", ResponseMessage: "system malfunction"})
		assert.Equal(t, domain.StatusUnknown, out.Status)
		assert.Equal(t, "96", out.ResponseCode)
		assert.Equal(t, "system malfunction", out.ResponseMessage)
	})

	t.Run("missing response", func(t *testing.T) {
		assert.Equal(t, domain.StatusUnknown, n.Normalize("iso", domain.TypeSale, nil).Status)
		assert.Equal(t, domain.StatusUnknown, n.Normalize("iso", domain.TypeSale, &domain.RawResponse{}).Status)
	})

	t.Run("status wins over response code", func(t *testing.T) {
		out := n.Normalize("sandbox", domain.TypeSale, &domain.RawResponse{Status: "DECLINED", ResponseCode: "SUCCESS"})
		assert.Equal(t, domain.StatusDeclined, out.Status)
	})

	t.Run("register replaces", func(t *testing.T) {
		n := normalize.NewNormalizer().Register("iso", isoTable).
			Register("iso", normalize.StatusTable{Approvals: []string{"OK"}})
		assert.Equal(t, domain.StatusUnknown, n.Normalize("iso", domain.TypeSale, &domain.RawResponse{ResponseCode: "00"}).Status)
		assert.Equal(t, domain.StatusCaptured, n.Normalize("iso", domain.TypeSale, &domain.RawResponse{ResponseCode: "ok"}).Status)
	})
}
