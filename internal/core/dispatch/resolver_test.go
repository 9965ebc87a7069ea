package dispatch_test

import (
	"context"
	"sync"
	"testing"

	"github.com/DanielPopoola/paykit/internal/core/dispatch"
	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConnector struct {
	name string
	caps ports.CapabilitySet
}

func (s *stubConnector) Name() string                      { return s.name }
func (s *stubConnector) Capabilities() ports.CapabilitySet { return s.caps }
func (s *stubConnector) Send(context.Context, domain.NormalizedRequest) (*domain.RawResponse, error) {
	return &domain.RawResponse{}, nil
}

func cardConnector(name string, hints ...ports.Hint) *stubConnector {
	return &stubConnector{name: name, caps: ports.CapabilitySet{{
		Types:     []domain.TransactionType{domain.TypeSale, domain.TypeAuthorize, domain.TypeRefund},
		Modifiers: []domain.TransactionModifier{domain.ModifierNone},
		Methods:   []domain.PaymentMethodKind{domain.KindCard},
		Hints:     hints,
	}}}
}

func walletConnector(name string) *stubConnector {
	return &stubConnector{name: name, caps: ports.CapabilitySet{{
		Types:     []domain.TransactionType{domain.TypeSale},
		Modifiers: []domain.TransactionModifier{domain.ModifierEncryptedMobile},
		Methods:   []domain.PaymentMethodKind{domain.KindMobileWallet},
	}}}
}

func cardSale() domain.NormalizedRequest {
	return domain.NormalizedRequest{
		TransactionType:   domain.TypeSale,
		Modifier:          domain.ModifierNone,
		PaymentMethodKind: domain.KindCard,
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("selects by capability", func(t *testing.T) {
		r := dispatch.NewResolver(walletConnector("wallets"), cardConnector("cards"))

		conn, err := r.Resolve(cardSale(), "")
		require.NoError(t, err)
		assert.Equal(t, "cards", conn.Name())

		req := cardSale()
		req.Modifier = domain.ModifierEncryptedMobile
		req.PaymentMethodKind = domain.KindMobileWallet
		conn, err = r.Resolve(req, "")
		require.NoError(t, err)
		assert.Equal(t, "wallets", conn.Name())
	})

	t.Run("registration order decides ties", func(t *testing.T) {
		r := dispatch.NewResolver(cardConnector("first"), cardConnector("second"))
		for i := 0; i < 10; i++ {
			conn, err := r.Resolve(cardSale(), "")
			require.NoError(t, err)
			assert.Equal(t, "first", conn.Name())
		}
	})

	t.Run("gateway affinity", func(t *testing.T) {
		r := dispatch.NewResolver(cardConnector("first"), cardConnector("second"))
		conn, err := r.Resolve(cardSale(), "second")
		require.NoError(t, err)
		assert.Equal(t, "second", conn.Name())
	})

	t.Run("affinity to an incapable gateway is unsupported", func(t *testing.T) {
		r := dispatch.NewResolver(cardConnector("cards"), walletConnector("wallets"))
		_, err := r.Resolve(cardSale(), "wallets")
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnsupportedCombination))
	})

	t.Run("no match", func(t *testing.T) {
		r := dispatch.NewResolver(cardConnector("cards"))
		req := cardSale()
		req.TransactionType = domain.TypeCapture

		_, err := r.Resolve(req, "")
		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnsupportedCombination))
		assert.Contains(t, err.Error(), "type=CAPTURE")
	})

	t.Run("hints must be honored", func(t *testing.T) {
		r := dispatch.NewResolver(cardConnector("plain"), cardConnector("multi", ports.HintMultiCapture))
		req := cardSale()
		req.TransactionType = domain.TypeAuthorize
		req.MultiCapture = true

		conn, err := r.Resolve(req, "")
		require.NoError(t, err)
		assert.Equal(t, "multi", conn.Name())
	})
}

func TestResolver_PayByLinkCompleteness(t *testing.T) {
	link := &domain.PayLinkData{Type: "PAYMENT", UsageMode: "SINGLE", Name: "Order 1"}
	r := dispatch.NewResolver(
		cardConnector("cards", ports.HintPayByLink),
		&stubConnector{name: "links", caps: ports.CapabilitySet{{
			Types:     []domain.TransactionType{domain.TypeSale},
			Modifiers: []domain.TransactionModifier{domain.ModifierPayByLink},
			Methods:   []domain.PaymentMethodKind{domain.KindNone},
			Hints:     []ports.Hint{ports.HintPayByLink},
		}}},
	)

	t.Run("link id without link data", func(t *testing.T) {
		req := cardSale()
		req.PaymentLinkID = "LNK_1"
		_, err := r.Resolve(req, "")
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeIncompletePayByLink))
	})

	t.Run("link data on a direct sale without link id", func(t *testing.T) {
		req := cardSale()
		req.PayLinkData = link
		_, err := r.Resolve(req, "")
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeIncompletePayByLink))
	})

	t.Run("invalid link data", func(t *testing.T) {
		req := domain.NormalizedRequest{
			TransactionType:   domain.TypeSale,
			Modifier:          domain.ModifierPayByLink,
			PaymentMethodKind: domain.KindNone,
			PayLinkData:       &domain.PayLinkData{Type: "PAYMENT"},
		}
		_, err := r.Resolve(req, "")
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeIncompletePayByLink))
	})

	t.Run("link creation", func(t *testing.T) {
		req := domain.NormalizedRequest{
			TransactionType:   domain.TypeSale,
			Modifier:          domain.ModifierPayByLink,
			PaymentMethodKind: domain.KindNone,
			PayLinkData:       link,
		}
		conn, err := r.Resolve(req, "")
		require.NoError(t, err)
		assert.Equal(t, "links", conn.Name())
	})

	t.Run("payment through a link", func(t *testing.T) {
		req := cardSale()
		req.PayLinkData = link
		req.PaymentLinkID = "LNK_1"
		conn, err := r.Resolve(req, "")
		require.NoError(t, err)
		assert.Equal(t, "cards", conn.Name())
	})
}

func TestResolver_RegisterAndDescribe(t *testing.T) {
	r := dispatch.NewResolver(cardConnector("cards"))
	r.Register(walletConnector("wallets"), cardConnector("cards"), nil)

	infos := r.Describe()
	require.Len(t, infos, 2)
	assert.Equal(t, "cards", infos[0].Name)
	assert.Equal(t, "wallets", infos[1].Name)
	assert.Equal(t, "wallets (1 capabilities)", infos[1].String())
}

func TestResolver_ConcurrentUse(t *testing.T) {
	r := dispatch.NewResolver(cardConnector("cards"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = r.Resolve(cardSale(), "")
		}()
		go func() {
			defer wg.Done()
			r.Register(walletConnector("wallets"))
		}()
	}
	wg.Wait()

	assert.Len(t, r.Describe(), 2)
}

func TestSelectionKeyFor(t *testing.T) {
	req := cardSale()
	req.MultiCapture = true
	req.PaymentLinkID = "LNK_1"

	key := dispatch.SelectionKeyFor(req, "sandbox")
	assert.Equal(t, []ports.Hint{ports.HintPayByLink, ports.HintMultiCapture}, key.Hints)
	assert.Equal(t, "type=SALE modifier=NONE method=CARD hints=pay_by_link,multi_capture gateway=sandbox", key.String())
}
