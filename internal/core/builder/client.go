package builder

import (
	"time"

	"github.com/DanielPopoola/paykit/internal/core/dispatch"
	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/normalize"
	"github.com/shopspring/decimal"
)

// Client owns the rule registry, connector resolver and status normalizer that
// builders created from it share.
type Client struct {
	validations *Validations
	resolver    *dispatch.Resolver
	normalizer  *normalize.Normalizer
	now         func() time.Time
}

type Option func(*Client)

// WithValidations replaces the default rule set.
func WithValidations(v *Validations) Option {
	return func(c *Client) { c.validations = v }
}

// WithClock sets the source of Transaction.ProcessedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(resolver *dispatch.Resolver, normalizer *normalize.Normalizer, opts ...Option) *Client {
	c := &Client{
		validations: DefaultValidations(),
		resolver:    resolver,
		normalizer:  normalizer,
		now:         time.Now,
	}
	if c.normalizer == nil {
		c.normalizer = normalize.NewNormalizer()
	}
	if c.resolver == nil {
		c.resolver = dispatch.NewResolver()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validations exposes the rule registry so callers can register extra rules.
func (c *Client) Validations() *Validations { return c.validations }

func (c *Client) Resolver() *dispatch.Resolver { return c.resolver }

// NewTransaction starts a builder of any type.
func (c *Client) NewTransaction(t domain.TransactionType, pm domain.PaymentMethod) *TransactionBuilder {
	return newTransactionBuilder(c, t, pm)
}

// Charge starts a sale.
func (c *Client) Charge(pm domain.PaymentMethod, amount decimal.Decimal) *TransactionBuilder {
	return newTransactionBuilder(c, domain.TypeSale, pm).WithAmount(amount)
}

// Authorize starts a preauthorization to be captured later.
func (c *Client) Authorize(pm domain.PaymentMethod, amount decimal.Decimal) *TransactionBuilder {
	return newTransactionBuilder(c, domain.TypeAuthorize, pm).WithAmount(amount)
}

// Refund starts a standalone refund credited to pm.
func (c *Client) Refund(pm domain.PaymentMethod, amount decimal.Decimal) *TransactionBuilder {
	return newTransactionBuilder(c, domain.TypeRefund, pm).WithAmount(amount)
}

// FromID rebuilds a transaction known only by its gateway id so follow-ups can
// be issued against it. The lifecycle is enforced by the gateway.
func (c *Client) FromID(transactionID, gateway string) *Transaction {
	return &Transaction{
		client:   c,
		id:       transactionID,
		gateway:  gateway,
		status:   domain.StatusUnknown,
		detached: true,
	}
}
