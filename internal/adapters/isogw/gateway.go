// Package isogw connects to an acquirer host over ISO 8583 (1987, ASCII).
package isogw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/DanielPopoola/paykit/internal/config"
	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/normalize"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/moov-io/iso8583"
	connection "github.com/moov-io/iso8583-connection"
	"github.com/moov-io/iso8583/network"
	"github.com/moov-io/iso8583/specs"
)

const DefaultName = "iso8583"

// Sender exchanges one request message for its response.
type Sender func(msg *iso8583.Message) (*iso8583.Message, error)

type Gateway struct {
	name       string
	spec       *iso8583.MessageSpec
	send       Sender
	terminalID string
	merchantID string
	now        func() time.Time
	stan       atomic.Uint32
	closer     io.Closer
}

type Option func(*Gateway)

func WithTerminal(terminalID, merchantID string) Option {
	return func(g *Gateway) {
		g.terminalID = terminalID
		g.merchantID = merchantID
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func New(name string, send Sender, opts ...Option) *Gateway {
	if name == "" {
		name = DefaultName
	}
	g := &Gateway{
		name:       name,
		spec:       specs.Spec87ASCII,
		send:       send,
		terminalID: "PAYKIT01",
		merchantID: "PAYKIT000000001",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dial opens a TCP connection to the host. Messages are framed with a four
// digit ASCII length header.
func Dial(cfg config.ISOConfig) (*Gateway, error) {
	conn, err := connection.New(
		cfg.Addr,
		specs.Spec87ASCII,
		readMessageLength,
		writeMessageLength,
		connection.ConnectTimeout(cfg.ConnectTimeout),
		connection.SendTimeout(cfg.SendTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection to %s: %w", cfg.Addr, err)
	}
	if err := conn.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr, err)
	}

	g := New(cfg.Name, func(msg *iso8583.Message) (*iso8583.Message, error) {
		return conn.Send(msg)
	}, WithTerminal(cfg.TerminalID, cfg.MerchantID))
	g.closer = conn
	return g, nil
}

func readMessageLength(r io.Reader) (int, error) {
	header := network.NewASCII4BytesHeader()
	n, err := header.ReadFrom(r)
	if err != nil {
		return n, err
	}
	return header.Length(), nil
}

func writeMessageLength(w io.Writer, length int) (int, error) {
	header := network.NewASCII4BytesHeader()
	header.SetLength(length)
	n, err := header.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("writing message header: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection, if any.
func (g *Gateway) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer.Close()
}

func (g *Gateway) Name() string { return g.name }

// Capabilities covers card and decrypted wallet payments. Encrypted wallet
// payloads and hosted links have no representation on this network.
func (g *Gateway) Capabilities() ports.CapabilitySet {
	return ports.CapabilitySet{
		{
			Types:     []domain.TransactionType{domain.TypeSale, domain.TypeAuthorize, domain.TypeRefund},
			Modifiers: []domain.TransactionModifier{domain.ModifierNone},
			Methods:   []domain.PaymentMethodKind{domain.KindCard},
		},
		{
			Types:     []domain.TransactionType{domain.TypeSale, domain.TypeAuthorize},
			Modifiers: []domain.TransactionModifier{domain.ModifierDecryptedMobile},
			Methods:   []domain.PaymentMethodKind{domain.KindMobileWallet},
		},
		{
			Types: []domain.TransactionType{
				domain.TypeCapture, domain.TypeRefund, domain.TypeReverse, domain.TypeVoid,
			},
			Modifiers: []domain.TransactionModifier{domain.ModifierNone},
			Methods:   []domain.PaymentMethodKind{domain.KindTransactionReference},
		},
	}
}

// StatusTable maps field 39 action codes.
func (g *Gateway) StatusTable() normalize.StatusTable {
	return normalize.StatusTable{
		Statuses: map[string]domain.TransactionStatus{
			"05": domain.StatusDeclined,
			"14": domain.StatusDeclined,
			"51": domain.StatusDeclined,
			"54": domain.StatusDeclined,
			"57": domain.StatusDeclined,
			"09": domain.StatusPending,
		},
		Approvals: []string{"00", "08", "10", "11"},
	}
}

var responseMessages = map[string]string{
	"00": "Approved",
	"05": "Do not honor",
	"08": "Honor with identification",
	"09": "Request in progress",
	"10": "Approved for partial amount",
	"11": "Approved (VIP)",
	"14": "Invalid card number",
	"51": "Insufficient funds",
	"54": "Expired card",
	"57": "Transaction not permitted to cardholder",
	"96": "System malfunction",
}

func (g *Gateway) Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error) {
	msg, err := g.buildMessage(req)
	if err != nil {
		return nil, err
	}

	type result struct {
		msg *iso8583.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := g.send(msg)
		done <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, domain.ClassifyTransportFailure(g.name, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, g.classify(res.err)
		}
		return g.parseResponse(req, res.msg)
	}
}

func (g *Gateway) classify(err error) *domain.TransportError {
	switch {
	case errors.Is(err, connection.ErrSendTimeout):
		return &domain.TransportError{Kind: domain.TransportTimeout, Gateway: g.name, Err: err}
	case errors.Is(err, connection.ErrConnectionClosed):
		return &domain.TransportError{Kind: domain.TransportNetwork, Gateway: g.name, Err: err}
	default:
		return domain.ClassifyTransportFailure(g.name, err)
	}
}

func (g *Gateway) buildMessage(req domain.NormalizedRequest) (*iso8583.Message, error) {
	mti, err := messageType(req.TransactionType)
	if err != nil {
		return nil, g.reject("UNSUPPORTED_OPERATION", err.Error())
	}

	now := g.now().UTC()
	stan := g.nextSTAN()

	fields := map[int]string{
		3:  processingCode(req),
		7:  now.Format("0102150405"),
		11: stan,
		41: padRight(g.terminalID, 8),
		42: padRight(g.merchantID, 15),
	}

	switch pm := req.PaymentMethod.(type) {
	case *domain.CreditCardData:
		fields[2] = pm.Number
		if exp := expiry(pm.ExpMonth, pm.ExpYear); exp != "" {
			fields[14] = exp
		}
	case *domain.MobileWallet:
		fields[2] = pm.Token
		if exp := expiry(pm.ExpMonth, pm.ExpYear); exp != "" {
			fields[14] = exp
		}
		fields[48] = walletData(pm)
	}

	if req.ParentTransactionID != "" {
		fields[37] = padLeft(req.ParentTransactionID, 12)
	} else {
		fields[37] = retrievalReference(now, stan)
	}

	if req.Amount != nil {
		cur, ok := lookupCurrency(req.Currency)
		if !ok {
			return nil, g.reject("UNSUPPORTED_CURRENCY", fmt.Sprintf("currency %q has no numeric code", req.Currency))
		}
		amount, err := minorUnits(*req.Amount, cur.exponent)
		if err != nil {
			return nil, g.reject("INVALID_AMOUNT", err.Error())
		}
		fields[4] = amount
		fields[49] = cur.numeric
	}

	msg := iso8583.NewMessage(g.spec)
	msg.MTI(mti)
	for id, value := range fields {
		if err := msg.Field(id, value); err != nil {
			return nil, fmt.Errorf("setting field %d: %w", id, err)
		}
	}
	return msg, nil
}

func (g *Gateway) parseResponse(req domain.NormalizedRequest, msg *iso8583.Message) (*domain.RawResponse, error) {
	if msg == nil {
		return nil, &domain.TransportError{Kind: domain.TransportNetwork, Gateway: g.name, Message: "empty response"}
	}

	code, _ := msg.GetString(39)
	rrn, _ := msg.GetString(37)
	authCode, _ := msg.GetString(38)
	code = strings.TrimSpace(code)

	raw := &domain.RawResponse{
		ResponseCode:      code,
		ResponseMessage:   responseMessages[code],
		TransactionID:     strings.TrimSpace(rrn),
		AuthorizationCode: strings.TrimSpace(authCode),
		ReferenceNumber:   strings.TrimSpace(rrn),
		Amount:            req.Amount,
		Currency:          req.Currency,
	}
	if req.ParentTransactionID != "" {
		raw.ParentTransactionID = req.ParentTransactionID
	}
	return raw, nil
}

func (g *Gateway) reject(code, message string) *domain.TransportError {
	return &domain.TransportError{Kind: domain.TransportRejected, Gateway: g.name, Code: code, Message: message}
}

// nextSTAN returns the next system trace audit number, cycling 000001..999999.
func (g *Gateway) nextSTAN() string {
	n := g.stan.Add(1)
	return fmt.Sprintf("%06d", (n-1)%999999+1)
}
