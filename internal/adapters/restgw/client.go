// Package restgw connects to a JSON over HTTP card gateway.
package restgw

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DanielPopoola/paykit/internal/config"
	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/normalize"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/shopspring/decimal"
)

type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(cfg config.RestConfig) *Client {
	name := cfg.Name
	if name == "" {
		name = "rest"
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *Client) Name() string { return c.name }

var cardInstruments = []domain.PaymentMethodKind{
	domain.KindCard, domain.KindTokenizedCard, domain.KindStoredCredential, domain.KindECheck,
}

// Capabilities excludes decrypted wallet payloads; those need a network that
// carries the cryptogram in the authorization message.
func (c *Client) Capabilities() ports.CapabilitySet {
	return ports.CapabilitySet{
		{
			Types:     []domain.TransactionType{domain.TypeSale, domain.TypeAuthorize, domain.TypeRefund},
			Modifiers: []domain.TransactionModifier{domain.ModifierNone},
			Methods:   cardInstruments,
			Hints:     []ports.Hint{ports.HintPayByLink},
		},
		{
			Types:     []domain.TransactionType{domain.TypeSale, domain.TypeAuthorize},
			Modifiers: []domain.TransactionModifier{domain.ModifierEncryptedMobile},
			Methods:   []domain.PaymentMethodKind{domain.KindMobileWallet},
		},
		{
			Types:     []domain.TransactionType{domain.TypeSale},
			Modifiers: []domain.TransactionModifier{domain.ModifierPayByLink},
			Methods:   []domain.PaymentMethodKind{domain.KindNone},
			Hints:     []ports.Hint{ports.HintPayByLink},
		},
		{
			Types: []domain.TransactionType{
				domain.TypeCapture, domain.TypeRefund, domain.TypeReverse, domain.TypeVoid,
			},
			Modifiers: []domain.TransactionModifier{domain.ModifierNone},
			Methods:   []domain.PaymentMethodKind{domain.KindTransactionReference},
			Hints:     []ports.Hint{ports.HintMultiCapture},
		},
	}
}

// StatusTable maps the gateway's lowercase lifecycle names onto canonical statuses.
func (c *Client) StatusTable() normalize.StatusTable {
	return normalize.StatusTable{
		Statuses: map[string]domain.TransactionStatus{
			"authorized":   domain.StatusPreauthorized,
			"captured":     domain.StatusCaptured,
			"settled":      domain.StatusCaptured,
			"refunded":     domain.StatusRefunded,
			"voided":       domain.StatusReversed,
			"reversed":     domain.StatusReversed,
			"declined":     domain.StatusDeclined,
			"pending":      domain.StatusPending,
			"link_created": domain.StatusInitiated,
		},
		Approvals: []string{"approved"},
	}
}

func (c *Client) Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error) {
	path, err := c.path(req)
	if err != nil {
		return nil, err
	}

	resp, err := postJSON[gatewayRequest, gatewayResponse](c, ctx, path, newGatewayRequest(req), req.ClientTransactionID)
	if err != nil {
		return nil, err
	}
	return resp.raw(), nil
}

func (c *Client) path(req domain.NormalizedRequest) (string, error) {
	if req.Modifier == domain.ModifierPayByLink {
		return "/v1/links", nil
	}
	if req.PaymentMethodKind != domain.KindTransactionReference {
		return "/v1/transactions", nil
	}

	id := url.PathEscape(req.ParentTransactionID)
	switch req.TransactionType {
	case domain.TypeCapture:
		return "/v1/transactions/" + id + "/capture", nil
	case domain.TypeRefund:
		return "/v1/transactions/" + id + "/refund", nil
	case domain.TypeReverse, domain.TypeVoid:
		return "/v1/transactions/" + id + "/reversal", nil
	default:
		return "", &domain.TransportError{
			Kind:    domain.TransportRejected,
			Gateway: c.name,
			Code:    "UNSUPPORTED_OPERATION",
			Message: fmt.Sprintf("%s cannot reference a prior transaction", req.TransactionType),
		}
	}
}

// postJSON posts req and decodes the 2xx body into Resp. Without an explicit key
// the idempotency key is derived from the body, so retries of the same request
// share it.
func postJSON[Req any, Resp any](c *Client, ctx context.Context, path string, req Req, idempotencyKey string) (*Resp, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	if idempotencyKey == "" {
		sum := sha256.Sum256(append([]byte(path+"|"), jsonData...))
		idempotencyKey = hex.EncodeToString(sum[:])
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.ClassifyTransportFailure(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp)
	}

	var gatewayResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&gatewayResp); err != nil {
		return nil, &domain.TransportError{
			Kind:       domain.TransportRejected,
			Gateway:    c.name,
			Code:       "MALFORMED_RESPONSE",
			Message:    "error decoding json response",
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	return &gatewayResp, nil
}

func (c *Client) statusError(resp *http.Response) *domain.TransportError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		errResp.Message = strings.TrimSpace(string(body))
	}

	return &domain.TransportError{
		Kind:       domain.TransportKindForStatus(resp.StatusCode),
		Gateway:    c.name,
		Code:       errResp.Err,
		Message:    errResp.Message,
		StatusCode: resp.StatusCode,
	}
}

type errorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

// instrument is the wire form of a payment method.
type instrument struct {
	Type           string `json:"type"`
	Number         string `json:"number,omitempty"`
	ExpMonth       int    `json:"exp_month,omitempty"`
	ExpYear        int    `json:"exp_year,omitempty"`
	Cvn            string `json:"cvn,omitempty"`
	CardHolderName string `json:"cardholder_name,omitempty"`
	CardPresent    bool   `json:"card_present,omitempty"`
	Token          string `json:"token,omitempty"`
	MobileType     string `json:"mobile_type,omitempty"`
	CredentialID   string `json:"credential_id,omitempty"`
	Initiator      string `json:"initiator,omitempty"`
	Sequence       string `json:"sequence,omitempty"`
	AccountNumber  string `json:"account_number,omitempty"`
	RoutingNumber  string `json:"routing_number,omitempty"`
	AccountType    string `json:"account_type,omitempty"`
	CheckHolder    string `json:"check_holder,omitempty"`
}

func newInstrument(pm domain.PaymentMethod) *instrument {
	switch m := pm.(type) {
	case *domain.CreditCardData:
		return &instrument{
			Type: "card", Number: m.Number, ExpMonth: m.ExpMonth, ExpYear: m.ExpYear,
			Cvn: m.Cvn, CardHolderName: m.CardHolderName, CardPresent: m.CardPresent,
		}
	case *domain.TokenizedCard:
		return &instrument{
			Type: "token", Token: m.Token, ExpMonth: m.ExpMonth, ExpYear: m.ExpYear,
			CardHolderName: m.CardHolderName,
		}
	case *domain.MobileWallet:
		return &instrument{
			Type: "wallet", Token: m.Token, MobileType: string(m.MobileType),
			CardHolderName: m.CardHolderName,
		}
	case *domain.StoredCredential:
		return &instrument{
			Type: "stored_credential", CredentialID: m.CredentialID,
			Initiator: m.Initiator, Sequence: m.Sequence,
		}
	case *domain.ECheck:
		return &instrument{
			Type: "echeck", AccountNumber: m.AccountNumber, RoutingNumber: m.RoutingNumber,
			AccountType: m.AccountType, CheckHolder: m.CheckHolder,
		}
	default:
		return nil
	}
}

// gatewayRequest is the canonical request plus the instrument payload.
type gatewayRequest struct {
	domain.NormalizedRequest
	Instrument *instrument `json:"paymentMethod,omitempty"`
}

func newGatewayRequest(req domain.NormalizedRequest) gatewayRequest {
	return gatewayRequest{
		NormalizedRequest: req,
		Instrument:        newInstrument(req.PaymentMethod),
	}
}

type gatewayResponse struct {
	ID         string           `json:"id"`
	Status     string           `json:"status"`
	ResultCode string           `json:"result_code"`
	Message    string           `json:"message"`
	AuthCode   string           `json:"auth_code"`
	Reference  string           `json:"reference"`
	ParentID   string           `json:"parent_id"`
	Amount     *decimal.Decimal `json:"amount"`
	Currency   string           `json:"currency"`
}

func (r *gatewayResponse) raw() *domain.RawResponse {
	return &domain.RawResponse{
		Status:              r.Status,
		ResponseCode:        r.ResultCode,
		ResponseMessage:     r.Message,
		TransactionID:       r.ID,
		AuthorizationCode:   r.AuthCode,
		ReferenceNumber:     r.Reference,
		ParentTransactionID: r.ParentID,
		Amount:              r.Amount,
		Currency:            r.Currency,
	}
}
