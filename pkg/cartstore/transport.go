package cartstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error codes the store gives special treatment. CodeCartNotFound triggers
// stale-cart recovery; the terminal checkout codes clear local state before
// the error is surfaced.
const (
	CodeCartNotFound   = "cart_not_found"
	CodeCartEmpty      = "cart_empty"
	CodeCartNotOpen    = "cart_not_open"
	CodeUserIDRequired = "user_id_required"
)

// APIError is a server-reported failure with its wire code
type APIError struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// IsCartNotFound reports whether the error is the recoverable stale-cart
// signal.
func IsCartNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeCartNotFound
}

func isTerminalCheckout(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == CodeCartEmpty || apiErr.Code == CodeCartNotOpen
}

// ServerAPI is the transport port the store speaks to. Implementations wrap
// whatever wire protocol the backend exposes.
type ServerAPI interface {
	EnsureCart(ctx context.Context, mode, tableCode string) (*Summary, error)
	GetCart(ctx context.Context, cartID uuid.UUID) (*Summary, error)
	SetItems(ctx context.Context, cartID uuid.UUID, rows []SetRow) error
	IncrementItems(ctx context.Context, cartID uuid.UUID, rows []DeltaRow) error
	RemoveItems(ctx context.Context, cartID uuid.UUID, menuItemIDs []uuid.UUID) error
	Checkout(ctx context.Context, cartID uuid.UUID, customerName, tableCode string) (*Receipt, error)
}

// wireTotals accepts every totals field layout the backend has ever
// produced. Legacy responses used sub_total/tax_amount/grand_total and
// nested the components under "breakdown".
type wireTotals struct {
	Subtotal    *decimal.Decimal `json:"subtotal"`
	SubTotal    *decimal.Decimal `json:"sub_total"`
	Tax         *decimal.Decimal `json:"tax"`
	TaxAmount   *decimal.Decimal `json:"tax_amount"`
	Total       *decimal.Decimal `json:"total"`
	GrandTotal  *decimal.Decimal `json:"grand_total"`
	PricingMode string           `json:"pricing_mode"`
	PriceMode   string           `json:"price_mode"`
	Breakdown   []TaxLine        `json:"tax_breakdown"`
	BreakdownV1 []TaxLine        `json:"breakdown"`
	Components  []TaxLine        `json:"components"`
}

func pick(candidates ...*decimal.Decimal) decimal.Decimal {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return decimal.Zero
}

// NormalizeTotals maps an arbitrary totals payload into the canonical
// Totals type. This is the single place wire-shape differences are absorbed.
func NormalizeTotals(raw json.RawMessage) (Totals, error) {
	if len(raw) == 0 {
		return Totals{}, nil
	}
	var w wireTotals
	if err := json.Unmarshal(raw, &w); err != nil {
		return Totals{}, err
	}

	out := Totals{
		Subtotal:    pick(w.Subtotal, w.SubTotal),
		Tax:         pick(w.Tax, w.TaxAmount),
		Total:       pick(w.Total, w.GrandTotal),
		PricingMode: w.PricingMode,
	}
	if out.PricingMode == "" {
		out.PricingMode = w.PriceMode
	}
	if out.PricingMode == "" {
		out.PricingMode = "inclusive"
	}
	switch {
	case len(w.Breakdown) > 0:
		out.TaxBreakdown = w.Breakdown
	case len(w.BreakdownV1) > 0:
		out.TaxBreakdown = w.BreakdownV1
	case len(w.Components) > 0:
		out.TaxBreakdown = w.Components
	default:
		out.TaxBreakdown = []TaxLine{}
	}
	return out, nil
}

// HTTPTransport implements ServerAPI against the backend's REST interface
type HTTPTransport struct {
	baseURL   string
	tenantID  uuid.UUID
	actorID   string
	authToken string
	client    *http.Client
}

// HTTPTransportOption configures an HTTPTransport
type HTTPTransportOption func(*HTTPTransport)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(client *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) { t.client = client }
}

// WithActorID attaches an explicit actor identity to every request
func WithActorID(actorID string) HTTPTransportOption {
	return func(t *HTTPTransport) { t.actorID = actorID }
}

// WithAuthToken attaches a bearer token to every request
func WithAuthToken(token string) HTTPTransportOption {
	return func(t *HTTPTransport) { t.authToken = token }
}

// NewHTTPTransport creates a transport for one tenant against a base URL
// like "https://api.example.com".
func NewHTTPTransport(baseURL string, tenantID uuid.UUID, opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL:  baseURL,
		tenantID: tenantID,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// envelope mirrors the backend's standard response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", t.tenantID.String())
	if t.actorID != "" {
		req.Header.Set("X-Actor-ID", t.actorID)
	}
	if t.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.authToken)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Code: "http_error", Message: resp.Status, HTTPStatus: resp.StatusCode}
		}
		return err
	}
	if !env.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{Code: "http_error", Message: resp.Status, HTTPStatus: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// wireSummary is the raw cart read payload before totals normalization
type wireSummary struct {
	Cart struct {
		ID        uuid.UUID `json:"id"`
		Status    string    `json:"status"`
		Mode      string    `json:"mode"`
		TableCode string    `json:"table_code"`
	} `json:"cart"`
	Items    []Item          `json:"items"`
	Totals   json.RawMessage `json:"totals"`
	Currency string          `json:"currency"`
}

func (w *wireSummary) normalize() (*Summary, error) {
	totals, err := NormalizeTotals(w.Totals)
	if err != nil {
		return nil, err
	}
	items := w.Items
	if items == nil {
		items = []Item{}
	}
	return &Summary{
		CartID:    w.Cart.ID,
		Status:    w.Cart.Status,
		Mode:      w.Cart.Mode,
		TableCode: w.Cart.TableCode,
		Items:     items,
		Totals:    totals,
		Currency:  w.Currency,
	}, nil
}

func (t *HTTPTransport) EnsureCart(ctx context.Context, mode, tableCode string) (*Summary, error) {
	var w wireSummary
	body := map[string]string{"mode": mode}
	if tableCode != "" {
		body["table_code"] = tableCode
	}
	if err := t.do(ctx, http.MethodPost, "/api/v1/carts", body, &w); err != nil {
		return nil, err
	}
	return w.normalize()
}

func (t *HTTPTransport) GetCart(ctx context.Context, cartID uuid.UUID) (*Summary, error) {
	var w wireSummary
	if err := t.do(ctx, http.MethodGet, "/api/v1/carts/"+cartID.String(), nil, &w); err != nil {
		return nil, err
	}
	return w.normalize()
}

func (t *HTTPTransport) SetItems(ctx context.Context, cartID uuid.UUID, rows []SetRow) error {
	body := map[string]any{"items": rows}
	return t.do(ctx, http.MethodPut, "/api/v1/carts/"+cartID.String()+"/items", body, nil)
}

func (t *HTTPTransport) IncrementItems(ctx context.Context, cartID uuid.UUID, rows []DeltaRow) error {
	body := map[string]any{"items": rows}
	return t.do(ctx, http.MethodPost, "/api/v1/carts/"+cartID.String()+"/items/increment", body, nil)
}

func (t *HTTPTransport) RemoveItems(ctx context.Context, cartID uuid.UUID, menuItemIDs []uuid.UUID) error {
	body := map[string]any{"menu_item_ids": menuItemIDs}
	return t.do(ctx, http.MethodPost, "/api/v1/carts/"+cartID.String()+"/items/remove", body, nil)
}

// wireReceipt is the raw checkout payload before totals normalization
type wireReceipt struct {
	OrderID      uuid.UUID       `json:"order_id"`
	CartID       uuid.UUID       `json:"cart_id"`
	Status       string          `json:"status"`
	Totals       json.RawMessage `json:"totals"`
	Currency     string          `json:"currency"`
	Items        []Item          `json:"items"`
	TableCode    string          `json:"table_code"`
	CustomerName string          `json:"customer_name"`
}

func (t *HTTPTransport) Checkout(ctx context.Context, cartID uuid.UUID, customerName, tableCode string) (*Receipt, error) {
	body := map[string]string{}
	if customerName != "" {
		body["customer_name"] = customerName
	}
	if tableCode != "" {
		body["table_code"] = tableCode
	}
	var w wireReceipt
	if err := t.do(ctx, http.MethodPost, "/api/v1/carts/"+cartID.String()+"/checkout", body, &w); err != nil {
		return nil, err
	}
	totals, err := NormalizeTotals(w.Totals)
	if err != nil {
		return nil, err
	}
	return &Receipt{
		OrderID:      w.OrderID,
		CartID:       w.CartID,
		Status:       w.Status,
		Totals:       totals,
		Currency:     w.Currency,
		Items:        w.Items,
		TableCode:    w.TableCode,
		CustomerName: w.CustomerName,
	}, nil
}
