package salonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/salon-booking/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:8000/api/v1"
	defaultTimeout = 15 * time.Second
	maxLoggedBody  = 300
)

var tracer = otel.Tracer("salon/salonapi")

// Client wraps the salon backend REST endpoints used by the booking widget.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the transport-level timeout for each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient constructs a salon backend client.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListServices returns the first page of GET /services/.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var page struct {
		Items []Service `json:"items"`
	}
	if err := c.doJSON(ctx, "list_services", http.MethodGet, "/services/", nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetService fetches one service by identifier.
func (c *Client) GetService(ctx context.Context, serviceID string) (*Service, error) {
	var svc Service
	path := "/services/" + url.PathEscape(serviceID)
	if err := c.doJSON(ctx, "get_service", http.MethodGet, path, nil, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// ListStylists returns the first page of GET /stylists/.
func (c *Client) ListStylists(ctx context.Context) ([]Stylist, error) {
	var page struct {
		Items []Stylist `json:"items"`
	}
	if err := c.doJSON(ctx, "list_stylists", http.MethodGet, "/stylists/", nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// FindCustomersByEmail returns customers whose email matches exactly, in
// server order.
func (c *Client) FindCustomersByEmail(ctx context.Context, email string) ([]Customer, error) {
	q := url.Values{}
	q.Set("email", email)
	var page struct {
		Items []Customer `json:"items"`
	}
	if err := c.doJSON(ctx, "find_customers", http.MethodGet, "/customers/?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreateCustomer issues POST /customers/.
func (c *Client) CreateCustomer(ctx context.Context, req CustomerCreate) (*Customer, error) {
	var customer Customer
	if err := c.doJSON(ctx, "create_customer", http.MethodPost, "/customers/", req, &customer); err != nil {
		return nil, err
	}
	if strings.TrimSpace(customer.ID) == "" {
		return nil, &TransportError{Op: "create_customer", Err: errors.New("response missing customer id")}
	}
	return &customer, nil
}

// GetAvailableSlots returns the raw slot list for a day, availability flags
// included.
func (c *Client) GetAvailableSlots(ctx context.Context, query SlotQuery) ([]TimeSlot, error) {
	q := url.Values{}
	q.Set("date", query.Date.Format("2006-01-02"))
	q.Set("service_id", query.ServiceID)
	if query.StylistID != "" {
		q.Set("stylist_id", query.StylistID)
	}
	var wrapped struct {
		Slots []TimeSlot `json:"slots"`
	}
	if err := c.doJSON(ctx, "get_slots", http.MethodGet, "/reservations/availability/slots?"+q.Encode(), nil, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Slots, nil
}

// CreateReservation submits a draft. The draft is sent exactly once.
func (c *Client) CreateReservation(ctx context.Context, draft ReservationDraft) (*Reservation, error) {
	var reservation Reservation
	if err := c.doJSON(ctx, "create_reservation", http.MethodPost, "/reservations/", draft, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ListReservationsByCustomer returns the first page of a customer's
// reservations.
func (c *Client) ListReservationsByCustomer(ctx context.Context, customerID string) ([]Reservation, error) {
	q := url.Values{}
	q.Set("customer_id", customerID)
	var page struct {
		Items []Reservation `json:"items"`
	}
	if err := c.doJSON(ctx, "list_reservations", http.MethodGet, "/reservations/?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body interface{}, out interface{}) (err error) {
	ctx, span := tracer.Start(ctx, "salonapi."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("salonapi.path", stripQuery(path)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, op+" failed")
		}
	}()

	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxLoggedBody {
			msg = msg[:maxLoggedBody]
		}
		c.logger.Warn("salon API non-2xx response", "op", op, "status", resp.StatusCode, "path", stripQuery(path), "body", msg)
		if detail := extractDetail(respBody); detail != "" {
			return &ValidationError{Op: op, StatusCode: resp.StatusCode, Detail: detail}
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// stripQuery keeps emails and other query values out of logs and spans.
func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
