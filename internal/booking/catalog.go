package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

// LoadState distinguishes an empty catalog from a failed load.
type LoadState string

const (
	LoadLoaded LoadState = "loaded"
	LoadEmpty  LoadState = "empty"
	LoadFailed LoadState = "failed"
)

// CatalogResult is the outcome of one catalog request.
type CatalogResult[T any] struct {
	State LoadState `json:"state"`
	Items []T       `json:"items"`
	Err   error     `json:"-"`
}

// Option is one entry of a selection control.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionSink is a selection control that can be (re)populated.
type OptionSink interface {
	SetOptions(options []Option)
}

const (
	servicePlaceholder = "Select a service"
	stylistPlaceholder = "No preference"
)

// CatalogLoader fetches the service and stylist lists for the booking form.
type CatalogLoader struct {
	source  CatalogSource
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// NewCatalogLoader creates a loader. metrics may be nil.
func NewCatalogLoader(source CatalogSource, logger *logging.Logger, m *metrics.BookingMetrics) *CatalogLoader {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogLoader{source: source, logger: logger.Component("catalog"), metrics: m}
}

// ListServices issues one GET /services/.
func (l *CatalogLoader) ListServices(ctx context.Context) CatalogResult[salonapi.Service] {
	items, err := l.source.ListServices(ctx)
	res := newCatalogResult(items, err)
	l.observe("services", res.State, err)
	return res
}

// ListStylists issues one GET /stylists/.
func (l *CatalogLoader) ListStylists(ctx context.Context) CatalogResult[salonapi.Stylist] {
	items, err := l.source.ListStylists(ctx)
	res := newCatalogResult(items, err)
	l.observe("stylists", res.State, err)
	return res
}

// PopulateServices loads services and renders them into sink. A nil sink is
// a no-op render; the load still happens so the caller gets the result. On
// failure the sink is left untouched.
func (l *CatalogLoader) PopulateServices(ctx context.Context, sink OptionSink) CatalogResult[salonapi.Service] {
	res := l.ListServices(ctx)
	if sink != nil && res.State != LoadFailed {
		sink.SetOptions(ServiceOptions(res.Items))
	}
	return res
}

// PopulateStylists is PopulateServices for stylists.
func (l *CatalogLoader) PopulateStylists(ctx context.Context, sink OptionSink) CatalogResult[salonapi.Stylist] {
	res := l.ListStylists(ctx)
	if sink != nil && res.State != LoadFailed {
		sink.SetOptions(StylistOptions(res.Items))
	}
	return res
}

func (l *CatalogLoader) observe(catalog string, state LoadState, err error) {
	l.metrics.ObserveCatalogLoad(catalog, string(state))
	if err != nil {
		l.logger.Warn("catalog load failed", "catalog", catalog, "error", err)
	}
}

func newCatalogResult[T any](items []T, err error) CatalogResult[T] {
	switch {
	case err != nil:
		return CatalogResult[T]{State: LoadFailed, Err: err}
	case len(items) == 0:
		return CatalogResult[T]{State: LoadEmpty, Items: []T{}}
	default:
		return CatalogResult[T]{State: LoadLoaded, Items: items}
	}
}

// Message is the text to show in place of the list for empty and failed
// results.
func (r CatalogResult[T]) Message(noun string) string {
	switch r.State {
	case LoadEmpty:
		return fmt.Sprintf("No %s found", noun)
	case LoadFailed:
		return "Error: " + UserMessage(r.Err)
	default:
		return ""
	}
}

// ServiceOptions renders services for a selection control, placeholder
// first, server order preserved.
func ServiceOptions(services []salonapi.Service) []Option {
	out := make([]Option, 0, len(services)+1)
	out = append(out, Option{Value: "", Label: servicePlaceholder})
	for _, svc := range services {
		out = append(out, Option{
			Value: svc.ID,
			Label: fmt.Sprintf("%s - ¥%s (%d min)", svc.Name, FormatYen(svc.Price), svc.DurationMinutes),
		})
	}
	return out
}

// StylistOptions renders stylists; the empty value means no preference.
func StylistOptions(stylists []salonapi.Stylist) []Option {
	out := make([]Option, 0, len(stylists)+1)
	out = append(out, Option{Value: "", Label: stylistPlaceholder})
	for _, st := range stylists {
		name := strings.TrimSpace(st.Name)
		if name == "" {
			name = "Stylist"
		}
		out = append(out, Option{Value: st.ID, Label: name})
	}
	return out
}

// FormatYen groups digits by thousands: 12000 -> "12,000".
func FormatYen(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	if len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
