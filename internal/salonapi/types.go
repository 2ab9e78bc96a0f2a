// Package salonapi is the REST client for the salon backend consumed by the
// booking widget: services, stylists, customers, availability slots and
// reservations.
package salonapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Service is a bookable salon menu item. Price is in whole currency units.
type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	NameEN          string `json:"name_en,omitempty"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           int    `json:"price"`
	Category        string `json:"category,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	DisplayOrder    int    `json:"display_order,omitempty"`
	IsActive        bool   `json:"is_active"`
}

// Stylist is a staff member a customer may request.
type Stylist struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	NameKana        string `json:"name_kana,omitempty"`
	Specialty       string `json:"specialty,omitempty"`
	Bio             string `json:"bio,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	IsActive        bool   `json:"is_active"`
}

// Customer is the backend's customer record. Email is the lookup key.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CustomerCreate is the body of POST /customers/. Blank name/phone are sent
// as null.
type CustomerCreate struct {
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// TimeSlot is one server-defined booking window.
type TimeSlot struct {
	Start     Timestamp  `json:"start_time"`
	End       *Timestamp `json:"end_time,omitempty"`
	Available bool       `json:"available"`
}

// SlotQuery selects the availability listing for a day.
type SlotQuery struct {
	Date      time.Time
	ServiceID string
	StylistID string
}

// ReservationStatus mirrors the backend's lifecycle values.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusNoShow    ReservationStatus = "no_show"
)

// ReservationDraft is the client-built payload of POST /reservations/.
type ReservationDraft struct {
	CustomerID          string    `json:"customer_id"`
	ServiceID           string    `json:"service_id"`
	StylistID           *string   `json:"stylist_id"`
	ReservationDatetime Timestamp `json:"reservation_datetime"`
	DurationMinutes     int       `json:"duration_minutes"`
	Notes               *string   `json:"notes"`
}

// Reservation is a persisted reservation as returned by the backend.
type Reservation struct {
	ID                  string            `json:"id"`
	CustomerID          string            `json:"customer_id"`
	ServiceID           string            `json:"service_id"`
	StylistID           string            `json:"stylist_id,omitempty"`
	ReservationDatetime Timestamp         `json:"reservation_datetime"`
	DurationMinutes     int               `json:"duration_minutes"`
	Notes               string            `json:"notes,omitempty"`
	Status              ReservationStatus `json:"status,omitempty"`
	CreatedAt           *Timestamp        `json:"created_at,omitempty"`
}

// Timestamp keeps the backend's original text next to the parsed time. The
// backend emits naive ISO-8601 values for slots; those parse as UTC wall
// clock and are echoed back verbatim.
type Timestamp struct {
	Raw  string
	Time time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses any of the layouts the backend is known to emit.
func ParseTimestamp(raw string) (Timestamp, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Raw: raw, Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// NewTimestamp wraps t, rendering Raw as RFC 3339.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Raw: t.Format(time.RFC3339), Time: t}
}

// IsZero reports whether no timestamp was set.
func (ts Timestamp) IsZero() bool { return ts.Raw == "" && ts.Time.IsZero() }

// String returns the backend text.
func (ts Timestamp) String() string {
	if ts.Raw != "" {
		return ts.Raw
	}
	if ts.Time.IsZero() {
		return ""
	}
	return ts.Time.Format(time.RFC3339)
}

// Clock renders the wall-clock time as HH:MM.
func (ts Timestamp) Clock() string { return ts.Time.Format("15:04") }

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(*raw)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// OptionalString converts a blank string to nil so it is sent as JSON null.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
