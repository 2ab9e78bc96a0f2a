package booking

import (
	"strings"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

// ResolveCustomer picks the canonical customer among email matches: the first
// one in server order. The backend is assumed to keep emails unique per shop;
// if it ever returns duplicates this choice is arbitrary but stable for a
// stable server ordering.
func ResolveCustomer(matches []salonapi.Customer) (salonapi.Customer, bool) {
	for _, c := range matches {
		if strings.TrimSpace(c.ID) != "" {
			return c, true
		}
	}
	return salonapi.Customer{}, false
}

// NormalizeEmail is the form the widget sends and keys guards on.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
