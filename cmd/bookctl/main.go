// Command bookctl drives the booking form from a terminal against a salon
// backend: list the catalog, show a day's slots, book one, or look up a
// customer's history.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/salon-booking/internal/app/bootstrap"
	"github.com/wolfman30/salon-booking/internal/booking"
	appconfig "github.com/wolfman30/salon-booking/internal/config"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, appconfig.Load(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	api     string
	email   string
	name    string
	phone   string
	service string
	stylist string
	date    string
	slot    string
	notes   string
	history bool
}

func parseFlags(cfg *appconfig.Config, args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("bookctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.api, "api", cfg.SalonAPIBaseURL, "Salon backend base URL")
	fs.StringVar(&o.email, "email", "", "Customer email (required to book or for -history)")
	fs.StringVar(&o.name, "name", "", "Customer name, used when creating a new customer")
	fs.StringVar(&o.phone, "phone", "", "Customer phone, used when creating a new customer")
	fs.StringVar(&o.service, "service", "", "Service ID; omit to list the catalog")
	fs.StringVar(&o.stylist, "stylist", "", "Stylist ID (optional)")
	fs.StringVar(&o.date, "date", "", "Date as YYYY-MM-DD")
	fs.StringVar(&o.slot, "slot", "", "Slot to book as HH:MM, or \"first\"; omit to list slots only")
	fs.StringVar(&o.notes, "notes", "", "Notes for the salon")
	fs.BoolVar(&o.history, "history", false, "Show the reservation history for -email")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func run(ctx context.Context, cfg *appconfig.Config, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(cfg, args, stderr)
	if err != nil {
		return 2
	}

	logger := logging.New(cfg.LogLevel)
	if _, err := cfg.ResolveLocation(); err != nil {
		fmt.Fprintf(stderr, "WARN: %v; dates use UTC\n", err)
	}
	target := *cfg
	target.SalonAPIBaseURL = strings.TrimRight(o.api, "/")
	components := bootstrap.BuildBooking(&target, bootstrap.BookingOptions{}, logger)

	if o.history {
		return showHistory(ctx, components.History, o.email, stdout, stderr)
	}

	resolver := components.Resolver
	session := components.NewSession()

	state := session.Open(ctx)
	failed := reportCatalogFailures(stderr, state)
	if o.service == "" {
		printOptions(stdout, "Services", state.Services)
		printOptions(stdout, "Stylists", state.Stylists)
		if failed {
			return 1
		}
		return 0
	}

	var date time.Time
	if o.date != "" {
		date, err = resolver.Window().ParseDate(o.date)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: -date must be YYYY-MM-DD: %v\n", err)
			return 2
		}
	}

	session.Dispatch(ctx, booking.ServiceChanged{ServiceID: o.service})
	session.Dispatch(ctx, booking.StylistChanged{StylistID: o.stylist})
	state = session.Dispatch(ctx, booking.DateChanged{Date: date})
	printOptions(stdout, "Times", state.Slots.Options())
	if state.Slots.State != booking.SlotStateLoaded {
		return 1
	}
	if o.slot == "" {
		return 0
	}

	start, ok := pickSlot(state.Slots, o.slot)
	if !ok {
		fmt.Fprintf(stderr, "ERROR: slot %q is not available on %s\n", o.slot, o.date)
		return 1
	}
	session.Dispatch(ctx, booking.SlotChosen{Start: start})
	session.Dispatch(ctx, booking.ContactChanged{Contact: booking.ContactInfo{Email: o.email, Name: o.name, Phone: o.phone}})
	session.Dispatch(ctx, booking.NotesChanged{Notes: o.notes})
	state = session.Dispatch(ctx, booking.SubmitPressed{})

	fmt.Fprintln(stdout, state.Result)
	if state.ResultTone != booking.ToneSuccess {
		return 1
	}
	return 0
}

// pickSlot matches want against the offered slots by HH:MM, or takes the
// earliest for "first".
func pickSlot(view booking.SlotView, want string) (string, bool) {
	want = strings.TrimSpace(want)
	for _, slot := range view.Slots {
		if strings.EqualFold(want, "first") || slot.Start.Clock() == want || slot.Start.String() == want {
			return slot.Start.String(), true
		}
	}
	return "", false
}

// reportCatalogFailures writes the message of every catalog that failed to
// load. Booking can still proceed by ID when it reports true.
func reportCatalogFailures(stderr io.Writer, state booking.FormState) bool {
	failed := false
	if state.ServicesState == booking.LoadFailed {
		fmt.Fprintf(stderr, "ERROR: services: %s\n", state.ServicesMessage)
		failed = true
	}
	if state.StylistsState == booking.LoadFailed {
		fmt.Fprintf(stderr, "ERROR: stylists: %s\n", state.StylistsMessage)
		failed = true
	}
	return failed
}

func printOptions(w io.Writer, title string, opts []booking.Option) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, opt := range opts {
		if opt.Value == "" {
			fmt.Fprintf(w, "  (%s)\n", opt.Label)
			continue
		}
		fmt.Fprintf(w, "  %-24s %s\n", opt.Value, opt.Label)
	}
}

func showHistory(ctx context.Context, h *booking.History, email string, stdout, stderr io.Writer) int {
	view := h.Lookup(ctx, email)
	switch view.State {
	case booking.HistoryFound:
		for _, e := range view.Entries {
			fmt.Fprintf(stdout, "#%s  %s  %s\n", e.ID, e.When, e.StatusLabel)
			if e.Notes != "" {
				fmt.Fprintf(stdout, "    %s\n", e.Notes)
			}
		}
		return 0
	case booking.HistoryFailed, booking.HistoryMissingEmail:
		fmt.Fprintf(stderr, "ERROR: %s\n", view.Message)
		return 1
	default:
		fmt.Fprintln(stdout, view.Message)
		return 0
	}
}
