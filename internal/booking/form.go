package booking

import (
	"fmt"
	"time"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

// ResultTone says how the result line should be presented.
type ResultTone string

const (
	ToneNone    ResultTone = ""
	TonePending ResultTone = "pending"
	ToneSuccess ResultTone = "success"
	ToneError   ResultTone = "error"
)

const submittingMessage = "Submitting reservation..."

// FormState is everything the booking form shows. It is a value: Reduce
// returns a new state and never mutates its input's slices.
type FormState struct {
	Services        []Option
	Stylists        []Option
	ServicesState   LoadState
	StylistsState   LoadState
	ServicesMessage string
	StylistsMessage string

	Contact   ContactInfo
	Date      time.Time
	ServiceID string
	StylistID string
	Notes     string

	Slots     SlotView
	SlotStart salonapi.Timestamp

	Busy       bool
	Result     string
	ResultTone ResultTone

	// slotSeq tags slot loads so a late response for an older selection is
	// dropped.
	slotSeq int
}

// NewFormState is the initial, empty form.
func NewFormState() FormState {
	return FormState{Slots: emptySlotView()}
}

func emptySlotView() SlotView {
	return SlotView{State: SlotStateIncomplete, Slots: []salonapi.TimeSlot{}, Message: incompleteMessage}
}

// SlotSeq exposes the current slot load sequence.
func (s FormState) SlotSeq() int { return s.slotSeq }

// Request builds the submission from the current fields.
func (s FormState) Request() BookingRequest {
	return BookingRequest{
		Contact:   s.Contact,
		ServiceID: s.ServiceID,
		StylistID: s.StylistID,
		SlotStart: s.SlotStart,
		Notes:     s.Notes,
	}
}

func (s FormState) slotRequest() SlotRequest {
	return SlotRequest{Date: s.Date, ServiceID: s.ServiceID, StylistID: s.StylistID}
}

// Event is a user action or a completed effect.
type Event interface{ isEvent() }

type (
	DateChanged     struct{ Date time.Time }
	ServiceChanged  struct{ ServiceID string }
	StylistChanged  struct{ StylistID string }
	ContactChanged  struct{ Contact ContactInfo }
	NotesChanged    struct{ Notes string }
	SlotChosen      struct{ Start string }
	SubmitPressed   struct{}
	SubmitSucceeded struct{ Result *Result }
	SubmitFailed    struct{ Err error }
)

// CatalogLoaded carries both catalog lists with their load outcome. A
// failed list is rendered as its message, never as an empty catalog.
type CatalogLoaded struct {
	Services        []Option
	Stylists        []Option
	ServicesState   LoadState
	StylistsState   LoadState
	ServicesMessage string
	StylistsMessage string
}

// SlotsLoaded answers a LoadSlots effect.
type SlotsLoaded struct {
	Seq  int
	View SlotView
}

// SlotsFailed answers a LoadSlots effect whose lookup could not run.
type SlotsFailed struct {
	Seq int
	Err error
}

func (CatalogLoaded) isEvent()   {}
func (DateChanged) isEvent()     {}
func (ServiceChanged) isEvent()  {}
func (StylistChanged) isEvent()  {}
func (ContactChanged) isEvent()  {}
func (NotesChanged) isEvent()    {}
func (SlotChosen) isEvent()      {}
func (SlotsLoaded) isEvent()     {}
func (SlotsFailed) isEvent()     {}
func (SubmitPressed) isEvent()   {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}

// Effect is work the caller must perform and feed back as an event.
type Effect interface{ isEffect() }

// LoadSlots asks for the slot view of Request; answer with SlotsLoaded or
// SlotsFailed carrying Seq.
type LoadSlots struct {
	Seq     int
	Request SlotRequest
}

// Submit asks for one booking attempt; answer with SubmitSucceeded or
// SubmitFailed.
type Submit struct {
	Request BookingRequest
}

func (LoadSlots) isEffect() {}
func (Submit) isEffect()    {}

// Reduce applies ev to state.
func Reduce(state FormState, ev Event) (FormState, []Effect) {
	switch e := ev.(type) {
	case CatalogLoaded:
		state.Services = e.Services
		state.Stylists = e.Stylists
		state.ServicesState = e.ServicesState
		state.StylistsState = e.StylistsState
		state.ServicesMessage = e.ServicesMessage
		state.StylistsMessage = e.StylistsMessage
		switch {
		case e.ServicesState == LoadFailed:
			state.Result, state.ResultTone = e.ServicesMessage, ToneError
		case e.StylistsState == LoadFailed:
			state.Result, state.ResultTone = e.StylistsMessage, ToneError
		}
		return state, nil

	case DateChanged:
		state.Date = e.Date
		return reloadSlots(state)

	case ServiceChanged:
		state.ServiceID = e.ServiceID
		return reloadSlots(state)

	case StylistChanged:
		state.StylistID = e.StylistID
		if state.Date.IsZero() || state.ServiceID == "" {
			return state, nil
		}
		return reloadSlots(state)

	case ContactChanged:
		state.Contact = e.Contact
		return state, nil

	case NotesChanged:
		state.Notes = e.Notes
		return state, nil

	case SlotChosen:
		for _, slot := range state.Slots.Slots {
			if state.Slots.State == SlotStateLoaded && slot.Start.String() == e.Start {
				state.SlotStart = slot.Start
				return state, nil
			}
		}
		return state, nil

	case SlotsLoaded:
		if e.Seq != state.slotSeq {
			return state, nil
		}
		state.Slots = e.View
		if !state.SlotStart.IsZero() && !e.View.Has(state.SlotStart.String()) {
			state.SlotStart = salonapi.Timestamp{}
		}
		return state, nil

	case SlotsFailed:
		if e.Seq != state.slotSeq {
			return state, nil
		}
		state.Slots = SlotView{
			State:     SlotStateUnavailable,
			Date:      state.Slots.Date,
			ServiceID: state.ServiceID,
			Slots:     []salonapi.TimeSlot{},
			Message:   unavailableMessage,
			Err:       e.Err,
		}
		state.SlotStart = salonapi.Timestamp{}
		return state, nil

	case SubmitPressed:
		if state.Busy {
			return state, nil
		}
		state.Busy = true
		state.Result = submittingMessage
		state.ResultTone = TonePending
		return state, []Effect{Submit{Request: state.Request()}}

	case SubmitSucceeded:
		next := NewFormState()
		next.Services = state.Services
		next.Stylists = state.Stylists
		next.ServicesState = state.ServicesState
		next.StylistsState = state.StylistsState
		next.ServicesMessage = state.ServicesMessage
		next.StylistsMessage = state.StylistsMessage
		next.slotSeq = state.slotSeq + 1
		next.Result = successMessage(e.Result)
		next.ResultTone = ToneSuccess
		return next, nil

	case SubmitFailed:
		state.Busy = false
		state.Result = "Error: " + UserMessage(e.Err)
		state.ResultTone = ToneError
		return state, nil
	}
	return state, nil
}

// reloadSlots clears the chosen slot and requests a fresh view. The old view
// is replaced at once so none of its slots stay selectable, and older loads
// still in flight are invalidated by the sequence bump.
func reloadSlots(state FormState) (FormState, []Effect) {
	state.slotSeq++
	state.SlotStart = salonapi.Timestamp{}
	state.Slots = SlotView{State: SlotStateLoading, ServiceID: state.ServiceID, Slots: []salonapi.TimeSlot{}, Message: loadingMessage}
	if !state.Date.IsZero() {
		state.Slots.Date = state.Date.Format(dateLayout)
	}
	return state, []Effect{LoadSlots{Seq: state.slotSeq, Request: state.slotRequest()}}
}

func successMessage(res *Result) string {
	if res == nil || res.Reservation == nil {
		return "Reservation confirmed"
	}
	r := res.Reservation
	when := r.ReservationDatetime.String()
	if !r.ReservationDatetime.Time.IsZero() {
		when = r.ReservationDatetime.Time.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("Reservation confirmed. ID: %s, time: %s", r.ID, when)
}
