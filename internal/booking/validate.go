package booking

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ContactInfo is what the customer types into the booking form.
type ContactInfo struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name,omitempty" validate:"max=100"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

var fieldMessages = map[string]string{
	"Email":     "Enter a valid email address",
	"Name":      "Name is too long",
	"Phone":     "Phone number is too long",
	"ServiceID": "Select a service",
	"Notes":     "Notes are too long",
}

// checkRequest runs struct validation and the slot check. The returned error
// is always a *PreconditionError.
func checkRequest(req BookingRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg, ok := fieldMessages[fe.Field()]
			if !ok {
				msg = fe.Field() + " is invalid"
			}
			return &PreconditionError{Field: strings.ToLower(fe.Field()), Message: msg}
		}
		return &PreconditionError{Field: "request", Message: err.Error()}
	}
	if req.SlotStart.IsZero() {
		return &PreconditionError{Field: "slot", Message: "Select a time slot"}
	}
	return nil
}
