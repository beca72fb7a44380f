package checkout

import (
	"regexp"
	"strings"

	"github.com/safar/storefront/internal/models"
)

const (
	MsgMissingShipping = "Please fill in all required fields"
	MsgInvalidEmail    = "Please enter a valid email address"
	MsgMissingCard     = "Please fill in all card details"
	MsgInvalidCard     = "Please enter a valid card number"
	MsgInvalidExpiry   = "Please enter a valid expiry date (MM/YY)"
	MsgInvalidCVC      = "Please enter a valid CVC"
	MsgUnknownPayment  = "Please choose a valid payment method"
)

var (
	emailPattern  = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	cardPattern   = regexp.MustCompile(`^\d{16}$`)
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvcPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// ValidationError is a user-facing form error. No remote call is made when
// one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func ValidateShipping(info models.ShippingInfo) error {
	for _, field := range []string{
		info.FirstName, info.LastName, info.Email, info.Phone,
		info.Address, info.City, info.State, info.ZipCode,
	} {
		if blank(field) {
			return invalid(MsgMissingShipping)
		}
	}
	if !emailPattern.MatchString(info.Email) {
		return invalid(MsgInvalidEmail)
	}
	return nil
}

// ValidatePayment checks the card fields for credit-card payments. Expiry is
// checked for MM/YY shape only, so "13/25" or a past date is accepted.
func ValidatePayment(p models.PaymentDetails) error {
	switch p.Method {
	case models.PaymentMethodPayPal:
		return nil
	case models.PaymentMethodCreditCard:
	default:
		return invalid(MsgUnknownPayment)
	}

	if blank(p.CardName) || blank(p.CardNumber) || blank(p.CardExpiry) || blank(p.CardCVC) {
		return invalid(MsgMissingCard)
	}
	if !cardPattern.MatchString(stripSpaces(p.CardNumber)) {
		return invalid(MsgInvalidCard)
	}
	if !expiryPattern.MatchString(p.CardExpiry) {
		return invalid(MsgInvalidExpiry)
	}
	if !cvcPattern.MatchString(p.CardCVC) {
		return invalid(MsgInvalidCVC)
	}
	return nil
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
