package checkout

import (
	"testing"

	"github.com/safar/storefront/internal/models"
	"github.com/stretchr/testify/assert"
)

func validShipping() models.ShippingInfo {
	return models.ShippingInfo{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "555-0100",
		Address:   "1 Analytical Way",
		City:      "London",
		State:     "LDN",
		ZipCode:   "00001",
	}
}

func validCard() models.PaymentDetails {
	return models.PaymentDetails{
		Method:     models.PaymentMethodCreditCard,
		CardName:   "Ada Lovelace",
		CardNumber: "1234 5678 9012 3456",
		CardExpiry: "12/25",
		CardCVC:    "123",
	}
}

func message(err error) string {
	if ve, ok := err.(*ValidationError); ok {
		return ve.Message
	}
	return ""
}

func TestValidateShipping(t *testing.T) {
	assert.NoError(t, ValidateShipping(validShipping()))

	missing := validShipping()
	missing.ZipCode = "  "
	assert.Equal(t, MsgMissingShipping, message(ValidateShipping(missing)))

	for _, email := range []string{"ada", "ada@example", "ada @example.com", "@."} {
		info := validShipping()
		info.Email = email
		assert.Equal(t, MsgInvalidEmail, message(ValidateShipping(info)), email)
	}
}

func TestValidatePaymentCardNumber(t *testing.T) {
	tests := []struct {
		number string
		ok     bool
	}{
		{"1234 5678 9012 3456", true},
		{"1234567890123456", true},
		{"1234\t5678 9012\n3456", true},
		{"123456789012345", false},
		{"12345678901234567", false},
		{"1234-5678-9012-3456", false},
		{"abcd5678901234567", false},
	}

	for _, tt := range tests {
		p := validCard()
		p.CardNumber = tt.number
		err := ValidatePayment(p)
		if tt.ok {
			assert.NoError(t, err, tt.number)
		} else {
			assert.Equal(t, MsgInvalidCard, message(err), tt.number)
		}
	}
}

func TestValidatePaymentExpiryIsFormatOnly(t *testing.T) {
	for _, expiry := range []string{"12/25", "13/25", "00/00", "01/19"} {
		p := validCard()
		p.CardExpiry = expiry
		assert.NoError(t, ValidatePayment(p), expiry)
	}

	for _, expiry := range []string{"2025-12", "1/25", "12/2025", "12-25"} {
		p := validCard()
		p.CardExpiry = expiry
		assert.Equal(t, MsgInvalidExpiry, message(ValidatePayment(p)), expiry)
	}
}

func TestValidatePaymentCVC(t *testing.T) {
	for _, cvc := range []string{"123", "1234"} {
		p := validCard()
		p.CardCVC = cvc
		assert.NoError(t, ValidatePayment(p), cvc)
	}
	for _, cvc := range []string{"12", "12345", "12a"} {
		p := validCard()
		p.CardCVC = cvc
		assert.Equal(t, MsgInvalidCVC, message(ValidatePayment(p)), cvc)
	}
}

func TestValidatePaymentMissingAndMethods(t *testing.T) {
	p := validCard()
	p.CardName = ""
	assert.Equal(t, MsgMissingCard, message(ValidatePayment(p)))

	assert.NoError(t, ValidatePayment(models.PaymentDetails{Method: models.PaymentMethodPayPal}))
	assert.Equal(t, MsgUnknownPayment, message(ValidatePayment(models.PaymentDetails{Method: "cash"})))
}
