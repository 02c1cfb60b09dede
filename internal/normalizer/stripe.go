package normalizer

import "github.com/telhawk-systems/hookrelay/internal/models"

// ParseStripe reads a charge.succeeded event. Stripe reports amounts in the
// smallest currency unit; the record carries major units.
func ParseStripe(raw models.RawPayload) models.Record {
	object := get(raw, "data", "object")

	var amount interface{}
	if cents, ok := toFloat(get(object, "amount")); ok {
		amount = cents / 100
	}

	return models.Record{
		"amount":         amount,
		"currency":       get(object, "currency"),
		"customer_email": get(object, "billing_details", "email"),
	}
}
