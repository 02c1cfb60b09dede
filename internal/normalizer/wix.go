package normalizer

import "github.com/telhawk-systems/hookrelay/internal/models"

// ParseWix reads an order event. The first payment wins; line items are only
// consulted when there is no payment at all. A payment without a usable
// amount still suppresses the line item fallback.
func ParseWix(raw models.RawPayload) models.Record {
	var totalPrice, currency interface{}

	if payment, ok := first(raw["payments"]); ok {
		totalPrice = get(payment, "amount", "value")
		currency = get(payment, "amount", "currency")
	} else if item, ok := first(raw["lineItems"]); ok {
		totalPrice = get(item, "totalPrice", "value")
		currency = get(item, "totalPrice", "currency")
	}

	return models.Record{
		"order_number": raw["orderNumber"],
		"total_price":  totalPrice,
		"currency":     currency,
	}
}
