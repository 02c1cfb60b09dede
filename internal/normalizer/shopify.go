package normalizer

import "github.com/telhawk-systems/hookrelay/internal/models"

// ParseShopify reads an orders/create event. Prices stay in the string form
// Shopify sends them in.
func ParseShopify(raw models.RawPayload) models.Record {
	return models.Record{
		"order_id":       raw["id"],
		"total_price":    raw["total_price"],
		"currency":       raw["currency"],
		"customer_email": raw["email"],
	}
}
