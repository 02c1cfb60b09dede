package formatter

import "github.com/telhawk-systems/hookrelay/internal/models"

// FormatPassthrough forwards the record unchanged.
func FormatPassthrough(record models.Record) models.FormattedPayload {
	out := make(models.FormattedPayload, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}

// FormatSlack wraps the record in a Slack incoming-webhook body. A record
// that already carries text is forwarded as-is.
func FormatSlack(record models.Record) models.FormattedPayload {
	return models.FormattedPayload{
		"text": record.Text("text", record.String()),
	}
}
