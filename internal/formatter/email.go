package formatter

import "github.com/telhawk-systems/hookrelay/internal/models"

// DefaultEmailSubject is used when a record carries no subject.
const DefaultEmailSubject = "Webhook Notification"

// FormatEmail renders a subject/body pair. Records without a body are sent
// as their JSON rendering.
func FormatEmail(record models.Record) models.FormattedPayload {
	return models.FormattedPayload{
		"subject": record.Text("subject", DefaultEmailSubject),
		"body":    record.Text("body", record.String()),
	}
}
