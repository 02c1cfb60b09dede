package formatter

import (
	"fmt"

	"github.com/telhawk-systems/hookrelay/internal/models"
)

// FormatDiscord renders a push summary as a Discord message.
func FormatDiscord(record models.Record) models.FormattedPayload {
	repository := record.Text("repository", "unknown repository")
	pusher := record.Text("pusher", "unknown user")
	commits := record.Text("commits", "unknown number of")

	return models.FormattedPayload{
		"content": fmt.Sprintf("New push to %s by %s with %s commits.", repository, pusher, commits),
	}
}
