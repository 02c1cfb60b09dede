package formatter

import (
	"strings"

	"github.com/telhawk-systems/hookrelay/internal/models"
)

const (
	teamsCardType    = "MessageCard"
	teamsCardContext = "https://schema.org/extensions"
	teamsThemeColor  = "0076D7"
	teamsSummary     = "New charge succeeded"
	notAvailable     = "N/A"
)

// FormatMSTeams renders a payment as a Microsoft Teams connector card.
func FormatMSTeams(record models.Record) models.FormattedPayload {
	amount := record.Text("amount", notAvailable)
	currency := strings.ToUpper(record.Text("currency", notAvailable))
	email := record.Text("customer_email", notAvailable)

	return models.FormattedPayload{
		"@type":      teamsCardType,
		"@context":   teamsCardContext,
		"themeColor": teamsThemeColor,
		"summary":    teamsSummary,
		"sections": []interface{}{
			map[string]interface{}{
				"activityTitle": teamsSummary,
				"facts": []interface{}{
					map[string]interface{}{"name": "Amount", "value": amount + " " + currency},
					map[string]interface{}{"name": "Customer Email", "value": email},
				},
			},
		},
	}
}
