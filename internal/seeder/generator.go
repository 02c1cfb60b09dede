// Package seeder produces realistic provider webhooks and posts them to a
// running hookrelay instance.
package seeder

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/telhawk-systems/hookrelay/internal/models"
)

// Generator builds provider-shaped payloads. It is not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator returns a generator seeded with seed. Zero picks a
// time-based seed.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{faker: gofakeit.New(seed)}
}

// Payload returns a webhook body as the given provider would send it.
func (g *Generator) Payload(source models.SourceName) models.RawPayload {
	switch source {
	case models.SourceGitHub:
		return g.github()
	case models.SourceStripe:
		return g.stripe()
	case models.SourceShopify:
		return g.shopify()
	case models.SourceWix:
		return g.wix()
	case models.SourceCloudflare:
		return g.cloudflare()
	case models.SourceWebflow:
		return g.webflow()
	default:
		return models.RawPayload{
			"message": g.faker.Sentence(8),
			"id":      g.faker.UUID(),
		}
	}
}

func (g *Generator) github() models.RawPayload {
	owner := strings.ToLower(g.faker.Username())
	repo := strings.ToLower(g.faker.AppName())
	repo = strings.ReplaceAll(repo, " ", "-")

	commits := make([]interface{}, g.faker.Number(1, 5))
	for i := range commits {
		commits[i] = map[string]interface{}{
			"id":      g.faker.LetterN(40),
			"message": g.faker.Sentence(5),
		}
	}

	return models.RawPayload{
		"ref": "refs/heads/" + g.faker.RandomString([]string{"main", "develop", "release"}),
		"repository": map[string]interface{}{
			"full_name": owner + "/" + repo,
		},
		"pusher": map[string]interface{}{
			"name":  g.faker.Username(),
			"email": g.faker.Email(),
		},
		"commits": commits,
	}
}

func (g *Generator) stripe() models.RawPayload {
	return models.RawPayload{
		"id":   "evt_" + g.faker.LetterN(24),
		"type": "charge.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       "ch_" + g.faker.LetterN(24),
				"amount":   g.faker.Number(100, 100000),
				"currency": strings.ToLower(g.faker.CurrencyShort()),
				"billing_details": map[string]interface{}{
					"email": g.faker.Email(),
					"name":  g.faker.Name(),
				},
			},
		},
	}
}

func (g *Generator) shopify() models.RawPayload {
	items := make([]interface{}, g.faker.Number(1, 3))
	for i := range items {
		items[i] = map[string]interface{}{
			"title":    g.faker.Word(),
			"quantity": g.faker.Number(1, 4),
			"price":    price(g.faker.Price(1, 200)),
		}
	}
	return models.RawPayload{
		"id":          g.faker.Number(1_000_000, 9_999_999),
		"email":       g.faker.Email(),
		"total_price": price(g.faker.Price(5, 500)),
		"currency":    g.faker.CurrencyShort(),
		"line_items":  items,
	}
}

func (g *Generator) wix() models.RawPayload {
	currency := g.faker.CurrencyShort()
	amount := map[string]interface{}{
		"value":    price(g.faker.Price(1, 300)),
		"currency": currency,
	}
	return models.RawPayload{
		"orderNumber": g.faker.DigitN(5),
		"payments":    []interface{}{map[string]interface{}{"amount": amount}},
		"lineItems": []interface{}{
			map[string]interface{}{
				"name":       g.faker.Word(),
				"totalPrice": amount,
			},
		},
	}
}

func (g *Generator) cloudflare() models.RawPayload {
	data := map[string]interface{}{
		"notification_name": "Stream Live Input",
		"input_id":          g.faker.LetterN(32),
		"event_type":        g.faker.RandomString([]string{"live_input.connected", "live_input.disconnected"}),
	}
	if g.faker.Bool() {
		data = map[string]interface{}{
			"alert_name":   "pages_event_alert",
			"event":        g.faker.RandomString([]string{"deploy", "build_failed"}),
			"project_name": g.faker.DomainName(),
			"commit_hash":  g.faker.LetterN(40),
		}
	}
	return models.RawPayload{
		"name": g.faker.AppName(),
		"text": g.faker.Sentence(6),
		"ts":   g.faker.Date().Unix(),
		"data": data,
	}
}

func (g *Generator) webflow() models.RawPayload {
	return models.RawPayload{
		"formId":       g.faker.UUID(),
		"submissionId": g.faker.UUID(),
		"siteId":       g.faker.UUID(),
		"triggeredBy":  "form_submission",
		"data": map[string]interface{}{
			"email":   g.faker.Email(),
			"name":    g.faker.Name(),
			"company": g.faker.Company(),
		},
	}
}

func price(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
