package formatter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/hookrelay/internal/models"
)

func TestDefaultRegistry_CoversEveryFormat(t *testing.T) {
	r := Default()
	for _, format := range models.AllFormats {
		f, ok := r.Resolve(format)
		assert.True(t, ok, "missing formatter for %s", format)
		assert.NotNil(t, f)
	}
	assert.Equal(t, models.AllFormats, r.Formats())

	_, ok := r.Resolve("pager")
	assert.False(t, ok)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		Entry{models.FormatSlack, FormatterFunc(FormatSlack)},
		Entry{models.FormatSlack, FormatterFunc(FormatSlack)},
	)
	assert.Error(t, err)

	_, err = NewRegistry(Entry{Format: models.FormatEmail})
	assert.Error(t, err)
}

func TestFormatDiscord(t *testing.T) {
	tests := []struct {
		name   string
		record models.Record
		want   string
	}{
		{
			name:   "push record",
			record: models.Record{"repository": "test/repo", "pusher": "testuser", "commits": 2},
			want:   "New push to test/repo by testuser with 2 commits.",
		},
		{
			name:   "missing keys use defaults",
			record: models.Record{},
			want:   "New push to unknown repository by unknown user with unknown number of commits.",
		},
		{
			name:   "nil values use defaults",
			record: models.Record{"repository": nil, "pusher": nil, "commits": 0},
			want:   "New push to unknown repository by unknown user with 0 commits.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDiscord(tt.record)
			assert.Equal(t, models.FormattedPayload{"content": tt.want}, got)
		})
	}
}

func TestFormatDiscord_NullRepositoryMatchesAbsent(t *testing.T) {
	assert.Equal(t, FormatDiscord(models.Record{}), FormatDiscord(models.Record{"repository": nil, "pusher": nil, "commits": nil}))
}

func TestFormatEmail(t *testing.T) {
	t.Run("subject and body from record", func(t *testing.T) {
		got := FormatEmail(models.Record{"subject": "Test Email", "body": "This is a test email body."})
		assert.Equal(t, "Test Email", got["subject"])
		assert.Equal(t, "This is a test email body.", got["body"])
	})

	t.Run("defaults", func(t *testing.T) {
		record := models.Record{"order_id": "42", "currency": "USD"}
		got := FormatEmail(record)
		assert.Equal(t, DefaultEmailSubject, got["subject"])
		assert.Equal(t, `{"currency":"USD","order_id":"42"}`, got["body"])
	})
}

func TestFormatMSTeams(t *testing.T) {
	t.Run("payment record", func(t *testing.T) {
		got := FormatMSTeams(models.Record{"amount": 10.0, "currency": "usd", "customer_email": "test@example.com"})

		assert.Equal(t, "MessageCard", got["@type"])
		assert.Equal(t, "https://schema.org/extensions", got["@context"])
		assert.Equal(t, "0076D7", got["themeColor"])
		assert.Equal(t, "New charge succeeded", got["summary"])

		facts := teamsFacts(t, got)
		assert.Equal(t, "10.0 USD", facts["Amount"])
		assert.Equal(t, "test@example.com", facts["Customer Email"])
	})

	t.Run("defaults", func(t *testing.T) {
		facts := teamsFacts(t, FormatMSTeams(models.Record{}))
		assert.Equal(t, "N/A N/A", facts["Amount"])
		assert.Equal(t, "N/A", facts["Customer Email"])
	})

	t.Run("fractional amount", func(t *testing.T) {
		facts := teamsFacts(t, FormatMSTeams(models.Record{"amount": 19.99, "currency": "eur"}))
		assert.Equal(t, "19.99 EUR", facts["Amount"])
	})
}

func teamsFacts(t *testing.T, payload models.FormattedPayload) map[string]string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var card struct {
		Sections []struct {
			ActivityTitle string `json:"activityTitle"`
			Facts         []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"facts"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(data, &card))
	require.Len(t, card.Sections, 1)

	out := map[string]string{}
	for _, f := range card.Sections[0].Facts {
		out[f.Name] = f.Value
	}
	return out
}

func TestFormatSlack(t *testing.T) {
	got := FormatSlack(models.Record{"message": "Hello, world!"})
	assert.Equal(t, models.FormattedPayload{"text": `{"message":"Hello, world!"}`}, got)

	got = FormatSlack(models.Record{"text": "already slack"})
	assert.Equal(t, "already slack", got["text"])
}

func TestFormatPassthrough(t *testing.T) {
	record := models.Record{"message": "Hello, world!", "n": 1}
	got := FormatPassthrough(record)
	assert.Equal(t, models.FormattedPayload{"message": "Hello, world!", "n": 1}, got)

	got["x"] = 1
	assert.NotContains(t, record, "x")
}

func TestFormattersAreIdempotent(t *testing.T) {
	record := models.Record{"amount": 10.0, "currency": "usd", "repository": "a/b", "z": []interface{}{1, 2}}
	for _, format := range models.AllFormats {
		f, _ := Default().Resolve(format)
		first, err := json.Marshal(f.Format(record))
		require.NoError(t, err)
		second, err := json.Marshal(f.Format(record))
		require.NoError(t, err)
		assert.Equal(t, first, second, string(format))
	}
}
