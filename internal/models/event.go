// Package models holds the value types that flow through the transformation
// pipeline: the raw inbound payload, the canonical record every parser
// produces, and the formatted payload every formatter produces.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrNotObject is returned when a body is not exactly one JSON object.
var ErrNotObject = errors.New("payload must be a single JSON object")

// SourceName identifies the platform that produced an inbound webhook.
type SourceName string

// FormatName identifies the destination rendering convention.
type FormatName string

const (
	SourceDefault    SourceName = "default"
	SourceGitHub     SourceName = "github"
	SourceStripe     SourceName = "stripe"
	SourceShopify    SourceName = "shopify"
	SourceWix        SourceName = "wix"
	SourceCloudflare SourceName = "cloudflare"
	SourceWebflow    SourceName = "webflow"
)

const (
	FormatDefault FormatName = "default"
	FormatSlack   FormatName = "slack"
	FormatDiscord FormatName = "discord"
	FormatMSTeams FormatName = "msteams"
	FormatEmail   FormatName = "email"
)

// AllSources is the source allow-list, in registration order.
var AllSources = []SourceName{
	SourceDefault,
	SourceGitHub,
	SourceStripe,
	SourceShopify,
	SourceWix,
	SourceCloudflare,
	SourceWebflow,
}

// AllFormats is the format allow-list, in registration order.
var AllFormats = []FormatName{
	FormatDefault,
	FormatSlack,
	FormatDiscord,
	FormatMSTeams,
	FormatEmail,
}

// RawPayload is the decoded JSON body exactly as the sender delivered it.
type RawPayload map[string]interface{}

// DecodeRawPayload reads exactly one JSON object from r. Numbers are kept
// as json.Number so large identifiers survive intact.
func DecodeRawPayload(r io.Reader) (RawPayload, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var decoded interface{}
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrNotObject)
	}

	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, ErrNotObject
	}
	return RawPayload(obj), nil
}

// Record is the canonical, source-independent representation of one event.
// Its key set depends on the source; a nil value marks a field the source
// payload did not carry.
type Record map[string]interface{}

// FormattedPayload is a record rendered for one destination.
type FormattedPayload map[string]interface{}

// String renders the record as compact JSON. Map keys are sorted by
// encoding/json so the output is stable across calls.
func (r Record) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", map[string]interface{}(r))
	}
	return string(data)
}

// Lookup returns the value stored under key, treating an explicit nil the
// same as a missing key.
func (r Record) Lookup(key string) (interface{}, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Text renders the value under key for display, or def when it is absent.
func (r Record) Text(key, def string) string {
	v, ok := r.Lookup(key)
	if !ok {
		return def
	}
	return Display(v)
}

// Display renders a record value the way notifications show it. Integral
// floats keep one decimal place so a converted amount of 10 reads "10.0".
func Display(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatFloat(val, 'f', 1, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return Display(float64(val))
	case json.Number:
		return val.String()
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Clone returns a shallow copy of the payload.
func (p RawPayload) Clone() RawPayload {
	out := make(RawPayload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// IngestionStats tracks pipeline outcomes for the readiness endpoint.
type IngestionStats struct {
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}
