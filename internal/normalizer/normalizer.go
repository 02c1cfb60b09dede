// Package normalizer converts raw webhook payloads into canonical records.
//
// Each supported source has exactly one Parser. Parsers tolerate any
// payload shape: a missing or wrongly typed field becomes a nil value in the
// record, never an error, so the pipeline cannot fail on payload shape.
//
// Adding a source takes two steps: implement Parser in this package and add
// the name to models.AllSources plus the table in Default.
package normalizer

import (
	"fmt"

	"github.com/telhawk-systems/hookrelay/internal/models"
)

// Parser converts one source's raw payload into a canonical record.
type Parser interface {
	Parse(raw models.RawPayload) models.Record
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(raw models.RawPayload) models.Record

// Parse calls f(raw).
func (f ParserFunc) Parse(raw models.RawPayload) models.Record {
	return f(raw)
}

// Registry maps source names to parsers. It is immutable once built.
type Registry struct {
	items map[models.SourceName]Parser
	order []models.SourceName
}

// Entry binds a source name to its parser.
type Entry struct {
	Source models.SourceName
	Parser Parser
}

// NewRegistry constructs a registry from the given entries. Duplicate or
// nil registrations are programming errors and are rejected.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{items: make(map[models.SourceName]Parser, len(entries))}
	for _, e := range entries {
		if e.Parser == nil {
			return nil, fmt.Errorf("nil parser for source %q", e.Source)
		}
		if _, exists := r.items[e.Source]; exists {
			return nil, fmt.Errorf("duplicate parser for source %q", e.Source)
		}
		r.items[e.Source] = e.Parser
		r.order = append(r.order, e.Source)
	}
	return r, nil
}

// Default returns the registry of built-in parsers, one per entry in
// models.AllSources.
func Default() *Registry {
	r, err := NewRegistry(
		Entry{models.SourceDefault, ParserFunc(ParsePassthrough)},
		Entry{models.SourceGitHub, ParserFunc(ParseGitHub)},
		Entry{models.SourceStripe, ParserFunc(ParseStripe)},
		Entry{models.SourceShopify, ParserFunc(ParseShopify)},
		Entry{models.SourceWix, ParserFunc(ParseWix)},
		Entry{models.SourceCloudflare, ParserFunc(ParseCloudflare)},
		Entry{models.SourceWebflow, ParserFunc(ParseWebflow)},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the parser registered for source.
func (r *Registry) Resolve(source models.SourceName) (Parser, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.items[source]
	return p, ok
}

// Sources lists registered source names in registration order.
func (r *Registry) Sources() []models.SourceName {
	if r == nil {
		return nil
	}
	out := make([]models.SourceName, len(r.order))
	copy(out, r.order)
	return out
}
