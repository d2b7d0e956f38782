// Package fundamentals normalizes provider financial-statement payloads into
// a most-recent-first quarterly series.
package fundamentals

import (
	"time"

	"github.com/shopspring/decimal"
)

// Schema identifies the shape of a provider payload.
type Schema int

const (
	// SchemaRich is a list of per-quarter reports keyed by field name.
	SchemaRich Schema = iota + 1
	// SchemaSparse is a set of statements keyed by line-item name.
	SchemaSparse
)

func (s Schema) String() string {
	switch s {
	case SchemaRich:
		return "rich"
	case SchemaSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// Payload is one of AlphaVantageReports or YahooStatements.
type Payload interface {
	Kind() Schema
	isPayload()
}

// AlphaVantageReports holds the quarterlyReports array of an INCOME_STATEMENT response.
// Values are the raw decoded JSON, normally strings.
type AlphaVantageReports struct {
	Reports []map[string]any `json:"quarterlyReports"`
}

func (AlphaVantageReports) Kind() Schema { return SchemaRich }
func (AlphaVantageReports) isPayload()   {}

// Statement is a table of line items over reporting periods.
// Periods are most-recent-first and every line item is aligned with them.
type Statement struct {
	Periods   []time.Time                      `json:"periods"`
	LineItems map[string][]decimal.NullDecimal `json:"line_items"`
}

// Empty reports whether the statement has no periods.
func (s Statement) Empty() bool { return len(s.Periods) == 0 }

// Row returns the first line item present among names, or nil.
func (s Statement) Row(names ...string) []decimal.NullDecimal {
	for _, name := range names {
		if row, ok := s.LineItems[name]; ok {
			return row
		}
	}
	return nil
}

// YahooStatements holds quarterly income and balance statements.
type YahooStatements struct {
	Income  Statement `json:"income"`
	Balance Statement `json:"balance"`
}

func (YahooStatements) Kind() Schema { return SchemaSparse }
func (YahooStatements) isPayload()   {}
