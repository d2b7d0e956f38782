package fundamentals

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"StockCheck/internal/model"
)

// Yahoo line-item names, preferred name first.
var (
	RevenueItems     = []string{"Total Revenue", "Operating Revenue"}
	NetIncomeItems   = []string{"Net Income", "Net Income Common Stockholders"}
	GrossProfitItems = []string{"Gross Profit"}
	EquityItems      = []string{"Stockholders Equity", "Common Stock Equity"}
	EBITDAItems      = []string{"EBITDA", "Normalized EBITDA"}
)

const fiscalDateLayout = "2006-01-02"

// Extract converts a provider payload into a quarterly series of at most
// model.MaxQuarters records, most recent first. Field problems never fail the
// whole extraction; they are reported as diagnostics.
func Extract(p Payload) (model.QuarterSeries, []model.Diagnostic) {
	if p == nil {
		return nil, []model.Diagnostic{{Indicator: "fundamentals", Reason: model.ReasonDataUnavailable, Detail: "no payload"}}
	}
	var (
		series model.QuarterSeries
		issues *fieldIssues
	)
	switch v := p.(type) {
	case AlphaVantageReports:
		series, issues = extractAlphaVantage(v)
	case *AlphaVantageReports:
		series, issues = extractAlphaVantage(*v)
	case YahooStatements:
		series, issues = extractYahoo(v)
	case *YahooStatements:
		series, issues = extractYahoo(*v)
	default:
		return nil, []model.Diagnostic{{Indicator: "fundamentals", Reason: model.ReasonMalformedField, Detail: fmt.Sprintf("unsupported payload %T", p)}}
	}
	return series, issues.diagnostics()
}

func extractAlphaVantage(p AlphaVantageReports) (model.QuarterSeries, *fieldIssues) {
	issues := newFieldIssues()
	reports := p.Reports
	if len(reports) > model.MaxQuarters {
		reports = reports[:model.MaxQuarters]
	}
	series := make(model.QuarterSeries, 0, len(reports))
	for _, r := range reports {
		var rec model.QuarterRecord
		rec.Revenue = issues.track("revenue")(ParseAlphaVantageField(r, "totalRevenue"))
		rec.NetIncome = issues.track("net_income")(ParseAlphaVantageField(r, "netIncome"))
		rec.GrossProfit = issues.track("gross_profit")(ParseAlphaVantageField(r, "grossProfit"))
		// EBITDA only backs the Rule of 40 when gross profit is missing, so gaps are not reported.
		rec.EBITDA, _ = ParseAlphaVantageField(r, "ebitda")
		if s, ok := r["fiscalDateEnding"].(string); ok {
			if t, err := time.Parse(fiscalDateLayout, s); err == nil {
				rec.PeriodEnd = t
			}
		}
		series = append(series, rec)
	}
	// The income statement carries no balance-sheet line items.
	if len(series) > 0 {
		issues.missing("stockholders_equity", len(series))
	}
	return series, issues
}

// ParseAlphaVantageField reads a numeric string field from an Alpha Vantage report.
// A missing key or "None" is data_unavailable, an empty string is zero and any
// other non-numeric value is malformed_field.
func ParseAlphaVantageField(report map[string]any, key string) (decimal.NullDecimal, model.Reason) {
	raw, ok := report[key]
	if !ok || raw == nil {
		return decimal.NullDecimal{}, model.ReasonDataUnavailable
	}
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		switch s {
		case "":
			return decimal.NewNullDecimal(decimal.Zero), model.ReasonNone
		case "None", "-", "N/A":
			return decimal.NullDecimal{}, model.ReasonDataUnavailable
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}, model.ReasonMalformedField
		}
		return decimal.NewNullDecimal(d), model.ReasonNone
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v)), model.ReasonNone
	default:
		return decimal.NullDecimal{}, model.ReasonMalformedField
	}
}

func extractYahoo(p YahooStatements) (model.QuarterSeries, *fieldIssues) {
	issues := newFieldIssues()
	n := len(p.Income.Periods)
	if n > model.MaxQuarters {
		n = model.MaxQuarters
	}
	if n == 0 {
		return nil, issues
	}

	revenue := p.Income.Row(RevenueItems...)
	netIncome := p.Income.Row(NetIncomeItems...)
	grossProfit := p.Income.Row(GrossProfitItems...)
	ebitda := p.Income.Row(EBITDAItems...)
	equity := alignByPeriod(p.Income.Periods[:n], p.Balance.Periods, p.Balance.Row(EquityItems...))

	series := make(model.QuarterSeries, n)
	for i := 0; i < n; i++ {
		series[i] = model.QuarterRecord{
			PeriodEnd:          p.Income.Periods[i],
			Revenue:            issues.track("revenue")(cell(revenue, i)),
			NetIncome:          issues.track("net_income")(cell(netIncome, i)),
			GrossProfit:        issues.track("gross_profit")(cell(grossProfit, i)),
			StockholdersEquity: issues.track("stockholders_equity")(cell(equity, i)),
		}
		series[i].EBITDA, _ = cell(ebitda, i)
	}
	return series, issues
}

func cell(row []decimal.NullDecimal, i int) (decimal.NullDecimal, model.Reason) {
	if i >= len(row) || !row[i].Valid {
		return decimal.NullDecimal{}, model.ReasonDataUnavailable
	}
	return row[i], model.ReasonNone
}

// alignByPeriod reorders a balance-sheet row so that it lines up with the
// income statement periods. Periods with no balance-sheet entry are null.
func alignByPeriod(periods, balancePeriods []time.Time, row []decimal.NullDecimal) []decimal.NullDecimal {
	if row == nil {
		return nil
	}
	byDate := make(map[string]decimal.NullDecimal, len(balancePeriods))
	for i, t := range balancePeriods {
		if i < len(row) {
			byDate[t.Format(fiscalDateLayout)] = row[i]
		}
	}
	out := make([]decimal.NullDecimal, len(periods))
	for i, t := range periods {
		out[i] = byDate[t.Format(fiscalDateLayout)]
	}
	return out
}

type issueKey struct {
	field  string
	reason model.Reason
}

type fieldIssues struct {
	counts map[issueKey]int
}

func newFieldIssues() *fieldIssues {
	return &fieldIssues{counts: make(map[issueKey]int)}
}

// track returns a recorder for one field that counts non-empty reasons and passes the value through.
func (f *fieldIssues) track(field string) func(decimal.NullDecimal, model.Reason) decimal.NullDecimal {
	return func(v decimal.NullDecimal, reason model.Reason) decimal.NullDecimal {
		if reason != model.ReasonNone {
			f.counts[issueKey{field, reason}]++
		}
		return v
	}
}

func (f *fieldIssues) missing(field string, n int) {
	f.counts[issueKey{field, model.ReasonDataUnavailable}] += n
}

func (f *fieldIssues) diagnostics() []model.Diagnostic {
	if f == nil || len(f.counts) == 0 {
		return nil
	}
	keys := make([]issueKey, 0, len(f.counts))
	for k := range f.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].field != keys[j].field {
			return keys[i].field < keys[j].field
		}
		return keys[i].reason < keys[j].reason
	})
	out := make([]model.Diagnostic, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.Diagnostic{
			Indicator: k.field,
			Reason:    k.reason,
			Detail:    fmt.Sprintf("%d quarter(s) without a usable value", f.counts[k]),
		})
	}
	return out
}
