package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/guregu/null/v6"

	"StockCheck/internal/model"
)

// textStyle renders bold and escaping for either Telegram HTML or a terminal.
type textStyle struct{ html bool }

func (s textStyle) bold(v string) string {
	if s.html {
		return "<b>" + html.EscapeString(v) + "</b>"
	}
	return v
}

func (s textStyle) esc(v string) string {
	if s.html {
		return html.EscapeString(v)
	}
	return v
}

// FormatReport renders a score report. With asHTML the output uses Telegram's
// HTML subset; otherwise it is plain text for a terminal.
func FormatReport(r *model.ScoreReport, asHTML bool) string {
	st := textStyle{html: asHTML}
	var b strings.Builder

	title := r.Ticker
	if r.CompanyName != "" {
		title = fmt.Sprintf("%s (%s)", r.CompanyName, r.Ticker)
	}
	fmt.Fprintf(&b, "📊 %s | %s\n", st.bold(title), r.GeneratedAt.Format("2006-01-02 15:04"))
	p := r.Price
	fmt.Fprintf(&b, "Price: %.2f (%+.2f, %+.2f%%) | Volume: %s\n", p.Current, p.Change, p.ChangePct, humanVolume(p.Volume))
	fmt.Fprintf(&b, "52w range: %.2f - %.2f\n\n", p.Low52w, p.High52w)

	fmt.Fprintf(&b, "%s %s\n", st.bold("Overall:"), st.esc(fmt.Sprintf("%.1f / %.0f (%.1f%%) %s %s",
		r.TotalScore, model.MaxTotalScore, r.Percentage, strings.Repeat("★", r.Rating.Stars), r.Rating.Label)))
	fmt.Fprintf(&b, "Technical %.1f/%.0f | Fundamental %.1f/%.0f | Remarks %.1f/%.0f\n\n",
		r.TechnicalScore, model.MaxTechnicalScore, r.FundamentalScore, model.MaxFundamentalScore,
		r.RemarksScore, model.MaxRemarksScore)

	writeFactors(&b, st, "📈 Technical", model.SourceComputed, r.TechnicalFactors)
	writeFactors(&b, st, fmt.Sprintf("🏦 Fundamental (%s)", r.FundamentalSource), r.FundamentalSource, r.FundamentalFactors)
	writeFactors(&b, st, "📝 Remarks", model.SourceUser, r.RemarkFactors)
	writeQuarters(&b, st, r.FundamentalDetails)

	if len(r.Diagnostics) > 0 {
		b.WriteString(st.bold("Diagnostics:") + "\n")
		for _, d := range r.Diagnostics {
			line := fmt.Sprintf("  %s: %s", d.Indicator, d.Reason)
			if d.Detail != "" {
				line += " - " + d.Detail
			}
			b.WriteString(st.esc(line) + "\n")
		}
		b.WriteString("\n")
	}

	if len(r.Advisories) > 0 {
		b.WriteString(st.bold("Notes:") + "\n")
		for _, a := range r.Advisories {
			fmt.Fprintf(&b, "  • %s\n", st.esc(a))
		}
	}
	return b.String()
}

// writeFactors names a factor's source only when it differs from the section's.
func writeFactors(b *strings.Builder, st textStyle, title string, section model.Source, factors []model.FactorScore) {
	b.WriteString(st.bold(title) + "\n")
	for _, f := range factors {
		line := fmt.Sprintf("  %s: %.1f/%.0f", f.Name, f.Score, f.Max)
		if f.Commentary != "" {
			line += " - " + f.Commentary
		}
		if f.Source != "" && f.Source != section {
			line += fmt.Sprintf(" (%s)", f.Source)
		}
		if f.Reason != model.ReasonNone {
			line += fmt.Sprintf(" [%s]", f.Reason)
		}
		b.WriteString(st.esc(line) + "\n")
	}
	b.WriteString("\n")
}

func writeQuarters(b *strings.Builder, st textStyle, d model.FundamentalDetails) {
	if len(d.QuarterLabels) == 0 {
		return
	}
	b.WriteString(st.bold("Quarterly detail") + "\n")
	for i, label := range d.QuarterLabels {
		line := fmt.Sprintf("  %s  sales %s  earnings %s  margin %s",
			label, pct(at(d.SalesGrowth, i)), pct(at(d.EarningsGrowth, i)), pct(at(d.GrossMargins, i)))
		b.WriteString(st.esc(line) + "\n")
	}
	if d.ROE.Valid {
		b.WriteString(st.esc(fmt.Sprintf("  ROE %.1f%% (%s)", d.ROE.Float64, d.ROESource)) + "\n")
	}
	b.WriteString("\n")
}

func at(series []null.Float, i int) null.Float {
	if i >= len(series) {
		return null.Float{}
	}
	return series[i]
}

func pct(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", v.Float64)
}

func humanVolume(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
