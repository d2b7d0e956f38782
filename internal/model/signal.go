package model

import "time"

// Category maxima.
const (
	MaxTechnicalScore   = 6.0
	MaxFundamentalScore = 5.0
	MaxRemarksScore     = 2.0
	MaxTotalScore       = MaxTechnicalScore + MaxFundamentalScore + MaxRemarksScore
)

// Reason explains why a sub-score was degraded. Empty means the score was computed from data.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonDataUnavailable     Reason = "data_unavailable"
	ReasonInsufficientHistory Reason = "insufficient_history"
	ReasonMalformedField      Reason = "malformed_field"
	ReasonRateLimited         Reason = "rate_limited"
	ReasonAuthFailure         Reason = "auth_failure"
	ReasonProviderInfo        Reason = "provider_information"
	ReasonTransport           Reason = "transport_failure"
	ReasonInvalidInput        Reason = "invalid_input"
)

// FactorScore represents a single indicator's scoring result.
type FactorScore struct {
	Name       string
	Score      float64
	Max        float64
	Source     Source
	Reason     Reason
	Commentary string
}

// Diagnostic records a degraded input so that zeros are never shown unexplained.
type Diagnostic struct {
	Indicator string
	Reason    Reason
	Detail    string
}

// Rating is the qualitative band for a total percentage.
type Rating struct {
	Label string
	Stars int
}

// ScoreReport is the final output of one analysis.
type ScoreReport struct {
	Ticker      string
	CompanyName string
	GeneratedAt time.Time

	Price     PriceSummary
	Technical TechnicalIndicators
	Inputs    QualitativeInputs

	TechnicalFactors   []FactorScore
	FundamentalFactors []FactorScore
	RemarkFactors      []FactorScore

	TechnicalScore   float64
	FundamentalScore float64
	RemarksScore     float64
	TotalScore       float64
	Percentage       float64
	Rating           Rating

	FundamentalSource  Source
	FundamentalDetails FundamentalDetails

	Advisories  []string
	Diagnostics []Diagnostic
}

// SumScores adds up factor scores.
func SumScores(factors []FactorScore) float64 {
	total := 0.0
	for _, f := range factors {
		total += f.Score
	}
	return total
}
