package model

// Stage is the trend-phase label derived from price vs. moving averages.
type Stage string

const (
	Stage2       Stage = "Stage 2"
	Stage1       Stage = "Stage 1"
	Stage3Strong Stage = "Stage 3 Strong"
	StageOther   Stage = "Other"
	StageError   Stage = "Error"
)

// PriceSummary is the headline price data shown above a report.
type PriceSummary struct {
	Current   float64
	Change    float64
	ChangePct float64
	Volume    float64
	High52w   float64
	Low52w    float64
}

// StageResult holds the stage classification and the averages behind it.
type StageResult struct {
	Stage  Stage
	Score  float64
	Price  float64
	MA50   float64
	MA150  float64
	MA200  float64
	Reason Reason
}

// KeyBarResult describes the most recent key bar within the scan window.
type KeyBarResult struct {
	Found        bool
	Bar          OHLCV
	CurrentClose float64
	// NearSignal is true when the current close is within 5% above the key bar close.
	NearSignal bool
	Score      float64
	// Flagged lists every key bar in the series, oldest first.
	Flagged []OHLCV
	Reason  Reason
}

// TechnicalIndicators holds all computed price-derived signals.
type TechnicalIndicators struct {
	Summary PriceSummary
	Stage   StageResult
	KeyBar  KeyBarResult
	Bars    int
}
