package model

// MarketPulse is the user's read of overall market conditions.
type MarketPulse string

const (
	PulseGreen      MarketPulse = "Green - Acceleration"
	PulseGreyStrong MarketPulse = "Grey Strong - Accumulation"
	PulseGreyWeak   MarketPulse = "Grey Weak - Distribution"
	PulseRed        MarketPulse = "Red - Deceleration"
)

// MarketPulses lists the accepted pulse labels in display order.
var MarketPulses = []MarketPulse{PulseGreen, PulseGreyStrong, PulseGreyWeak, PulseRed}

// Valid reports whether p is one of the known labels.
func (p MarketPulse) Valid() bool {
	for _, known := range MarketPulses {
		if p == known {
			return true
		}
	}
	return false
}

// QualitativeInputs are the user-maintained flags read at scoring time.
type QualitativeInputs struct {
	MarketPulse              MarketPulse `json:"market_pulse"`
	ATRPercentile            int         `json:"atr_percentile"`
	AccumulationDistribution int         `json:"accumulation_distribution"`
	InsiderActivity          int         `json:"insider_activity"`
	TopRatedGroup            bool        `json:"top_rated_group"`
	NewDevelopment           bool        `json:"new_development"`
}

// DefaultInputs returns the values used before the user has set anything.
func DefaultInputs() QualitativeInputs {
	return QualitativeInputs{
		MarketPulse:   PulseGreen,
		ATRPercentile: 50,
	}
}
