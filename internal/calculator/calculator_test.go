package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCheck/internal/model"
)

func nd(vals ...float64) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewNullDecimal(decimal.NewFromFloat(v))
	}
	return out
}

func flatBars(n int, price, volume float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price + 0.1,
			Low:    price - 0.1,
			Close:  price,
			Volume: volume,
		}
	}
	return bars
}

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-9)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	assert.Error(t, err)
	_, err = CalculateSMA([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestRollingMean_InclusiveWindow(t *testing.T) {
	means, ok := RollingMean([]float64{1, 2, 3, 4}, 2)
	assert.Equal(t, []bool{false, true, true, true}, ok)
	assert.InDelta(t, 1.5, means[1], 1e-9)
	assert.InDelta(t, 3.5, means[3], 1e-9)
}

func TestCalculatePriceSummary(t *testing.T) {
	bars := flatBars(300, 10, 1000)
	bars[10].High = 50
	bars[len(bars)-1].Close = 11
	bars[len(bars)-1].Low = 2

	s, err := CalculatePriceSummary(bars)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, s.Current, 1e-9)
	assert.InDelta(t, 1.0, s.Change, 1e-9)
	assert.InDelta(t, 10.0, s.ChangePct, 1e-9)
	assert.InDelta(t, 1000.0, s.Volume, 1e-9)
	// bar 10 is outside the trailing 252-bar window
	assert.InDelta(t, 10.1, s.High52w, 1e-9)
	assert.InDelta(t, 2.0, s.Low52w, 1e-9)

	_, err = CalculatePriceSummary(nil)
	assert.Error(t, err)
}

func TestYoYGrowth_Scenario(t *testing.T) {
	growth := YoYGrowth(nd(120, 100, 90, 80, 110, 95, 85, 75))
	require.Len(t, growth, 4)
	assert.InDelta(t, 9.0909, growth[0].Float64, 1e-3)
	assert.InDelta(t, 5.2632, growth[1].Float64, 1e-3)
	assert.True(t, Accelerating(growth))
}

func TestYoYGrowth_TooShort(t *testing.T) {
	assert.Empty(t, YoYGrowth(nd(1, 2, 3, 4)))
	assert.Len(t, YoYGrowth(nd(1, 2, 3, 4, 5)), 1)
}

func TestYoYGrowth_CapsAtEight(t *testing.T) {
	assert.Len(t, YoYGrowth(nd(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)), MaxGrowthPoints)
}

func TestYoYGrowth_NullOnZeroOrMissing(t *testing.T) {
	series := nd(120, 100, 0, 80, 0, 95, 85, 75)
	series[1] = decimal.NullDecimal{}
	growth := YoYGrowth(series)
	require.Len(t, growth, 4)
	assert.False(t, growth[0].Valid, "prior-year zero")
	assert.False(t, growth[1].Valid, "current missing")
	assert.False(t, growth[2].Valid, "current zero")
	assert.True(t, growth[3].Valid)
	assert.False(t, Accelerating(growth))
}

func TestYoYGrowth_NegativeBase(t *testing.T) {
	growth := YoYGrowth(nd(-50, 0, 0, 0, -100))
	require.Len(t, growth, 1)
	assert.InDelta(t, 50.0, growth[0].Float64, 1e-9)
}

func TestAccelerating(t *testing.T) {
	tests := []struct {
		name   string
		growth []null.Float
		want   bool
	}{
		{"rising", []null.Float{null.FloatFrom(20), null.FloatFrom(10)}, true},
		{"falling", []null.Float{null.FloatFrom(10), null.FloatFrom(20)}, false},
		{"equal", []null.Float{null.FloatFrom(10), null.FloatFrom(10)}, false},
		{"null latest", []null.Float{{}, null.FloatFrom(10)}, false},
		{"single", []null.Float{null.FloatFrom(10)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accelerating(tt.growth))
		})
	}
}

func TestGrossMargins(t *testing.T) {
	rev := nd(100, 0, 200)
	gp := nd(50, 10, 70)
	gp = append(gp[:2], decimal.NullDecimal{})
	margins := GrossMargins(rev, gp, 8)
	require.Len(t, margins, 3)
	assert.InDelta(t, 50.0, margins[0].Float64, 1e-9)
	assert.False(t, margins[1].Valid)
	assert.False(t, margins[2].Valid)
}

func TestAnnualizedROE(t *testing.T) {
	roe := AnnualizedROE(nd(10, 5), nd(200, 0), 4)
	require.Len(t, roe, 2)
	assert.InDelta(t, 20.0, roe[0].Float64, 1e-9)
	assert.False(t, roe[1].Valid)
}

func TestClassifyStage(t *testing.T) {
	tests := []struct {
		name               string
		p, m50, m150, m200 float64
		wantStage          model.Stage
		wantScore          float64
	}{
		{"stage 2", 110, 100, 90, 80, model.Stage2, 1.0},
		{"stage 1", 110, 100, 90, 95, model.Stage1, 0.5},
		{"stage 3 strong", 110, 90, 100, 80, model.Stage3Strong, 0.5},
		{"below 50", 80, 100, 90, 80, model.StageOther, 0},
		{"ties", 100, 100, 100, 100, model.StageOther, 0},
		{"nan", math.NaN(), 100, 90, 80, model.StageError, 0},
		{"inf", 110, math.Inf(1), 90, 80, model.StageError, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, score := ClassifyStage(tt.p, tt.m50, tt.m150, tt.m200)
			assert.Equal(t, tt.wantStage, stage)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

func TestEvaluateStage(t *testing.T) {
	res := EvaluateStage(flatBars(199, 10, 100))
	assert.Equal(t, model.ReasonInsufficientHistory, res.Reason)
	assert.Zero(t, res.Score)

	bars := flatBars(250, 10, 100)
	for i := range bars {
		bars[i].Close = float64(i + 1)
	}
	res = EvaluateStage(bars)
	assert.Equal(t, model.Stage2, res.Stage)
	assert.Equal(t, 1.0, res.Score)
	assert.InDelta(t, 250.0, res.Price, 1e-9)
	assert.InDelta(t, 225.5, res.MA50, 1e-9)
}

func keyBarSeries() []model.OHLCV {
	bars := flatBars(40, 10, 100)
	bars[37] = model.OHLCV{Time: bars[37].Time, Open: 10, High: 11, Low: 9.9, Close: 10.5, Volume: 500}
	return bars
}

func TestDetectKeyBar_TooShort(t *testing.T) {
	res := DetectKeyBar(flatBars(29, 10, 100))
	assert.False(t, res.Found)
	assert.Zero(t, res.Score)
	assert.Equal(t, model.ReasonInsufficientHistory, res.Reason)
}

func TestDetectKeyBar_NearSignal(t *testing.T) {
	res := DetectKeyBar(keyBarSeries())
	require.True(t, res.Found)
	assert.Equal(t, 10.5, res.Bar.Close)
	assert.True(t, res.NearSignal)
	assert.Equal(t, 1.0, res.Score)
	assert.Len(t, res.Flagged, 1)
}

func TestDetectKeyBar_RunUp(t *testing.T) {
	bars := keyBarSeries()
	bars[39].Close = 12
	res := DetectKeyBar(bars)
	require.True(t, res.Found)
	assert.False(t, res.NearSignal)
	assert.Equal(t, 0.5, res.Score)
}

func TestDetectKeyBar_OutsideScanWindow(t *testing.T) {
	bars := flatBars(60, 10, 100)
	bars[40] = model.OHLCV{Time: bars[40].Time, Open: 10, High: 11, Low: 9.9, Close: 10.5, Volume: 500}
	res := DetectKeyBar(bars)
	assert.False(t, res.Found)
	assert.Zero(t, res.Score)
	assert.Len(t, res.Flagged, 1)
}

func TestDetectKeyBar_SmallMoveIgnored(t *testing.T) {
	bars := keyBarSeries()
	bars[37].Close = 10.1
	assert.False(t, DetectKeyBar(bars).Found)
}

func TestDetectKeyBar_Idempotent(t *testing.T) {
	bars := keyBarSeries()
	assert.Equal(t, DetectKeyBar(bars), DetectKeyBar(bars))
}
