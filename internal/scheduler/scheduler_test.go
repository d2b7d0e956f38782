package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCheck/internal/model"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	calls   []string
	ratings []string
	err     error
	block   chan struct{}
	delay   time.Duration

	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeAnalyzer) Analyze(_ context.Context, ticker string) (*model.ScoreReport, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.block != nil {
		<-f.block
	}
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ticker)
	if f.err != nil {
		return nil, f.err
	}
	label := "Good"
	if n := len(f.calls) - 1; n < len(f.ratings) {
		label = f.ratings[n]
	}
	return &model.ScoreReport{Ticker: strings.ToUpper(ticker), Rating: model.Rating{Label: label}}, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func TestRunNow_SendsReport(t *testing.T) {
	a := &fakeAnalyzer{ratings: []string{"Good", "Excellent"}}
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), a, sender, "acme", nil)

	s.RunNow()
	s.RunNow()
	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0], "<b>ACME</b>")
	assert.Contains(t, sender.sent[1], "Rating changed: Good → Excellent")
	assert.Equal(t, "Excellent", s.Last().Rating.Label)
	assert.Equal(t, []string{"ACME", "ACME"}, a.calls)
}

func TestRunNow_PrintsWithoutNotifier(t *testing.T) {
	var out bytes.Buffer
	s := NewScheduler(context.Background(), &fakeAnalyzer{}, nil, "ACME", &out)
	s.RunNow()
	assert.Contains(t, out.String(), "ACME")
	assert.NotContains(t, out.String(), "<b>")
}

func TestRunNow_ReportsFailure(t *testing.T) {
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), &fakeAnalyzer{err: errors.New("price history unavailable")}, sender, "ACME", nil)
	s.RunNow()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "analysis failed")
	assert.Nil(t, s.Last())
}

func TestHandleCommand(t *testing.T) {
	a := &fakeAnalyzer{}
	s := NewScheduler(context.Background(), a, &fakeSender{}, "ACME", nil)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/analyze nvda"), "NVDA")
	assert.Contains(t, s.HandleCommand(ctx, "/analyze"), "ACME")
	assert.Equal(t, "no report yet", s.HandleCommand(ctx, "/last"))
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "/analyze TICKER")
	assert.Equal(t, []string{"nvda", "ACME"}, a.calls)
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeAnalyzer{}, nil, "ACME", nil)
	assert.NoError(t, s.Register("0 30 16 * * 1-5"))
	assert.Error(t, s.Register("not a cron"))
}

func TestTicksDoNotOverlap(t *testing.T) {
	a := &fakeAnalyzer{block: make(chan struct{})}
	s := NewScheduler(context.Background(), a, &fakeSender{}, "ACME", nil)
	require.NoError(t, s.Register("* * * * * *"))
	s.Start()
	time.Sleep(2500 * time.Millisecond)
	close(a.block)
	s.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Len(t, a.calls, 1, "ticks while the first analysis ran must be skipped")
}

func TestAnalysesNeverRunConcurrently(t *testing.T) {
	a := &fakeAnalyzer{delay: 100 * time.Millisecond}
	s := NewScheduler(context.Background(), a, &fakeSender{}, "ACME", nil)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); s.RunNow() }()
	go func() { defer wg.Done(); s.HandleCommand(context.Background(), "/analyze msft") }()
	go func() { defer wg.Done(); s.HandleCommand(context.Background(), "/analyze nvda") }()
	wg.Wait()

	assert.Len(t, a.calls, 3)
	assert.Equal(t, int32(1), a.peak.Load())
}
