package scheduler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"StockCheck/internal/model"
	"StockCheck/internal/notifier"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string) (*model.ScoreReport, error)
}

// Sender delivers a formatted report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler re-runs the analysis of one ticker on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer Analyzer
	Notifier Sender    // nil prints reports to Out
	Out      io.Writer // used when Notifier is nil
	Ticker   string
	Ctx      context.Context

	// running serializes analyses from cron ticks, RunNow and chat commands.
	running sync.Mutex

	mu   sync.Mutex
	last *model.ScoreReport
}

// NewScheduler creates a Scheduler whose ticks never overlap.
func NewScheduler(ctx context.Context, a Analyzer, sender Sender, ticker string, out io.Writer) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Analyzer: a,
		Notifier: sender,
		Out:      out,
		Ticker:   strings.ToUpper(ticker),
		Ctx:      ctx,
	}
}

// Register adds the watch task for spec (six fields, seconds first).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Str("ticker", s.Ticker).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the watch task immediately.
func (s *Scheduler) RunNow() {
	s.watchTask()
}

// Last returns the most recent successful report, if any.
func (s *Scheduler) Last() *model.ScoreReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) watchTask() {
	log.Info().Str("ticker", s.Ticker).Msg("running watch task")
	r, err := s.analyze(s.Ctx, s.Ticker)
	if err != nil {
		log.Error().Err(err).Str("ticker", s.Ticker).Msg("watch analysis failed")
		s.trySend(fmt.Sprintf("❌ %s analysis failed: %v", s.Ticker, err))
		return
	}

	s.mu.Lock()
	prev := s.last
	s.last = r
	s.mu.Unlock()

	text := notifier.FormatReport(r, s.Notifier != nil)
	if prev != nil && prev.Rating.Label != r.Rating.Label {
		text = fmt.Sprintf("🔔 Rating changed: %s → %s\n\n", prev.Rating.Label, r.Rating.Label) + text
	}
	s.trySend(text)
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/analyze":
		ticker := s.Ticker
		if len(fields) > 1 {
			ticker = fields[1]
		}
		if ticker == "" {
			return "usage: /analyze TICKER"
		}
		r, err := s.analyze(ctx, ticker)
		if err != nil {
			return fmt.Sprintf("❌ %s analysis failed: %v", strings.ToUpper(ticker), err)
		}
		return notifier.FormatReport(r, true)
	case "/last":
		if r := s.Last(); r != nil {
			return notifier.FormatReport(r, true)
		}
		return "no report yet"
	default:
		return helpText
	}
}

func (s *Scheduler) analyze(ctx context.Context, ticker string) (*model.ScoreReport, error) {
	s.running.Lock()
	defer s.running.Unlock()
	return s.Analyzer.Analyze(ctx, ticker)
}

const helpText = "Commands:\n• /analyze TICKER\n• /last"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		if s.Out != nil {
			fmt.Fprintln(s.Out, text)
		}
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
