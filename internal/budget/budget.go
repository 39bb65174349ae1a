package budget

import (
	"sync"
	"time"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

// Tracker counts LLM tokens per day and refuses further calls once the daily
// limit is reached.
type Tracker struct {
	mu         sync.Mutex
	dailyLimit int
	warnAt     float64
	tokens     int
	lastReset  time.Time
	onWarn     func(used, limit int)
	onExceeded func(used, limit int)
	warnSent   bool
	timezone   *time.Location
	store      *Store
	now        func() time.Time
}

type Config struct {
	DailyLimit int
	WarnAt     float64
	Timezone   *time.Location
}

func NewTracker(cfg Config, onWarn, onExceeded func(used, limit int)) *Tracker {
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}

	return &Tracker{
		dailyLimit: cfg.DailyLimit,
		warnAt:     cfg.WarnAt,
		lastReset:  time.Now().In(tz),
		onWarn:     onWarn,
		onExceeded: onExceeded,
		timezone:   tz,
		now:        time.Now,
	}
}

// SetStore attaches persistent usage and loads today's total from it.
func (t *Tracker) SetStore(s *Store) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store = s

	if s != nil {
		if tokens, err := s.TodayTokens(); err == nil {
			t.tokens = tokens
			if float64(t.tokens) >= float64(t.dailyLimit)*t.warnAt {
				t.warnSent = true
			}
		}
	}
}

func (t *Tracker) Store() *Store {
	if t == nil {
		return nil
	}
	return t.store
}

// Allow reports whether another call fits in today's budget. A nil tracker
// always allows.
func (t *Tracker) Allow() bool {
	if t == nil {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	return t.tokens < t.dailyLimit
}

func (t *Tracker) Add(tokens int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	t.tokens += tokens

	if t.tokens >= t.dailyLimit {
		if t.onExceeded != nil {
			t.onExceeded(t.tokens, t.dailyLimit)
		}

		return false
	}

	if !t.warnSent && float64(t.tokens) >= float64(t.dailyLimit)*t.warnAt {
		t.warnSent = true

		if t.onWarn != nil {
			t.onWarn(t.tokens, t.dailyLimit)
		}
	}

	return true
}

// Record persists one call's usage and adds it to today's total. It returns
// false once the limit is reached. A nil tracker records nothing.
func (t *Tracker) Record(provider, model string, inputTokens, outputTokens int) bool {
	if t == nil {
		return true
	}

	if t.store != nil {
		if err := t.store.Record(provider, model, inputTokens, outputTokens); err != nil {
			// usage tracking never blocks a reply
			logger.Warn("budget: failed to record usage", "error", err)
		}
	}

	return t.Add(inputTokens + outputTokens)
}

func (t *Tracker) Usage() (used, limit int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()
	return t.tokens, t.dailyLimit
}

// must hold lock
func (t *Tracker) checkReset() {
	now := t.now().In(t.timezone)
	if now.YearDay() != t.lastReset.YearDay() || now.Year() != t.lastReset.Year() {
		t.tokens = 0
		t.warnSent = false
		t.lastReset = now
	}
}
