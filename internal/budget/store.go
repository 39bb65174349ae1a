package budget

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage(timestamp);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage(model);
`

// timestamps are stored as sortable UTC text
const timestampLayout = "2006-01-02 15:04:05"

// Store persists token usage so the daily total survives restarts.
type Store struct {
	db       *sql.DB
	timezone *time.Location
	now      func() time.Time
}

// Open creates or opens the SQLite usage file at path.
func Open(path string, timezone *time.Location) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s, err := NewStore(db, timezone)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init usage db: %w", err)
	}
	return s, nil
}

func NewStore(db *sql.DB, timezone *time.Location) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	tz := timezone
	if tz == nil {
		tz = time.UTC
	}

	return &Store{db: db, timezone: tz, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(provider, model string, inputTokens, outputTokens int) error {
	cost := CalculateCost(model, inputTokens, outputTokens)

	_, err := s.db.Exec(
		`INSERT INTO usage (timestamp, provider, model, input_tokens, output_tokens, cost_usd) VALUES (?, ?, ?, ?, ?, ?)`,
		stamp(s.now()),
		provider,
		model,
		inputTokens,
		outputTokens,
		cost,
	)

	return err
}

type Summary struct {
	TotalRequests     int     `json:"total_requests"`
	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
}

func (s *Store) SummaryRange(from, to time.Time) (*Summary, error) {
	row := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(cost_usd), 0)
		FROM usage
		WHERE timestamp >= ? AND timestamp < ?
	`, stamp(from), stamp(to))

	var sum Summary
	if err := row.Scan(&sum.TotalRequests, &sum.TotalInputTokens, &sum.TotalOutputTokens, &sum.TotalCostUSD); err != nil {
		return nil, err
	}

	return &sum, nil
}

func (s *Store) Today() (*Summary, error) {
	start, end := s.today()
	return s.SummaryRange(start, end)
}

// TodayTokens is the input plus output token total recorded today.
func (s *Store) TodayTokens() (int, error) {
	sum, err := s.Today()
	if err != nil {
		return 0, err
	}
	return sum.TotalInputTokens + sum.TotalOutputTokens, nil
}

type ModelBreakdown struct {
	Model        string  `json:"model"`
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

func (s *Store) BreakdownByModel(from, to time.Time) ([]ModelBreakdown, error) {
	rows, err := s.db.Query(`
		SELECT
			model,
			COUNT(*),
			SUM(input_tokens),
			SUM(output_tokens),
			SUM(cost_usd)
		FROM usage
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY model
		ORDER BY SUM(cost_usd) DESC
	`, stamp(from), stamp(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ModelBreakdown
	for rows.Next() {
		var b ModelBreakdown
		if err := rows.Scan(&b.Model, &b.Requests, &b.InputTokens, &b.OutputTokens, &b.CostUSD); err != nil {
			return nil, err
		}
		result = append(result, b)
	}

	return result, rows.Err()
}

// TodayByModel breaks today's usage down per model.
func (s *Store) TodayByModel() ([]ModelBreakdown, error) {
	start, end := s.today()
	return s.BreakdownByModel(start, end)
}

func (s *Store) today() (time.Time, time.Time) {
	now := s.now().In(s.timezone)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.timezone)
	return start, start.AddDate(0, 0, 1)
}

func stamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
