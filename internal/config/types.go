package config

import "time"

type Config struct {
	Env              string
	SystemPromptPath string
	Server           ServerConfig
	LLM              LLMConfig
	Datastore        DatastoreConfig
	Safety           SafetyConfig
	Memory           MemoryConfig
	Budget           BudgetConfig
	Storage          StorageConfig
	Bots             MultiBot
	Alerts           AlertsConfig
	Domain           *Domain
}

type ServerConfig struct {
	Host string
	Port int
	// TestRouterKey guards the /test routes when set
	TestRouterKey string
}

func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

type LLMConfig struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

type DatastoreConfig struct {
	Backend    string // airtable, sqlite or memory
	APIKey     string
	BaseID     string
	BaseURL    string
	SQLitePath string
}

type SafetyConfig struct {
	MaxSteps    int
	MaxMessages int
}

type MemoryConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	HistoryLimit  int
}

type BudgetConfig struct {
	Enabled    bool
	DailyLimit int
	WarnAt     float64
	// UsagePath is the SQLite file recording per-call token usage; empty keeps usage in memory only
	UsagePath string
}

// StorageConfig configures the MinIO audit sink
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type BotInstance struct {
	Enabled bool
	Token   string
}

type MultiBot struct {
	Telegram BotInstance
	Discord  BotInstance
}

type AlertsConfig struct {
	ChatID int64
}
