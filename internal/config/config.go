package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrUnknownProvider   = errors.New("unknown llm provider")
)

const (
	defaultEnvFile = "env_config.txt"
	defaultBaseID  = "appL1FfUaRbmPNI01"
)

// LoadEnvFile reads the local override file into the process environment.
// Values already set in the real environment win. It is a no-op in
// production or when the file does not exist.
func LoadEnvFile() error {
	if os.Getenv("CRMBOT_ENV") == "production" {
		return nil
	}

	path := os.Getenv("CRMBOT_ENV_FILE")
	if path == "" {
		path = defaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}

func Load() (*Config, error) {
	env := os.Getenv("CRMBOT_ENV")
	if env == "" {
		env = "development"
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	datastoreConfig, err := loadDatastoreConfig()
	if err != nil {
		return nil, err
	}

	memoryConfig, err := loadMemoryConfig()
	if err != nil {
		return nil, err
	}

	domain, err := LoadDomain(os.Getenv("CRMBOT_DOMAIN_FILE"))
	if err != nil {
		return nil, err
	}

	if datastoreConfig.BaseID != "" {
		domain.BaseID = datastoreConfig.BaseID
	} else {
		datastoreConfig.BaseID = domain.BaseID
	}

	return &Config{
		Env:              env,
		SystemPromptPath: os.Getenv("SYSTEM_PROMPT_PATH"),
		Server:           loadServerConfig(),
		LLM:              llmConfig,
		Datastore:        datastoreConfig,
		Safety:           loadSafetyConfig(),
		Memory:           memoryConfig,
		Budget:           loadBudgetConfig(),
		Storage:          loadStorageConfig(),
		Bots:             loadMultiBotConfig(),
		Alerts:           loadAlertsConfig(),
		Domain:           domain,
	}, nil
}

func loadServerConfig() ServerConfig {
	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	return ServerConfig{
		Host:          host,
		Port:          intEnv("PORT", 3000),
		TestRouterKey: os.Getenv("TEST_ROUTER_KEY"),
	}
}

func loadLLMConfig() (LLMConfig, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "claude"
	}

	if !llm.Supports(provider) {
		return LLMConfig{}, fmt.Errorf("LLM_PROVIDER=%s: %w (one of %s)", provider, ErrUnknownProvider, strings.Join(llm.Providers(), ", "))
	}

	apiKey, err := getAPIKey(provider)
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		Provider:  provider,
		APIKey:    apiKey,
		Model:     os.Getenv("LLM_MODEL"),
		BaseURL:   os.Getenv("LLM_BASE_URL"),
		MaxTokens: intEnv("LLM_MAX_TOKENS", 4000),
	}, nil
}

func loadDatastoreConfig() (DatastoreConfig, error) {
	backend := os.Getenv("DATASTORE")
	if backend == "" {
		backend = "airtable"
	}

	cfg := DatastoreConfig{
		Backend: backend,
		BaseID:  os.Getenv("AIRTABLE_BASE_ID"),
		BaseURL: os.Getenv("AIRTABLE_URL"),
	}

	switch backend {
	case "airtable":
		cfg.APIKey = os.Getenv("AIRTABLE_API_KEY")
		if cfg.APIKey == "" {
			return DatastoreConfig{}, fmt.Errorf("AIRTABLE_API_KEY: %w", ErrMissingCredential)
		}
	case "sqlite":
		cfg.SQLitePath = os.Getenv("SQLITE_PATH")
		if cfg.SQLitePath == "" {
			cfg.SQLitePath = "crmbot.db"
		}
	case "memory":
	default:
		return DatastoreConfig{}, fmt.Errorf("unknown DATASTORE: %s", backend)
	}

	return cfg, nil
}

func loadSafetyConfig() SafetyConfig {
	return SafetyConfig{
		MaxSteps:    intEnv("SAFETY_MAX_STEPS", 10),
		MaxMessages: intEnv("SAFETY_MAX_MESSAGES", 25),
	}
}

func loadMemoryConfig() (MemoryConfig, error) {
	ttl, err := durationEnv("MEMORY_TTL", 30*time.Minute)
	if err != nil {
		return MemoryConfig{}, err
	}

	sweep, err := durationEnv("SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return MemoryConfig{}, err
	}

	return MemoryConfig{
		TTL:           ttl,
		SweepInterval: sweep,
		HistoryLimit:  intEnv("HISTORY_LIMIT", 15),
	}, nil
}

func loadBudgetConfig() BudgetConfig {
	enabled := os.Getenv("BUDGET_ENABLED") == "true"

	dailyLimit := 100000 // default 100k tokens
	if limit, err := strconv.Atoi(os.Getenv("BUDGET_DAILY_LIMIT")); err == nil && limit > 0 {
		dailyLimit = limit
	}

	warnAt := 0.8 // default 80%
	if warn, err := strconv.ParseFloat(os.Getenv("BUDGET_WARN_AT"), 64); err == nil && warn > 0 && warn < 1 {
		warnAt = warn
	}

	return BudgetConfig{
		Enabled:    enabled,
		DailyLimit: dailyLimit,
		WarnAt:     warnAt,
		UsagePath:  os.Getenv("BUDGET_USAGE_DB"),
	}
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "crmbot-audit"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    bucket,
	}
}

func loadMultiBotConfig() MultiBot {
	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	discordToken := os.Getenv("DISCORD_TOKEN")

	return MultiBot{
		Telegram: BotInstance{
			Enabled: telegramToken != "",
			Token:   telegramToken,
		},
		Discord: BotInstance{
			Enabled: discordToken != "",
			Token:   discordToken,
		},
	}
}

func loadAlertsConfig() AlertsConfig {
	var chatID int64
	if id, err := strconv.ParseInt(os.Getenv("ALERT_CHAT_ID"), 10, 64); err == nil {
		chatID = id
	}

	return AlertsConfig{ChatID: chatID}
}

func getAPIKey(provider string) (string, error) {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		return key, nil
	}

	switch provider {
	case "claude", "anthropic":
		if key := os.Getenv("CLAUDE_API_KEY"); key != "" {
			return key, nil
		}
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("CLAUDE_API_KEY: %w", ErrMissingCredential)
	case "ollama":
		// Ollama doesn't need an API key
		return "ollama", nil
	default:
		name := EnvKeyForProvider(provider)
		key := os.Getenv(name)
		if key == "" {
			return "", fmt.Errorf("%s: %w", name, ErrMissingCredential)
		}
		return key, nil
	}
}

// EnvKeyForProvider returns the environment variable name for a provider's API key
func EnvKeyForProvider(provider string) string {
	switch provider {
	case "claude", "anthropic":
		return "CLAUDE_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "ollama":
		return ""
	default:
		return strings.ToUpper(provider) + "_API_KEY"
	}
}

func intEnv(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

// durationEnv accepts Go durations ("30m") or a bare number of milliseconds.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms <= 0 {
			return 0, fmt.Errorf("%s must be positive", key)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}

	return d, nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
