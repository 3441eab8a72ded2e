package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "UTC"
	defaultTemperature = 0.7
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	configPathEnv      = "ARTICLE_ENHANCER_CONFIG"
	envFileEnv         = "ENV_FILE"
	apiBaseURLEnv      = "API_BASE_URL"
	storageDriverEnv   = "STORAGE_DRIVER"
	databaseDSNEnv     = "DATABASE_DSN"
	searchAPIKeyEnv    = "GOOGLE_API_KEY"
	searchEngineIDEnv  = "GOOGLE_SEARCH_ENGINE_ID"
	chatGPTAPIKeyEnv   = "OPENAI_API_KEY"
	chatGPTModelEnv    = "OPENAI_MODEL"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	logLevelEnv        = "LOG_LEVEL"
	chromePathEnv      = "CHROME_PATH"
	StorageDriverAPI   = "api"
	StorageDriverPG    = "postgres"
	StageHarvest       = "harvest"
	StageEnhance       = "enhance"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Run           RunConfig          `yaml:"run"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Storage       StorageConfig      `yaml:"storage"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Search        SearchConfig       `yaml:"search"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Enhance       EnhanceConfig      `yaml:"enhance"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sites         []SiteConfig       `yaml:"sites"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RunConfig lists the stages a single run executes, in order.
type RunConfig struct {
	Stages []string `yaml:"stages"`
}

// Has reports whether stage is enabled.
func (r RunConfig) Has(stage string) bool {
	for _, s := range r.Stages {
		if strings.EqualFold(strings.TrimSpace(s), stage) {
			return true
		}
	}
	return false
}

// SchedulerConfig defines when the pipeline should run; an empty expression means once.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// StorageConfig picks the persistence collaborator.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	APIBaseURL string `yaml:"apiBaseUrl"`
	DSN        string `yaml:"dsn"`
}

// FetcherConfig tunes direct and rendered page retrieval.
type FetcherConfig struct {
	UserAgent     string        `yaml:"userAgent"`
	Timeout       time.Duration `yaml:"timeout"`
	RenderTimeout time.Duration `yaml:"renderTimeout"`
	RenderSettle  time.Duration `yaml:"renderSettle"`
	ChromePath    string        `yaml:"chromePath"`
}

// SearchConfig wires the Google Programmable Search API.
type SearchConfig struct {
	Endpoint       string   `yaml:"endpoint"`
	APIKey         string   `yaml:"apiKey"`
	EngineID       string   `yaml:"engineId"`
	ResultCount    int      `yaml:"resultCount"`
	BlockedDomains []string `yaml:"blockedDomains"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	MaxTokens    int           `yaml:"maxTokens"`
	Temperature  *float64      `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
}

// SamplingTemperature defaults to 0.7 when unset; an explicit 0 is kept.
func (c ChatGPTConfig) SamplingTemperature() float64 {
	if c.Temperature == nil {
		return defaultTemperature
	}
	return *c.Temperature
}

// EnhanceConfig controls the enhancement batch.
type EnhanceConfig struct {
	Limit        int          `yaml:"limit"`
	SkipEnhanced *bool        `yaml:"skipEnhanced"`
	Pacing       PacingConfig `yaml:"pacing"`
}

// SkipAlreadyEnhanced defaults to true when unset.
func (e EnhanceConfig) SkipAlreadyEnhanced() bool {
	return e.SkipEnhanced == nil || *e.SkipEnhanced
}

// PacingConfig holds the fixed delays between external calls.
type PacingConfig struct {
	BeforeBatch       time.Duration `yaml:"beforeBatch"`
	BetweenArticles   time.Duration `yaml:"betweenArticles"`
	BetweenReferences time.Duration `yaml:"betweenReferences"`
	BetweenPages      time.Duration `yaml:"betweenPages"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SiteConfig describes a single site whose listing pages are harvested.
type SiteConfig struct {
	Name        string `yaml:"name"`
	ListingURL  string `yaml:"listingUrl"`
	Origin      string `yaml:"origin"`
	PathMarker  string `yaml:"pathMarker"`
	Render      bool   `yaml:"render"`
	MaxArticles int    `yaml:"maxArticles"`
}

// Load reads .env files, YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := loadEnvFiles(); err != nil {
		log.Printf("config: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	return cfg
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// godotenv never overrides variables that are already set.
func loadEnvFiles() error {
	if envFile := os.Getenv(envFileEnv); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv(apiBaseURLEnv); v != "" {
		c.Storage.APIBaseURL = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(searchAPIKeyEnv); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv(searchEngineIDEnv); v != "" {
		c.Search.EngineID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(chromePathEnv); v != "" {
		c.Fetcher.ChromePath = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if len(override.Run.Stages) > 0 {
		base.Run.Stages = override.Run.Stages
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.APIBaseURL != "" {
		base.Storage.APIBaseURL = override.Storage.APIBaseURL
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}

	if override.Fetcher.UserAgent != "" {
		base.Fetcher.UserAgent = override.Fetcher.UserAgent
	}
	if override.Fetcher.Timeout > 0 {
		base.Fetcher.Timeout = override.Fetcher.Timeout
	}
	if override.Fetcher.RenderTimeout > 0 {
		base.Fetcher.RenderTimeout = override.Fetcher.RenderTimeout
	}
	if override.Fetcher.RenderSettle > 0 {
		base.Fetcher.RenderSettle = override.Fetcher.RenderSettle
	}
	if override.Fetcher.ChromePath != "" {
		base.Fetcher.ChromePath = override.Fetcher.ChromePath
	}

	if override.Search.Endpoint != "" {
		base.Search.Endpoint = override.Search.Endpoint
	}
	if override.Search.APIKey != "" {
		base.Search.APIKey = override.Search.APIKey
	}
	if override.Search.EngineID != "" {
		base.Search.EngineID = override.Search.EngineID
	}
	if override.Search.ResultCount > 0 {
		base.Search.ResultCount = override.Search.ResultCount
	}
	if len(override.Search.BlockedDomains) > 0 {
		base.Search.BlockedDomains = override.Search.BlockedDomains
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.MaxTokens > 0 {
		base.ChatGPT.MaxTokens = override.ChatGPT.MaxTokens
	}
	if override.ChatGPT.Temperature != nil {
		base.ChatGPT.Temperature = override.ChatGPT.Temperature
	}
	if override.ChatGPT.Timeout > 0 {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	if override.Enhance.Limit > 0 {
		base.Enhance.Limit = override.Enhance.Limit
	}
	if override.Enhance.SkipEnhanced != nil {
		base.Enhance.SkipEnhanced = override.Enhance.SkipEnhanced
	}
	base.Enhance.Pacing = mergePacing(base.Enhance.Pacing, override.Enhance.Pacing)

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func mergePacing(base, override PacingConfig) PacingConfig {
	if override.BeforeBatch > 0 {
		base.BeforeBatch = override.BeforeBatch
	}
	if override.BetweenArticles > 0 {
		base.BetweenArticles = override.BetweenArticles
	}
	if override.BetweenReferences > 0 {
		base.BetweenReferences = override.BetweenReferences
	}
	if override.BetweenPages > 0 {
		base.BetweenPages = override.BetweenPages
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Run:       RunConfig{Stages: []string{StageHarvest, StageEnhance}},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, location: tz},
		Storage: StorageConfig{
			Driver:     StorageDriverAPI,
			APIBaseURL: "http://localhost:8000/api",
		},
		Fetcher: FetcherConfig{
			UserAgent:     defaultUserAgent,
			Timeout:       15 * time.Second,
			RenderTimeout: 30 * time.Second,
			RenderSettle:  2 * time.Second,
		},
		Search: SearchConfig{
			Endpoint:    "https://www.googleapis.com/customsearch/v1",
			ResultCount: 2,
			BlockedDomains: []string{
				"youtube.com", "youtu.be", "facebook.com", "twitter.com",
				"instagram.com", "tiktok.com", "linkedin.com", "pinterest.com", "reddit.com",
			},
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You are an expert content writer and SEO specialist who rewrites articles so they compete with top-ranking content.",
			MaxTokens:    4000,
			Timeout:      120 * time.Second,
		},
		Enhance: EnhanceConfig{
			Pacing: PacingConfig{
				BeforeBatch:       2 * time.Second,
				BetweenArticles:   3 * time.Second,
				BetweenReferences: time.Second,
				BetweenPages:      time.Second,
			},
		},
		Sites: []SiteConfig{
			{
				Name:        "beyondchats",
				ListingURL:  "https://beyondchats.com/blogs/",
				Origin:      "https://beyondchats.com",
				PathMarker:  "blog",
				Render:      true,
				MaxArticles: 5,
			},
		},
	}
}
