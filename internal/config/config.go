// Package config loads the GoNews configuration from the environment into an
// explicit struct that is constructed once at startup and passed into every
// component constructor.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/gonews/internal/secrets"
)

// ErrMissingSheetID is returned when no spreadsheet identifier is configured.
var ErrMissingSheetID = errors.New("GOOGLE_SHEET_ID is required")

// Config holds all configuration for the service.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Sheet     SheetConfig
	Lock      LockConfig
	Harvester HarvesterConfig
	Crafter   CrafterConfig
	Styler    StylerConfig
	Voicer    VoicerConfig
	Publisher PublisherConfig
	LLM       LLMConfig
	Blob      BlobConfig
	Social    SocialConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel     string
	Development  bool
	CronSecret   string
	CronSchedule string
	Workflow     string
	UserAgent    string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SheetConfig holds the tabular store settings.
type SheetConfig struct {
	// ID is the spreadsheet identifier. Required for real runs.
	ID string
	// Tab is the worksheet name holding the news table.
	Tab string
	// CredentialsFile is an optional service account key path.
	CredentialsFile string
	// WriteBatchSize bounds the number of cells submitted per batch call.
	WriteBatchSize int
	// WriteBatchSleep is the pause between batch calls. This throttling is
	// backpressure against the store's request quota, not politeness.
	WriteBatchSleep time.Duration
}

// LockConfig holds the cross-process run lock settings.
type LockConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Key           string
	TTL           time.Duration
}

// HarvesterConfig holds stage 1 settings.
type HarvesterConfig struct {
	FeedsFile      string
	LookbackHours  int
	MaxPerFeed     int
	RequestTimeout time.Duration
	RequireImage   bool
}

// CrafterConfig holds stage 2 settings.
type CrafterConfig struct {
	MaxRows         int
	Concurrency     int
	RequestTimeout  time.Duration
	InputMaxChars   int
	TitleMinChars   int
	TitleMaxChars   int
	SummaryMaxWords int
	ArticleMinWords int
	ArticleMaxWords int
	// DupThreshold gates the embedding title dedup. Zero disables it.
	DupThreshold float64
}

// StylerConfig holds stage 3 settings.
type StylerConfig struct {
	Concurrency    int
	RequestTimeout time.Duration
	MinImageWidth  int
	MinImageHeight int
}

// VoicerConfig holds stage 4 settings.
type VoicerConfig struct {
	Concurrency int
	Model       string
	Voice       string
}

// PublisherConfig holds stage 5 settings.
type PublisherConfig struct {
	// Delay is the politeness pause between published rows.
	Delay          time.Duration
	RequestTimeout time.Duration
}

// LLMConfig holds the text generation and embedding settings.
type LLMConfig struct {
	AnthropicAPIKey string
	Model           string
	FallbackModel   string
	MaxRetries      int
	RetrySleep      time.Duration
	OpenAIAPIKey    string
	EmbeddingModel  string
}

// BlobConfig holds object storage settings for styled images and audio.
type BlobConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL is the external base URL under which uploaded objects are
	// reachable. Defaults to the endpoint when empty.
	PublicURL string
}

// SocialConfig holds the publishing platform credentials.
type SocialConfig struct {
	TelegramBotToken string
	TelegramChatID   string
	// TelegramChannel is the public channel name used to build post links.
	TelegramChannel string
	XAPIKey         string
	XAPIKeySecret   string
	XAccessToken    string
	XAccessSecret   string
	BlueskyHandle   string
	BlueskyAppKey   string
	BlueskyHost     string
}

// Load reads configuration from the environment. Defaults are production
// safe; only the spreadsheet ID has no usable default.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	// Credentials prefer a mounted secrets directory over the environment.
	sec := secrets.DefaultChain(v.GetString("SECRETS_DIR"))
	secret := func(name string) string {
		return sec.GetOr(name, v.GetString(name))
	}

	return &Config{
		App: AppConfig{
			LogLevel:     v.GetString("LOG_LEVEL"),
			Development:  v.GetString("APP_ENV") == "development",
			CronSecret:   secret("CRON_SECRET"),
			CronSchedule: v.GetString("CRON_SCHEDULE"),
			Workflow:     v.GetString("WORKFLOW"),
			UserAgent:    v.GetString("USER_AGENT"),
		},
		Server: ServerConfig{
			Address:      v.GetString("SERVER_ADDRESS"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Sheet: SheetConfig{
			ID:              v.GetString("GOOGLE_SHEET_ID"),
			Tab:             v.GetString("NEWS_TAB"),
			CredentialsFile: v.GetString("GOOGLE_SA_CREDENTIALS"),
			WriteBatchSize:  v.GetInt("WRITE_BATCH_SIZE"),
			WriteBatchSleep: time.Duration(v.GetInt("WRITE_BATCH_SLEEP_MS")) * time.Millisecond,
		},
		Lock: LockConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			Key:           v.GetString("CRON_LOCK_KEY"),
			TTL:           time.Duration(v.GetInt("CRON_LOCK_TTL_SEC")) * time.Second,
		},
		Harvester: HarvesterConfig{
			FeedsFile:      v.GetString("FEEDS_FILE"),
			LookbackHours:  v.GetInt("LOOKBACK_HOURS"),
			MaxPerFeed:     v.GetInt("MAX_PER_FEED"),
			RequestTimeout: time.Duration(v.GetInt("REQUEST_TIMEOUT")) * time.Second,
			RequireImage:   v.GetBool("REQUIRE_IMAGE"),
		},
		Crafter: CrafterConfig{
			MaxRows:         v.GetInt("CRAFTER_MAX_ROWS"),
			Concurrency:     v.GetInt("CRAFTER_CONCURRENCY"),
			RequestTimeout:  time.Duration(v.GetInt("REQUEST_TIMEOUT")) * time.Second,
			InputMaxChars:   v.GetInt("INPUT_MAX_CHARS"),
			TitleMinChars:   v.GetInt("TITLE_MIN_CHARS"),
			TitleMaxChars:   v.GetInt("TITLE_MAX_CHARS"),
			SummaryMaxWords: v.GetInt("SUMMARY_MAX_WORDS"),
			ArticleMinWords: v.GetInt("ARTICLE_MIN_WORDS"),
			ArticleMaxWords: v.GetInt("ARTICLE_MAX_WORDS"),
			DupThreshold:    v.GetFloat64("DUP_THRESHOLD"),
		},
		Styler: StylerConfig{
			Concurrency:    v.GetInt("STYLER_CONCURRENCY"),
			RequestTimeout: time.Duration(v.GetInt("REQUEST_TIMEOUT")) * time.Second,
			MinImageWidth:  v.GetInt("MIN_IMAGE_WIDTH"),
			MinImageHeight: v.GetInt("MIN_IMAGE_HEIGHT"),
		},
		Voicer: VoicerConfig{
			Concurrency: v.GetInt("VOICER_CONCURRENCY"),
			Model:       v.GetString("TTS_MODEL"),
			Voice:       v.GetString("TTS_VOICE"),
		},
		Publisher: PublisherConfig{
			Delay:          v.GetDuration("PUBLISH_DELAY"),
			RequestTimeout: time.Duration(v.GetInt("PUBLISH_TIMEOUT")) * time.Second,
		},
		LLM: LLMConfig{
			AnthropicAPIKey: secret("ANTHROPIC_API_KEY"),
			Model:           v.GetString("ANTHROPIC_MODEL"),
			FallbackModel:   v.GetString("ANTHROPIC_FALLBACK_MODEL"),
			MaxRetries:      v.GetInt("LLM_MAX_RETRY"),
			RetrySleep:      v.GetDuration("LLM_RETRY_SLEEP"),
			OpenAIAPIKey:    secret("OPENAI_API_KEY"),
			EmbeddingModel:  v.GetString("EMBEDDING_MODEL"),
		},
		Blob: BlobConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: secret("MINIO_ACCESS_KEY"),
			SecretKey: secret("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			PublicURL: v.GetString("MINIO_PUBLIC_URL"),
		},
		Social: SocialConfig{
			TelegramBotToken: secret("TELEGRAM_BOT_TOKEN"),
			TelegramChatID:   v.GetString("TELEGRAM_CHAT_ID"),
			TelegramChannel:  v.GetString("TELEGRAM_CHANNEL"),
			XAPIKey:          secret("X_API_KEY"),
			XAPIKeySecret:    secret("X_API_KEY_SECRET"),
			XAccessToken:     secret("X_ACCESS_TOKEN"),
			XAccessSecret:    secret("X_ACCESS_TOKEN_SECRET"),
			BlueskyHandle:    v.GetString("BLUESKY_HANDLE"),
			BlueskyAppKey:    secret("BLUESKY_APP_PASSWORD"),
			BlueskyHost:      v.GetString("BLUESKY_HOST"),
		},
	}
}

// Validate checks that required settings for a real pipeline run are present.
func (c *Config) Validate() error {
	if c.Sheet.ID == "" {
		return ErrMissingSheetID
	}
	return nil
}

// setDefaults registers production-safe defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("SECRETS_DIR", "/run/secrets")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("WORKFLOW", "styler,publisher")
	v.SetDefault("USER_AGENT", "GoNewsBot/1.0 (+https://gonews.example.com)")

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15m")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")

	v.SetDefault("NEWS_TAB", "News")
	v.SetDefault("WRITE_BATCH_SIZE", 40)
	v.SetDefault("WRITE_BATCH_SLEEP_MS", 800)

	v.SetDefault("CRON_LOCK_KEY", "locks/gonews-cron.lock")
	v.SetDefault("CRON_LOCK_TTL_SEC", 900)

	v.SetDefault("LOOKBACK_HOURS", 12)
	v.SetDefault("MAX_PER_FEED", 25)
	v.SetDefault("REQUEST_TIMEOUT", 12)
	v.SetDefault("REQUIRE_IMAGE", true)

	v.SetDefault("CRAFTER_MAX_ROWS", 100)
	v.SetDefault("CRAFTER_CONCURRENCY", 8)
	v.SetDefault("INPUT_MAX_CHARS", 12000)
	v.SetDefault("TITLE_MIN_CHARS", 55)
	v.SetDefault("TITLE_MAX_CHARS", 85)
	v.SetDefault("SUMMARY_MAX_WORDS", 70)
	v.SetDefault("ARTICLE_MIN_WORDS", 450)
	v.SetDefault("ARTICLE_MAX_WORDS", 700)
	v.SetDefault("DUP_THRESHOLD", 0.92)

	v.SetDefault("STYLER_CONCURRENCY", 4)
	v.SetDefault("MIN_IMAGE_WIDTH", 500)
	v.SetDefault("MIN_IMAGE_HEIGHT", 300)

	v.SetDefault("VOICER_CONCURRENCY", 2)
	v.SetDefault("TTS_MODEL", "tts-1")
	v.SetDefault("TTS_VOICE", "alloy")

	v.SetDefault("PUBLISH_DELAY", "5s")
	v.SetDefault("PUBLISH_TIMEOUT", 20)

	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5")
	v.SetDefault("LLM_MAX_RETRY", 3)
	v.SetDefault("LLM_RETRY_SLEEP", "1s")
	v.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")

	v.SetDefault("MINIO_BUCKET", "gonews-media")
	v.SetDefault("BLUESKY_HOST", "https://bsky.social")
}
