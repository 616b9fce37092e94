// Package bootstrap assembles the pipeline from configuration: the table
// store, the run lock, the model clients, object storage and the stages,
// exposed as a step builder for the workflow runner.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/gonews/internal/config"
	"github.com/jonesrussell/gonews/internal/dedup"
	"github.com/jonesrussell/gonews/internal/feeds"
	"github.com/jonesrussell/gonews/internal/fetch"
	"github.com/jonesrussell/gonews/internal/llm"
	"github.com/jonesrussell/gonews/internal/lock"
	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/media"
	"github.com/jonesrussell/gonews/internal/social"
	"github.com/jonesrussell/gonews/internal/stage"
	"github.com/jonesrussell/gonews/internal/stage/crafter"
	"github.com/jonesrussell/gonews/internal/stage/harvester"
	"github.com/jonesrussell/gonews/internal/stage/publisher"
	"github.com/jonesrussell/gonews/internal/stage/styler"
	"github.com/jonesrussell/gonews/internal/stage/voicer"
	"github.com/jonesrussell/gonews/internal/table"
	"github.com/jonesrussell/gonews/internal/tts"
	"github.com/jonesrussell/gonews/internal/workflow"
)

// App holds the wired pipeline.
type App struct {
	Config *config.Config
	Log    logger.Logger
	Runner *workflow.Runner

	adapter   *table.Adapter
	catalog   *feeds.Catalog
	reader    *feeds.Reader
	titles    harvester.TitleFilter
	embedder  llm.Embedder
	generator llm.Generator
	blobs     media.BlobStore
	synth     tts.Synthesizer

	harvestFetch *fetch.Client
	craftFetch   *fetch.Client
	styleFetch   *fetch.Client
	publishFetch *fetch.Client
}

// New wires every component the configured pipeline needs. Optional
// integrations degrade when their settings are absent: no redis means no
// cross-process lock, no object storage endpoint disables the styler and
// voicer, missing channel credentials drop that channel.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := table.NewSheetsStore(ctx, cfg.Sheet.ID, cfg.Sheet.Tab, cfg.Sheet.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}

	app := &App{
		Config:  cfg,
		Log:     log,
		Runner:  workflow.NewRunner(newLock(cfg, log), log),
		adapter: table.NewAdapter(store, log, cfg.Sheet.WriteBatchSize, cfg.Sheet.WriteBatchSleep),
	}

	if cfg.Harvester.FeedsFile != "" {
		app.catalog, err = feeds.LoadCatalog(cfg.Harvester.FeedsFile)
		if err != nil {
			return nil, fmt.Errorf("load feed catalog: %w", err)
		}
	} else {
		app.catalog = feeds.DefaultCatalog()
	}
	app.reader = feeds.NewReader(cfg.Harvester.RequestTimeout,
		time.Duration(cfg.Harvester.LookbackHours)*time.Hour, cfg.Harvester.MaxPerFeed)

	if cfg.LLM.OpenAIAPIKey != "" && cfg.Crafter.DupThreshold > 0 {
		app.embedder = llm.NewOpenAIEmbedder(cfg.LLM.OpenAIAPIKey, cfg.LLM.EmbeddingModel)
		app.titles = dedup.NewTitleFilter(app.embedder, cfg.Crafter.DupThreshold)
	}

	app.generator = llm.NewResilient(
		llm.NewAnthropicGenerator(cfg.LLM.AnthropicAPIKey, cfg.LLM.Model),
		log, cfg.LLM.MaxRetries, cfg.LLM.RetrySleep, cfg.LLM.FallbackModel)

	if cfg.LLM.OpenAIAPIKey != "" {
		app.synth = tts.NewOpenAISynthesizer(cfg.LLM.OpenAIAPIKey, cfg.Voicer.Model, cfg.Voicer.Voice)
	}

	if cfg.Blob.Endpoint != "" {
		app.blobs, err = media.NewMinioStore(ctx, media.MinioOptions{
			Endpoint:  cfg.Blob.Endpoint,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			Bucket:    cfg.Blob.Bucket,
			UseSSL:    cfg.Blob.UseSSL,
			PublicURL: cfg.Blob.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("connect object storage: %w", err)
		}
	}

	ua := cfg.App.UserAgent
	app.harvestFetch = fetch.NewClient(cfg.Harvester.RequestTimeout).WithUserAgent(ua)
	app.craftFetch = fetch.NewClient(cfg.Crafter.RequestTimeout).WithUserAgent(ua)
	app.styleFetch = fetch.NewClient(cfg.Styler.RequestTimeout).WithUserAgent(ua)
	app.publishFetch = fetch.NewClient(cfg.Publisher.RequestTimeout).WithUserAgent(ua)

	return app, nil
}

// newLock builds the cross-process run lock, or the no-op fallback when no
// redis address is configured.
func newLock(cfg *config.Config, log logger.Logger) lock.Lock {
	if cfg.Lock.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, running without the cross-process lock")
		return lock.Nop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Lock.RedisAddr,
		Password: cfg.Lock.RedisPassword,
		DB:       cfg.Lock.RedisDB,
	})
	return lock.NewRedisLock(client, cfg.Lock.Key, cfg.Lock.TTL)
}

// Steps builds the runnable steps for the named stages, preserving the
// caller's order.
func (a *App) Steps(names []string) ([]workflow.Step, error) {
	steps := make([]workflow.Step, 0, len(names))
	for _, name := range names {
		step, err := a.step(name)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (a *App) step(name string) (workflow.Step, error) {
	cfg := a.Config
	switch name {
	case stage.NameHarvester:
		h := harvester.New(a.adapter, a.catalog, a.reader, a.titles, a.Log).
			WithPageMeta(a.harvestFetch, cfg.Harvester.RequireImage)
		return workflow.NewStep(h.Name(), h.Run), nil
	case stage.NameCrafter:
		c := crafter.New(a.craftFetch, a.generator, a.crafterLimits(), a.Log)
		if a.embedder != nil {
			// Fresh cache per step build, so the duplicate gate only spans
			// one run.
			c = c.WithDupes(dedup.NewTitleCache(a.embedder, cfg.Crafter.DupThreshold))
		}
		return a.rowStep(c, cfg.Crafter.Concurrency, cfg.Crafter.MaxRows), nil
	case stage.NameStyler:
		if a.blobs == nil {
			return nil, errors.New("MINIO_ENDPOINT is not configured")
		}
		s := styler.New(a.styleFetch, a.blobs, cfg.Harvester.RequireImage,
			cfg.Styler.MinImageWidth, cfg.Styler.MinImageHeight)
		return a.rowStep(s, cfg.Styler.Concurrency, 0), nil
	case stage.NameVoicer:
		if a.synth == nil {
			// An unconfigured synthesizer disables the stage instead of
			// failing the whole workflow; rows stay untouched.
			return workflow.NewStep(stage.NameVoicer, func(context.Context) error {
				a.Log.Warn("voicer disabled: OPENAI_API_KEY is not configured")
				return nil
			}), nil
		}
		if a.blobs == nil {
			return nil, errors.New("MINIO_ENDPOINT is not configured")
		}
		return a.rowStep(voicer.New(a.synth, a.blobs), cfg.Voicer.Concurrency, 0), nil
	case stage.NamePublisher:
		p, err := a.publisher()
		if err != nil {
			return nil, err
		}
		// Publishing is serial: the inter-post delay is the rate limit.
		return a.rowStep(p, 1, 0), nil
	}
	return nil, fmt.Errorf("unknown stage %q", name)
}

// rowStep wraps a row stage in its own runner so each stage gets its own
// worker count and row cap.
func (a *App) rowStep(s stage.RowStage, workers, maxRows int) workflow.Step {
	runner := stage.NewRunner(a.adapter, a.Log, workers).WithMaxRows(maxRows)
	return workflow.NewStep(s.Name(), func(ctx context.Context) error {
		return runner.Run(ctx, s)
	})
}

func (a *App) crafterLimits() crafter.Limits {
	c := a.Config.Crafter
	return crafter.Limits{
		TitleMinChars:   c.TitleMinChars,
		TitleMaxChars:   c.TitleMaxChars,
		SummaryMaxWords: c.SummaryMaxWords,
		ArticleMinWords: c.ArticleMinWords,
		ArticleMaxWords: c.ArticleMaxWords,
		PromptMaxChars:  c.InputMaxChars,
	}
}

// publisher wires whichever channels have credentials configured.
func (a *App) publisher() (*publisher.Publisher, error) {
	s := a.Config.Social

	var (
		telegram publisher.TelegramClient
		x        publisher.XClient
		bluesky  publisher.BlueskyClient
	)
	if s.TelegramBotToken != "" && s.TelegramChatID != "" {
		telegram = social.NewTelegram(s.TelegramBotToken, s.TelegramChatID, s.TelegramChannel)
	}
	if s.XAPIKey != "" && s.XAccessToken != "" {
		x = social.NewX(social.XCredentials{
			ConsumerKey:    s.XAPIKey,
			ConsumerSecret: s.XAPIKeySecret,
			AccessToken:    s.XAccessToken,
			AccessSecret:   s.XAccessSecret,
		})
	}
	if s.BlueskyHandle != "" && s.BlueskyAppKey != "" {
		bluesky = social.NewBluesky(s.BlueskyHost, s.BlueskyHandle, s.BlueskyAppKey)
	}
	if telegram == nil && x == nil && bluesky == nil {
		return nil, errors.New("no publishing channels configured")
	}
	return publisher.New(telegram, x, bluesky, a.publishFetch, a.Log,
		a.Config.Publisher.Delay), nil
}
