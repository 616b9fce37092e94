// Package crafter implements stage 2: fetching the source article and
// rewriting it into the table's title, summary and long text.
package crafter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonesrussell/gonews/internal/fetch"
	"github.com/jonesrussell/gonews/internal/llm"
	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/stage"
	"github.com/jonesrussell/gonews/internal/status"
	"github.com/jonesrussell/gonews/internal/table"
)

// Fetcher retrieves a page body.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Deduper reports whether a title is a near duplicate of one already seen
// this run.
type Deduper interface {
	Duplicate(ctx context.Context, category, title string) (bool, error)
}

// Limits bound the generated copy.
type Limits struct {
	TitleMinChars   int
	TitleMaxChars   int
	SummaryMaxWords int
	ArticleMinWords int
	ArticleMaxWords int
	// PromptMaxChars caps how much source text goes into the prompt.
	PromptMaxChars int
}

// DefaultLimits are the production bounds.
func DefaultLimits() Limits {
	return Limits{
		TitleMinChars:   55,
		TitleMaxChars:   85,
		SummaryMaxWords: 70,
		ArticleMinWords: 450,
		ArticleMaxWords: 700,
		PromptMaxChars:  8000,
	}
}

// articleOvershoot is the soft cap: generated articles may exceed the max
// word count by this factor before they are trimmed.
const articleOvershoot = 1.6

// Crafter rewrites harvested stories.
type Crafter struct {
	fetcher   Fetcher
	generator llm.Generator
	limits    Limits
	log       logger.Logger
	dupes     Deduper
}

// New creates the crafter.
func New(fetcher Fetcher, generator llm.Generator, limits Limits, log logger.Logger) *Crafter {
	return &Crafter{fetcher: fetcher, generator: generator, limits: limits, log: log}
}

// WithDupes enables the near-duplicate title gate. The cache should be
// fresh per run so it only spans one batch.
func (c *Crafter) WithDupes(dupes Deduper) *Crafter {
	c.dupes = dupes
	return c
}

// Name returns the stage name.
func (c *Crafter) Name() string { return stage.NameCrafter }

// Number returns the ledger position.
func (c *Crafter) Number() int { return stage.Number(stage.NameCrafter) }

// Eligible wants rows harvested but not yet crafted. Rows with a failed
// token are left alone until the token is cleared by hand, and rows whose
// generated fields all survive are never overwritten.
func (c *Crafter) Eligible(row table.Row) bool {
	ledger := status.Parse(row.Get(table.FieldStatus))
	if !ledger.OK(1) || ledger.Has(c.Number()) {
		return false
	}
	return row.Get(table.FieldTitle) == "" ||
		row.Get(table.FieldSummary) == "" ||
		row.Get(table.FieldLongText) == ""
}

// Process fetches the article, asks the model for a rewrite and validates
// the result.
func (c *Crafter) Process(ctx context.Context, row table.Row) stage.RowResult {
	link := row.Get(table.FieldLink)
	if link == "" {
		return stage.Fail("no source link")
	}
	origTitle := row.Get(table.FieldOrigTitle)
	if origTitle == "" {
		return stage.Fail("no source title")
	}

	// The duplicate gate runs before any fetching or generation: a near
	// repeat of a title already seen this batch gets the crafter's own
	// failed token and no content.
	if c.dupes != nil {
		dup, err := c.dupes.Duplicate(ctx, row.Get(table.FieldCategory), origTitle)
		if err != nil {
			c.log.Warn("title duplicate check unavailable, generating anyway",
				logger.String("id", row.Get(table.FieldID)),
				logger.Error(err))
		} else if dup {
			return stage.Fail("near-duplicate title in batch")
		}
	}

	page, err := c.fetcher.Get(ctx, link)
	if err != nil {
		return stage.Fail(fmt.Sprintf("fetch article: %v", err))
	}

	article, err := fetch.ExtractArticle(page)
	if err != nil {
		return stage.Fail(fmt.Sprintf("extract article: %v", err))
	}
	if wordCount(article) < 50 {
		return stage.Fail(fmt.Sprintf("article too thin: %d words", wordCount(article)))
	}

	draft, err := c.rewrite(ctx, row, article)
	if err != nil {
		return stage.Fail(err.Error())
	}

	updates := []stage.Update{
		{Field: table.FieldTitle, Value: draft.Title},
		{Field: table.FieldSummary, Value: draft.Summary},
		{Field: table.FieldLongText, Value: draft.Article},
	}

	// The page is already in hand; record its lead image and language for
	// the later stages when the harvest left them blank.
	if meta, err := fetch.ExtractMeta(page, link); err == nil {
		if row.Get(table.FieldOrigImage) == "" && meta.Image != "" {
			updates = append(updates, stage.Update{Field: table.FieldOrigImage, Value: meta.Image})
		}
		if row.Get(table.FieldLanguage) == "" && meta.Language != "" {
			updates = append(updates, stage.Update{Field: table.FieldLanguage, Value: meta.Language})
		}
	}

	return stage.RowResult{Outcome: stage.OutcomeOK, Updates: updates}
}

// draft is the model's rewrite of one story.
type draft struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Article string `json:"article"`
}

func (c *Crafter) rewrite(ctx context.Context, row table.Row, article string) (draft, error) {
	prompt := c.buildPrompt(row, article)
	raw, err := c.generator.Generate(ctx, llm.Request{
		System:    craftSystemPrompt,
		Prompt:    prompt,
		MaxTokens: 4096,
	})
	if err != nil {
		return draft{}, fmt.Errorf("generate rewrite: %w", err)
	}

	d, err := parseDraft(raw)
	if err != nil {
		return draft{}, err
	}
	return c.validate(row, d)
}

const craftSystemPrompt = "You are a news desk editor. You rewrite source articles " +
	"into original copy: a headline, a short summary and a full article. " +
	"Respond with a single JSON object with keys \"title\", \"summary\" and " +
	"\"article\". No markdown, no commentary."

func (c *Crafter) buildPrompt(row table.Row, article string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", row.Get(table.FieldCategory))
	fmt.Fprintf(&b, "Original title: %s\n\n", row.Get(table.FieldOrigTitle))
	fmt.Fprintf(&b, "Source article:\n%s\n\n", llm.TruncateAtSentence(article, c.limits.PromptMaxChars))
	fmt.Fprintf(&b, "Write the headline between %d and %d characters. ",
		c.limits.TitleMinChars, c.limits.TitleMaxChars)
	fmt.Fprintf(&b, "Keep the summary under %d words. ", c.limits.SummaryMaxWords)
	fmt.Fprintf(&b, "Write the article between %d and %d words.",
		c.limits.ArticleMinWords, c.limits.ArticleMaxWords)
	return b.String()
}

// parseDraft decodes the model reply, tolerating a fenced code block around
// the JSON.
func parseDraft(raw string) (draft, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}

	var d draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return draft{}, fmt.Errorf("parse rewrite response: %w", err)
	}
	d.Title = strings.TrimSpace(d.Title)
	d.Summary = strings.TrimSpace(d.Summary)
	d.Article = strings.TrimSpace(d.Article)
	return d, nil
}

// validate enforces the copy limits. Overlong summaries and articles are
// trimmed; an empty or absurdly short result fails the row.
func (c *Crafter) validate(row table.Row, d draft) (draft, error) {
	if d.Title == "" || d.Summary == "" || d.Article == "" {
		return draft{}, fmt.Errorf("rewrite missing fields")
	}

	if n := len([]rune(d.Title)); n > c.limits.TitleMaxChars {
		d.Title = clipRunes(d.Title, c.limits.TitleMaxChars)
	} else if n < c.limits.TitleMinChars {
		c.log.Debug("title shorter than target",
			logger.String("id", row.Get(table.FieldID)),
			logger.Int("chars", n))
	}

	if wordCount(d.Summary) > c.limits.SummaryMaxWords {
		d.Summary = trimWords(d.Summary, c.limits.SummaryMaxWords)
	}

	words := wordCount(d.Article)
	if words < c.limits.ArticleMinWords/2 {
		return draft{}, fmt.Errorf("generated article too short: %d words", words)
	}
	if float64(words) > float64(c.limits.ArticleMaxWords)*articleOvershoot {
		d.Article = trimWords(d.Article, c.limits.ArticleMaxWords)
	}
	return d, nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// trimWords cuts text after max words, preferring the end of a sentence.
func trimWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	cut := words[:max]
	for i := len(cut) - 1; i >= max*2/3; i-- {
		if strings.HasSuffix(cut[i], ".") || strings.HasSuffix(cut[i], "!") || strings.HasSuffix(cut[i], "?") {
			return strings.Join(cut[:i+1], " ")
		}
	}
	return strings.Join(cut, " ") + "…"
}

// clipRunes cuts text to at most max runes, ellipsis included, preferring a
// word boundary.
func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max-1])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
