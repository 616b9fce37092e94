// Package publisher implements stage 5: posting finished stories to the
// outbound channels and recording the post URLs.
package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/social"
	"github.com/jonesrussell/gonews/internal/stage"
	"github.com/jonesrussell/gonews/internal/status"
	"github.com/jonesrussell/gonews/internal/table"
)

// TelegramClient posts one story to the Telegram channel.
type TelegramClient interface {
	Publish(ctx context.Context, post social.TelegramPost) (string, error)
}

// XClient posts one story to X.
type XClient interface {
	Publish(ctx context.Context, post social.XPost) (string, error)
}

// BlueskyClient posts one story to Bluesky.
type BlueskyClient interface {
	Publish(ctx context.Context, post social.BlueskyPost) (string, error)
}

// Fetcher downloads the rendered social card for the channels that attach
// bytes instead of a URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Hashtag budgets per channel.
const (
	telegramTagLimit = 4
	socialTagLimit   = 3
)

// Publisher fans a finished story out to every configured channel. Nil
// clients are simply skipped, so a deployment can enable channels one at a
// time.
type Publisher struct {
	telegram TelegramClient
	x        XClient
	bluesky  BlueskyClient
	fetcher  Fetcher
	log      logger.Logger
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration)
}

// New creates the publisher. delay spaces out consecutive channel posts.
func New(telegram TelegramClient, x XClient, bluesky BlueskyClient, fetcher Fetcher, log logger.Logger, delay time.Duration) *Publisher {
	return &Publisher{
		telegram: telegram,
		x:        x,
		bluesky:  bluesky,
		fetcher:  fetcher,
		log:      log,
		delay:    delay,
		sleep:    sleepCtx,
	}
}

// Name returns the stage name.
func (p *Publisher) Name() string { return stage.NamePublisher }

// Number returns the ledger position.
func (p *Publisher) Number() int { return stage.Number(stage.NamePublisher) }

// Eligible wants styled rows not yet published. Publishing gates on the
// styler, not the voicer: posts need images, audio ships separately.
func (p *Publisher) Eligible(row table.Row) bool {
	ledger := status.Parse(row.Get(table.FieldStatus))
	return ledger.OK(3) && !ledger.Has(p.Number())
}

// Process posts to each configured channel in a fixed order. One successful
// post is enough to mark the row ok; channel failures land in the note, and
// only a row where every channel failed is marked failed.
func (p *Publisher) Process(ctx context.Context, row table.Row) stage.RowResult {
	title := row.Get(table.FieldTitle)
	if title == "" {
		return stage.Fail("no crafted title to publish")
	}
	category := row.Get(table.FieldCategory)
	link := row.Get(table.FieldLink)
	summary := row.Get(table.FieldSummary)

	card := p.socialCard(ctx, row)

	var updates []stage.Update
	var failures []string
	posted := false

	if p.telegram != nil {
		url, err := p.telegram.Publish(ctx, social.TelegramPost{
			Title:      title,
			Summary:    summary,
			Date:       postDate(row),
			ArticleURL: link,
			ImageURL:   row.Get(table.FieldTelegramImage),
			Hashtags:   social.Hashtags(category, title, telegramTagLimit),
		})
		if err != nil {
			failures = append(failures, fmt.Sprintf("telegram: %v", err))
		} else {
			updates = append(updates, stage.Update{Field: table.FieldTelegramPost, Value: url})
			posted = true
		}
		p.pause(ctx, posted)
	}

	if p.x != nil {
		id, err := p.x.Publish(ctx, social.XPost{
			Title:      title,
			ArticleURL: link,
			Hashtags:   social.Hashtags(category, title, socialTagLimit),
			Image:      card,
		})
		if err != nil {
			failures = append(failures, fmt.Sprintf("x: %v", err))
		} else {
			updates = append(updates, stage.Update{
				Field: table.FieldXPost,
				Value: "https://x.com/i/web/status/" + id,
			})
			posted = true
		}
		p.pause(ctx, posted)
	}

	if p.bluesky != nil {
		url, err := p.bluesky.Publish(ctx, social.BlueskyPost{
			Title:      title,
			ArticleURL: link,
			Hashtags:   social.Hashtags(category, title, socialTagLimit),
			Image:      card,
		})
		if err != nil {
			failures = append(failures, fmt.Sprintf("bluesky: %v", err))
		} else {
			updates = append(updates, stage.Update{Field: table.FieldBlueskyPost, Value: url})
			posted = true
		}
	}

	switch {
	case posted && len(failures) > 0:
		return stage.RowResult{
			Outcome: stage.OutcomeOK,
			Updates: updates,
			Note:    strings.Join(failures, "; "),
		}
	case len(failures) > 0:
		return stage.RowResult{
			Outcome: stage.OutcomeFailed,
			Updates: updates,
			Note:    strings.Join(failures, "; "),
		}
	case !posted:
		return stage.Fail("no channels configured")
	}
	return stage.RowResult{Outcome: stage.OutcomeOK, Updates: updates}
}

// postDate renders the row's harvest timestamp for the caption. An
// unparseable timestamp just drops the date line.
func postDate(row table.Row) string {
	t, err := time.Parse(time.RFC3339, row.Get(table.FieldCreatedAt))
	if err != nil {
		return ""
	}
	return t.Format("2 Jan 2006")
}

// socialCard downloads the rendered card once for the channels that upload
// bytes. A missing card is tolerated; those channels post text only.
func (p *Publisher) socialCard(ctx context.Context, row table.Row) []byte {
	if p.x == nil && p.bluesky == nil {
		return nil
	}
	url := row.Get(table.FieldSocialImage)
	if url == "" {
		return nil
	}
	card, err := p.fetcher.Get(ctx, url)
	if err != nil {
		p.log.Warn("social card download failed, posting without image",
			logger.String("id", row.Get(table.FieldID)),
			logger.Error(err))
		return nil
	}
	return card
}

func (p *Publisher) pause(ctx context.Context, posted bool) {
	if posted && p.delay > 0 {
		p.sleep(ctx, p.delay)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
