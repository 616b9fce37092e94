// Package voicer implements stage 4: rendering the summary and the full
// article as spoken audio.
package voicer

import (
	"context"
	"fmt"

	"github.com/jonesrussell/gonews/internal/media"
	"github.com/jonesrussell/gonews/internal/stage"
	"github.com/jonesrussell/gonews/internal/status"
	"github.com/jonesrussell/gonews/internal/table"
	"github.com/jonesrussell/gonews/internal/tts"
)

// Voicer synthesizes the two audio renditions of a story.
type Voicer struct {
	synth tts.Synthesizer
	blobs media.BlobStore
}

// New creates the voicer.
func New(synth tts.Synthesizer, blobs media.BlobStore) *Voicer {
	return &Voicer{synth: synth, blobs: blobs}
}

// Name returns the stage name.
func (v *Voicer) Name() string { return stage.NameVoicer }

// Number returns the ledger position.
func (v *Voicer) Number() int { return stage.Number(stage.NameVoicer) }

// Eligible wants crafted rows not yet voiced. Audio only needs the text, so
// the voicer does not wait for the styler.
func (v *Voicer) Eligible(row table.Row) bool {
	ledger := status.Parse(row.Get(table.FieldStatus))
	return ledger.OK(2) && !ledger.Has(v.Number())
}

// Process renders the short (summary) and long (article) audio files.
func (v *Voicer) Process(ctx context.Context, row table.Row) stage.RowResult {
	summary := row.Get(table.FieldSummary)
	article := row.Get(table.FieldLongText)
	if summary == "" || article == "" {
		return stage.Fail("no crafted text to voice")
	}

	id := row.Get(table.FieldID)
	shortURL, err := v.render(ctx, id, "short", summary)
	if err != nil {
		return stage.Fail(err.Error())
	}
	longURL, err := v.render(ctx, id, "long", article)
	if err != nil {
		return stage.Fail(err.Error())
	}

	return stage.RowResult{
		Outcome: stage.OutcomeOK,
		Updates: []stage.Update{
			{Field: table.FieldShortAudio, Value: shortURL},
			{Field: table.FieldLongAudio, Value: longURL},
		},
	}
}

func (v *Voicer) render(ctx context.Context, id, name, text string) (string, error) {
	audio, err := v.synth.Synthesize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("synthesize %s audio: %w", name, err)
	}
	key := fmt.Sprintf("audio/%s/%s.mp3", id, name)
	url, err := v.blobs.Put(ctx, key, audio, "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("store %s audio: %w", name, err)
	}
	return url, nil
}
