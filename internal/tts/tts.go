// Package tts turns article text into spoken audio.
package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// Synthesizer renders text to MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// OpenAISynthesizer implements Synthesizer on the OpenAI speech API.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

// NewOpenAISynthesizer creates a synthesizer. Empty model or voice select
// tts-1 and alloy.
func NewOpenAISynthesizer(apiKey, model, voice string) *OpenAISynthesizer {
	m := openai.SpeechModel(model)
	if model == "" {
		m = openai.TTSModel1
	}
	v := openai.SpeechVoice(voice)
	if voice == "" {
		v = openai.VoiceAlloy
	}
	return &OpenAISynthesizer{
		client: openai.NewClient(apiKey),
		model:  m,
		voice:  v,
	}
}

// Synthesize renders text as MP3 bytes.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech response was empty")
	}
	return audio, nil
}
