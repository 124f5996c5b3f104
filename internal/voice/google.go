package voice

import (
	"context"
	"encoding/base64"

	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"

	"reelstudio/internal/pkg/errors"
)

const googleSampleRate = 24000

type googleTTS struct {
	apiKey   string
	voice    string
	language string
	endpoint string
	store    store
}

func (g *googleTTS) GenerateVoice(ctx context.Context, text string) (Result, error) {
	if err := validateText(text); err != nil {
		return Result{}, err
	}

	opts := []option.ClientOption{option.WithAPIKey(g.apiKey)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return Result{}, errors.Wrap(err, "voice.google", "failed to create text-to-speech client")
	}

	resp, err := svc.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.language,
			Name:         g.voice,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   "LINEAR16",
			SampleRateHertz: googleSampleRate,
		},
	}).Context(ctx).Do()
	if err != nil {
		return Result{}, errors.WrapWithCode(err, errors.CodeUnavailable, "voice.google", "synthesis failed")
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return Result{}, errors.Wrap(err, "voice.google", "invalid audio content")
	}

	// LINEAR16 responses normally carry their own WAV header.
	if len(audio) < 4 || string(audio[:4]) != "RIFF" {
		audio = EncodeWAV(audio, googleSampleRate, 1, 16)
	}
	return g.store.save(ctx, audio)
}
