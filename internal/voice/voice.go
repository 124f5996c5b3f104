// Package voice synthesizes narration tracks. Providers are selected by
// Kind; every provider stores its output as WAV through the configured
// StorageProvider.
package voice

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"reelstudio/internal/config"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/ids"
	"reelstudio/internal/ports"
)

type Kind string

const (
	KindGoogle     Kind = "GOOGLE"
	KindElevenLabs Kind = "ELEVENLABS"
	KindPolly      Kind = "POLLY"
)

// ParseKind accepts a provider name case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindGoogle, KindElevenLabs, KindPolly:
		return k, nil
	default:
		return "", errors.ValidationField("provider", "unknown voice provider: "+s)
	}
}

// Result describes a stored narration track.
type Result struct {
	AudioURL        string  `json:"audioUrl"`
	DurationSeconds float64 `json:"durationSeconds"`
}

type Generator interface {
	GenerateVoice(ctx context.Context, text string) (Result, error)
}

type Options struct {
	Config  config.VoiceConfig
	Storage ports.StorageProvider

	// Voice overrides the configured voice of the selected provider.
	Voice string

	HTTPClient *http.Client

	// GoogleEndpoint overrides the Text-to-Speech API endpoint.
	GoogleEndpoint string
}

// New returns the generator for kind.
func New(kind Kind, opts Options) (Generator, error) {
	if opts.Storage == nil {
		return nil, errors.Unavailable("voice storage")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	cfg := opts.Config

	switch kind {
	case KindGoogle:
		if cfg.GoogleAPIKey == "" {
			return nil, errors.Unavailable("google text-to-speech").WithField("missing", "GOOGLE_TTS_API_KEY")
		}
		return &googleTTS{
			apiKey:   cfg.GoogleAPIKey,
			voice:    firstNonEmpty(opts.Voice, cfg.GoogleVoiceName),
			language: cfg.GoogleLanguage,
			endpoint: opts.GoogleEndpoint,
			store:    store{sp: opts.Storage},
		}, nil
	case KindElevenLabs:
		if cfg.ElevenLabsAPIKey == "" {
			return nil, errors.Unavailable("elevenlabs").WithField("missing", "ELEVENLABS_API_KEY")
		}
		return &elevenLabs{
			apiKey:  cfg.ElevenLabsAPIKey,
			baseURL: strings.TrimRight(cfg.ElevenLabsBaseURL, "/"),
			voiceID: firstNonEmpty(opts.Voice, cfg.ElevenLabsVoiceID),
			client:  opts.HTTPClient,
			store:   store{sp: opts.Storage},
		}, nil
	case KindPolly:
		if cfg.PollyRegion == "" {
			return nil, errors.Unavailable("polly").WithField("missing", "POLLY_REGION")
		}
		return &pollyTTS{
			region:  cfg.PollyRegion,
			voiceID: firstNonEmpty(opts.Voice, cfg.PollyVoiceID),
			client:  opts.HTTPClient,
			store:   store{sp: opts.Storage},
		}, nil
	default:
		return nil, errors.ValidationField("provider", "unknown voice provider: "+string(kind))
	}
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.ValidationField("text", "text is required")
	}
	return nil
}

// store writes finished WAV tracks under voices/<id>.wav.
type store struct {
	sp ports.StorageProvider
}

func (s store) save(ctx context.Context, wav []byte) (Result, error) {
	seconds, err := WAVDuration(wav)
	if err != nil {
		return Result{}, err
	}

	key := "voices/" + ids.New(ids.PrefixVoice) + ".wav"
	out, err := s.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: "audio/wav",
		Reader:      bytes.NewReader(wav),
		Size:        int64(len(wav)),
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "voice.store", "failed to store voice track")
	}
	return Result{AudioURL: s.sp.PublicURL(out.ObjectKey), DurationSeconds: seconds}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
