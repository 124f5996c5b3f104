package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"reelstudio/internal/pkg/errors"
)

const (
	elevenLabsSampleRate = 24000
	elevenLabsModel      = "eleven_multilingual_v2"
)

type elevenLabs struct {
	apiKey  string
	baseURL string
	voiceID string
	client  *http.Client
	store   store
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (e *elevenLabs) GenerateVoice(ctx context.Context, text string) (Result, error) {
	if err := validateText(text); err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(elevenLabsRequest{Text: text, ModelID: elevenLabsModel})
	if err != nil {
		return Result{}, errors.Wrap(err, "voice.elevenlabs", "encode request")
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=pcm_%d",
		e.baseURL, url.PathEscape(e.voiceID), elevenLabsSampleRate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, errors.Wrap(err, "voice.elevenlabs", "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/pcm")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return Result{}, errors.WrapWithCode(err, errors.CodeUnavailable, "voice.elevenlabs", "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, errors.Newf(errors.CodeUnavailable, "elevenlabs returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet))).
			WithField("status", resp.StatusCode)
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, errors.Wrap(err, "voice.elevenlabs", "read audio")
	}
	if len(pcm) == 0 {
		return Result{}, errors.New(errors.CodeUnavailable, "elevenlabs returned no audio")
	}

	return e.store.save(ctx, EncodeWAV(pcm, elevenLabsSampleRate, 1, 16))
}
