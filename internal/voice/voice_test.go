package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelstudio/internal/adapters/storage/localfs"
	"reelstudio/internal/config"
	"reelstudio/internal/pkg/errors"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"google", KindGoogle, false},
		{" ElevenLabs ", KindElevenLabs, false},
		{"POLLY", KindPolly, false},
		{"azure", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
			}
			if tt.wantErr && !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNewDispatch(t *testing.T) {
	sp := localfs.New(t.TempDir(), "http://studio.test")
	full := config.VoiceConfig{
		GoogleAPIKey:     "g",
		ElevenLabsAPIKey: "e",
		PollyRegion:      "us-east-1",
	}

	tests := []struct {
		name string
		kind Kind
		cfg  config.VoiceConfig
		want string
		code errors.Code
	}{
		{"google", KindGoogle, full, "*voice.googleTTS", ""},
		{"elevenlabs", KindElevenLabs, full, "*voice.elevenLabs", ""},
		{"polly", KindPolly, full, "*voice.pollyTTS", ""},
		{"google without key", KindGoogle, config.VoiceConfig{}, "", errors.CodeUnavailable},
		{"elevenlabs without key", KindElevenLabs, config.VoiceConfig{}, "", errors.CodeUnavailable},
		{"unknown", Kind("AZURE"), full, "", errors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.kind, Options{Config: tt.cfg, Storage: sp})
			if tt.code != "" {
				if errors.GetCode(err) != tt.code {
					t.Fatalf("expected %s, got %v", tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if got := fmt.Sprintf("%T", g); got != tt.want {
				t.Errorf("New(%s) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}
}

func TestNewRequiresStorage(t *testing.T) {
	if _, err := New(KindGoogle, Options{Config: config.VoiceConfig{GoogleAPIKey: "g"}}); errors.GetCode(err) != errors.CodeUnavailable {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := make([]byte, 48000) // one second of 24kHz 16-bit mono
	wav := EncodeWAV(pcm, 24000, 1, 16)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("unexpected size %d", len(wav))
	}
	d, err := WAVDuration(wav)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-1.0) > 1e-9 {
		t.Errorf("expected 1s, got %v", d)
	}

	if _, err := WAVDuration([]byte("not a wav file")); !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestElevenLabsGenerate(t *testing.T) {
	var gotKey, gotPath, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		var body elevenLabsRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotText = body.Text
		_, _ = w.Write(make([]byte, 24000)) // half a second
	}))
	defer srv.Close()

	root := t.TempDir()
	g, err := New(KindElevenLabs, Options{
		Config:  config.VoiceConfig{ElevenLabsAPIKey: "secret", ElevenLabsBaseURL: srv.URL, ElevenLabsVoiceID: "default"},
		Storage: localfs.New(root, "http://studio.test"),
		Voice:   "narrator",
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.GenerateVoice(context.Background(), "Hello there")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if gotKey != "secret" || gotText != "Hello there" {
		t.Errorf("unexpected request key=%q text=%q", gotKey, gotText)
	}
	if gotPath != "/v1/text-to-speech/narrator?output_format=pcm_24000" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if math.Abs(res.DurationSeconds-0.5) > 1e-9 {
		t.Errorf("expected 0.5s, got %v", res.DurationSeconds)
	}
	if !strings.HasPrefix(res.AudioURL, "http://studio.test/uploads/voices/vox_") || !strings.HasSuffix(res.AudioURL, ".wav") {
		t.Errorf("unexpected url %q", res.AudioURL)
	}

	key := strings.TrimPrefix(res.AudioURL, "http://studio.test/uploads/")
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("stored track: %v", err)
	}
	defer f.Close()
	head := make([]byte, 4)
	_, _ = io.ReadFull(f, head)
	if string(head) != "RIFF" {
		t.Errorf("stored track is not a wav file")
	}
}

func TestElevenLabsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, _ := New(KindElevenLabs, Options{
		Config:  config.VoiceConfig{ElevenLabsAPIKey: "k", ElevenLabsBaseURL: srv.URL},
		Storage: localfs.New(t.TempDir(), ""),
	})
	_, err := g.GenerateVoice(context.Background(), "hi")
	if errors.GetCode(err) != errors.CodeUnavailable || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestGoogleGenerate(t *testing.T) {
	wav := EncodeWAV(make([]byte, 48000), 24000, 1, 16)

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		if !strings.HasSuffix(r.URL.Path, "/text:synthesize") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString(wav),
		})
	}))
	defer srv.Close()

	g, err := New(KindGoogle, Options{
		Config:         config.VoiceConfig{GoogleAPIKey: "gkey", GoogleLanguage: "en-US"},
		Storage:        localfs.New(t.TempDir(), "http://studio.test"),
		GoogleEndpoint: srv.URL + "/",
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.GenerateVoice(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gotKey != "gkey" {
		t.Errorf("expected api key on request, got %q", gotKey)
	}
	if math.Abs(res.DurationSeconds-1) > 1e-9 {
		t.Errorf("expected 1s, got %v", res.DurationSeconds)
	}
}

func TestGenerateRejectsEmptyText(t *testing.T) {
	g, _ := New(KindElevenLabs, Options{
		Config:  config.VoiceConfig{ElevenLabsAPIKey: "k", ElevenLabsBaseURL: "http://unused"},
		Storage: localfs.New(t.TempDir(), ""),
	})
	if _, err := g.GenerateVoice(context.Background(), "  "); !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
