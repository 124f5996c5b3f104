package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelstudio/internal/adapters/storage/localfs"
	"reelstudio/internal/httpapi/handlers"
	"reelstudio/internal/models"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/pkg/middleware"
	"reelstudio/internal/production"
	"reelstudio/internal/queue"
	"reelstudio/internal/repositories/memory"
	"reelstudio/internal/review"
	"reelstudio/internal/voice"
)

type env struct {
	srv    *httptest.Server
	store  *memory.Store
	broker *queue.MemoryBroker
	root   string
}

type fakeVoice struct{}

func (fakeVoice) GenerateVoice(_ context.Context, text string) (voice.Result, error) {
	return voice.Result{AudioURL: "http://studio.test/uploads/voices/x.wav", DurationSeconds: float64(len(text))}, nil
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.New()
	store.PutEpisode(models.Episode{ID: "ep_1", Title: "Pilot"})
	store.PutScript(models.Script{ID: "scr_1", EpisodeID: "ep_1", Content: "One.\n\nTwo."})
	store.PutVoice(models.Voice{ID: "voice_1", EpisodeID: "ep_1", AudioURL: "http://cdn/v.wav"})

	broker := queue.NewMemoryBroker(8)
	t.Cleanup(func() { _ = broker.Close() })

	root := t.TempDir()
	log := logger.Discard()

	router := NewRouter(Deps{
		Handlers: handlers.Deps{
			Store:      store,
			Broker:     broker,
			SP:         localfs.New(root, "http://studio.test"),
			Production: production.New(store, broker, production.Options{}, log),
			Review:     review.New(store, log),
			Voices: func(kind voice.Kind, name string) (voice.Generator, error) {
				return fakeVoice{}, nil
			},
		},
		Log: log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &env{srv: srv, store: store, broker: broker, root: root}
}

func (e *env) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(middleware.UserIDHeader, "user_1")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

const generateBody = `{"episodeId":"ep_1","scriptId":"scr_1","voiceId":"voice_1","orientation":"vertical"}`

func (e *env) generate(t *testing.T) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/videos/generate", generateBody)
	if status != http.StatusAccepted {
		t.Fatalf("generate: status %d body %v", status, body)
	}
	return body["video"].(map[string]any)["id"].(string)
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	e := newEnv(t)

	status, body := e.do(t, http.MethodGet, "/health", "")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected %d %v", status, body)
	}

	status, body = e.do(t, http.MethodGet, "/health?deep=true", "")
	checks, _ := body["checks"].(map[string]any)
	if status != http.StatusOK || len(checks) != 3 || body["status"] != "ok" {
		t.Errorf("unexpected deep health %v", body)
	}

	_ = e.broker.Close()
	_, body = e.do(t, http.MethodGet, "/health?deep=true", "")
	if body["status"] != "degraded" {
		t.Errorf("expected degraded with closed broker, got %v", body["status"])
	}
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(e *env)
		body   string
		status int
		code   string
	}{
		{"accepted", nil, generateBody, http.StatusAccepted, ""},
		{"malformed json", nil, `{"episodeId":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown field", nil, `{"episode":"ep_1"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad orientation", nil, strings.Replace(generateBody, "vertical", "square", 1), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown episode", nil, strings.Replace(generateBody, "ep_1", "ep_9", 1), http.StatusNotFound, "NOT_FOUND"},
		{"queue down", func(e *env) { e.broker.FailPublish(stderrors.New("refused")) }, generateBody, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if tt.setup != nil {
				tt.setup(e)
			}
			status, body := e.do(t, http.MethodPost, "/videos/generate", tt.body)
			if status != tt.status || errorCode(body) != tt.code {
				t.Errorf("got %d %q, want %d %q (%v)", status, errorCode(body), tt.status, tt.code, body)
			}
		})
	}
}

func TestGenerateTwiceConflicts(t *testing.T) {
	e := newEnv(t)
	e.generate(t)

	status, body := e.do(t, http.MethodPost, "/videos/generate", generateBody)
	if status != http.StatusConflict || errorCode(body) != "CONFLICT" {
		t.Errorf("got %d %v", status, body)
	}
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Post(e.srv.URL+"/videos/generate", "application/json", strings.NewReader(generateBody))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestVideoDetailAndProject(t *testing.T) {
	e := newEnv(t)
	id := e.generate(t)

	status, body := e.do(t, http.MethodGet, "/videos/"+id, "")
	if status != http.StatusOK {
		t.Fatalf("detail: %d %v", status, body)
	}
	for _, key := range []string{"video", "project", "episode", "script", "voice", "reviews"} {
		if _, ok := body[key]; !ok {
			t.Errorf("detail missing %q", key)
		}
	}

	if status, _ := e.do(t, http.MethodGet, "/videos/vid_missing", ""); status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}

	status, body = e.do(t, http.MethodGet, "/videos/"+id+"/project", "")
	if status != http.StatusOK {
		t.Fatalf("project: %d %v", status, body)
	}

	edit := `{"projectJson":{"title":"Edited","scenes":[{"sceneId":"scene-1","start":0,"end":5,"text":"Hi"}],"audio":{"bgmVolume":0.5}}}`
	status, body = e.do(t, http.MethodPut, "/videos/"+id+"/project", edit)
	if status != http.StatusOK {
		t.Fatalf("update: %d %v", status, body)
	}
	project := body["project"].(map[string]any)
	if project["updatedBy"] != "user_1" {
		t.Errorf("expected updatedBy user_1, got %v", project["updatedBy"])
	}

	status, body = e.do(t, http.MethodPut, "/videos/"+id+"/project", `{"projectJson":{"title":"Empty","scenes":[]}}`)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for empty scenes, got %d %v", status, body)
	}
}

func TestRerenderConflictWhileProcessing(t *testing.T) {
	e := newEnv(t)
	id := e.generate(t)

	status, _ := e.do(t, http.MethodPost, "/videos/"+id+"/rerender", "")
	if status != http.StatusConflict {
		t.Fatalf("expected 409 while rendering, got %d", status)
	}

	_ = e.store.CompleteRender(context.Background(), id, "v", "t")
	status, body := e.do(t, http.MethodPost, "/videos/"+id+"/rerender", "")
	if status != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %v", status, body)
	}
	if body["video"].(map[string]any)["status"] != string(models.StatusAIProcessing) {
		t.Errorf("unexpected %v", body)
	}
}

func TestReviewFlow(t *testing.T) {
	e := newEnv(t)
	id := e.generate(t)
	_ = e.store.CompleteRender(context.Background(), id, "v", "t")

	status, body := e.do(t, http.MethodPatch, "/videos/"+id+"/review/start", "")
	if status != http.StatusOK || body["video"].(map[string]any)["status"] != string(models.StatusInReview) {
		t.Fatalf("start: %d %v", status, body)
	}

	status, body = e.do(t, http.MethodPatch, "/videos/"+id+"/review/reject", `{"note":"  "}`)
	if status != http.StatusBadRequest || errorCode(body) != "VALIDATION_ERROR" {
		t.Errorf("reject without note: %d %v", status, body)
	}

	status, body = e.do(t, http.MethodPatch, "/videos/"+id+"/review/approve", "")
	if status != http.StatusOK || body["video"].(map[string]any)["status"] != string(models.StatusFinalApproved) {
		t.Errorf("approve: %d %v", status, body)
	}

	status, body = e.do(t, http.MethodPatch, "/videos/"+id+"/review/approve", `{"publishNow":true,"note":"ship it"}`)
	if status != http.StatusOK || body["video"].(map[string]any)["status"] != string(models.StatusPublished) {
		t.Errorf("publish: %d %v", status, body)
	}

	status, body = e.do(t, http.MethodGet, "/videos/"+id+"/reviews", "")
	reviews, _ := body["reviews"].([]any)
	if status != http.StatusOK || len(reviews) != 2 {
		t.Errorf("reviews: %d %v", status, body)
	}

	if status, _ := e.do(t, http.MethodPatch, "/videos/vid_missing/review/start", ""); status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestSynthesizeVoice(t *testing.T) {
	e := newEnv(t)

	status, body := e.do(t, http.MethodPost, "/voices/synthesize", `{"provider":"elevenlabs","text":"hello"}`)
	if status != http.StatusOK || body["audioUrl"] == "" || body["durationSeconds"] != float64(5) {
		t.Errorf("synthesize: %d %v", status, body)
	}

	status, _ = e.do(t, http.MethodPost, "/voices/synthesize", `{"provider":"azure","text":"hello"}`)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown provider, got %d", status)
	}

	status, _ = e.do(t, http.MethodPost, "/voices/synthesize", `{"text":""}`)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for empty text, got %d", status)
	}
}

func TestUploadsServed(t *testing.T) {
	e := newEnv(t)

	dir := filepath.Join(e.root, "thumbnails")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "vid_1.jpg"), []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(e.srv.URL + "/uploads/thumbnails/vid_1.jpg")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.Equal(got, []byte("jpeg-bytes")) {
		t.Errorf("unexpected %d %q", resp.StatusCode, got)
	}

	for _, dir := range []string{"/uploads/thumbnails/", "/uploads/thumbnails", "/uploads/missing.jpg"} {
		resp, err = http.Get(e.srv.URL + dir)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", dir, resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/uploads/thumbnails/vid_1.jpg", nil)
	req.Header.Set("Range", "bytes=0-3")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	got, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent || string(got) != "jpeg" {
		t.Errorf("expected ranged read, got %d %q", resp.StatusCode, got)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("unexpected content type %q", ct)
	}
}
