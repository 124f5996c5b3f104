package worker

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reelstudio/internal/adapters/storage/localfs"
	"reelstudio/internal/config"
	renderv1 "reelstudio/internal/contracts/render/v1"
	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/production"
	"reelstudio/internal/queue"
	"reelstudio/internal/repositories/memory"
	"reelstudio/internal/review"
	"reelstudio/internal/testsupport"
)

func TestGateRequeuePolicy(t *testing.T) {
	g := NewGate(config.BusyRequeue, 10*time.Millisecond)

	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if !g.Busy() {
		t.Fatal("expected gate to be busy")
	}

	start := time.Now()
	err := g.Acquire(context.Background())
	if !stderrors.Is(err, queue.ErrRetryLater) {
		t.Fatalf("expected ErrRetryLater, got %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("expected requeue to wait for the delay")
	}

	g.Release()
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestGateWaitPolicy(t *testing.T) {
	g := NewGate(config.BusyWait, 0)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	acquired := make(chan error, 1)
	go func() { acquired <- g.Acquire(context.Background()) }()

	select {
	case <-acquired:
		t.Fatal("second acquire must block while the slot is taken")
	case <-time.After(20 * time.Millisecond):
	}

	g.Release()
	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second acquire did not proceed after release")
	}
}

func TestGateWaitCancelled(t *testing.T) {
	g := NewGate(config.BusyWait, 0)
	_ = g.Acquire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctx); !stderrors.Is(err, queue.ErrRetryLater) {
		t.Fatalf("expected ErrRetryLater on cancel, got %v", err)
	}
}

func waitForStatus(t *testing.T, store *memory.Store, videoID string, want models.VideoStatus) *models.Video {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		v, err := store.GetVideo(context.Background(), videoID)
		if err == nil && v.Status == want {
			return v
		}
		time.Sleep(10 * time.Millisecond)
	}
	v, _ := store.GetVideo(context.Background(), videoID)
	t.Fatalf("video %s never reached %s, last state %+v", videoID, want, v)
	return nil
}

func waitForProjectStatus(t *testing.T, store *memory.Store, videoID string, want models.ProjectStatus) *models.VideoProject {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p, err := store.GetProjectByVideo(context.Background(), videoID)
		if err == nil && p.Status == want {
			return p
		}
		time.Sleep(10 * time.Millisecond)
	}
	p, _ := store.GetProjectByVideo(context.Background(), videoID)
	t.Fatalf("project of %s never reached %s, last state %+v", videoID, want, p)
	return nil
}

type pipeline struct {
	store  *memory.Store
	broker *queue.MemoryBroker
	prod   *production.Service
	deps   Deps
}

func newPipeline(t *testing.T, renderBody string) *pipeline {
	t.Helper()

	store := memory.New()
	store.PutEpisode(models.Episode{ID: "ep_1", Title: "Pilot"})
	store.PutScript(models.Script{ID: "scr_1", EpisodeID: "ep_1", Content: "First.\n\nSecond."})
	store.PutVoice(models.Voice{ID: "voice_1", EpisodeID: "ep_1", AudioURL: "http://cdn/voice.wav"})

	broker := queue.NewMemoryBroker(8)
	t.Cleanup(func() { _ = broker.Close() })

	deps := Deps{
		Broker: broker,
		Queue:  renderv1.QueueName,
		Store:  store,
		SP:     localfs.New(t.TempDir(), "http://studio.test"),
		Render: config.RenderConfig{
			Bin:              testsupport.StubBinary(t, "render", renderBody),
			Args:             testsupport.RenderArgs,
			ThumbnailBin:     testsupport.StubBinary(t, "ffmpeg", testsupport.ThumbnailOK),
			FPS:              30,
			Timeout:          time.Minute,
			ThumbnailTimeout: time.Minute,
			ScratchDir:       filepath.Join(t.TempDir(), "scratch"),
			BusyPolicy:       config.BusyWait,
		},
		Receivers: 2,
		Log:       logger.Discard(),
	}

	return &pipeline{
		store:  store,
		broker: broker,
		prod:   production.New(store, broker, production.Options{}, logger.Discard()),
		deps:   deps,
	}
}

func (p *pipeline) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, p.deps) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("worker did not stop")
		}
	})
}

func TestGenerateToDraftReady(t *testing.T) {
	p := newPipeline(t, testsupport.RenderOK)
	p.start(t)

	video, err := p.prod.Generate(context.Background(), production.GenerateInput{
		EpisodeID:   "ep_1",
		ScriptID:    "scr_1",
		VoiceID:     "voice_1",
		Orientation: "horizontal",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	v := waitForStatus(t, p.store, video.ID, models.StatusDraftReady)
	if v.VideoURL == "" || v.ThumbnailURL == "" {
		t.Errorf("expected artifact urls, got %+v", v)
	}
}

func TestApprovedVideoReworkedToDraftReady(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, testsupport.RenderOK)
	p.start(t)
	reviews := review.New(p.store, logger.Discard())

	video, err := p.prod.Generate(ctx, production.GenerateInput{
		EpisodeID:   "ep_1",
		ScriptID:    "scr_1",
		VoiceID:     "voice_1",
		Orientation: "vertical",
		UserID:      "author",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	waitForStatus(t, p.store, video.ID, models.StatusDraftReady)
	waitForProjectStatus(t, p.store, video.ID, models.StatusDraftReady)

	if _, err := reviews.StartReview(ctx, video.ID, "reviewer"); err != nil {
		t.Fatalf("start review: %v", err)
	}
	approved, err := reviews.Approve(ctx, video.ID, "reviewer", review.ApproveInput{Note: "ship it after a polish"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.StatusFinalApproved {
		t.Fatalf("expected FINAL_APPROVED, got %s", approved.Status)
	}

	if _, err := p.prod.Rerender(ctx, video.ID, "editor"); err != nil {
		t.Fatalf("rerender: %v", err)
	}
	v := waitForStatus(t, p.store, video.ID, models.StatusDraftReady)
	if v.VideoURL == "" || v.Error != "" {
		t.Errorf("unexpected video after rework %+v", v)
	}

	project := waitForProjectStatus(t, p.store, video.ID, models.StatusDraftReady)
	if project.UpdatedBy != "editor" {
		t.Errorf("expected updatedBy editor, got %q", project.UpdatedBy)
	}

	logs, err := reviews.History(ctx, video.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Action != models.ReviewApproved || logs[0].ReviewerID != "reviewer" {
		t.Errorf("expected exactly one APPROVED entry, got %+v", logs)
	}
}

// flakyStatusStore fails the first SetVideoStatus calls.
type flakyStatusStore struct {
	*memory.Store

	mu       sync.Mutex
	failures int
}

func (s *flakyStatusStore) SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) (*models.Video, error) {
	s.mu.Lock()
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()

	if fail {
		return nil, errors.Unavailable("database")
	}
	return s.Store.SetVideoStatus(ctx, id, status)
}

func TestStatusWriteFailureLeavesVideoRerenderable(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, testsupport.RenderOK)
	p.deps.Store = &flakyStatusStore{Store: p.store, failures: 1}
	p.start(t)

	video, err := p.prod.Generate(ctx, production.GenerateInput{
		EpisodeID:   "ep_1",
		ScriptID:    "scr_1",
		VoiceID:     "voice_1",
		Orientation: "vertical",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	v := waitForStatus(t, p.store, video.ID, models.StatusFailed)
	if v.Error == "" {
		t.Error("expected the store failure on the video")
	}

	if _, err := p.prod.Rerender(ctx, video.ID, "editor"); err != nil {
		t.Fatalf("rerender after failed status write: %v", err)
	}
	waitForStatus(t, p.store, video.ID, models.StatusDraftReady)
}

func TestFailedRenderIsNotRedelivered(t *testing.T) {
	p := newPipeline(t, testsupport.Fail)
	p.start(t)

	video, err := p.prod.Generate(context.Background(), production.GenerateInput{
		EpisodeID:   "ep_1",
		ScriptID:    "scr_1",
		VoiceID:     "voice_1",
		Orientation: "vertical",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	v := waitForStatus(t, p.store, video.ID, models.StatusFailed)
	if v.Error == "" {
		t.Error("expected failure message on video")
	}

	time.Sleep(50 * time.Millisecond)
	if n := p.broker.Len(renderv1.QueueName); n != 0 {
		t.Errorf("expected failed job to be dropped, queue has %d", n)
	}
}

func TestUndecodableMessageIsDropped(t *testing.T) {
	p := newPipeline(t, testsupport.RenderOK)
	p.start(t)

	if err := p.broker.Publish(context.Background(), renderv1.QueueName, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for p.broker.Len(renderv1.QueueName) != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := p.broker.Len(renderv1.QueueName); n != 0 {
		t.Errorf("expected message to be consumed and dropped, %d left", n)
	}
}

func TestRunSubscribeFailure(t *testing.T) {
	broker := queue.NewMemoryBroker(1)
	_ = broker.Close()

	err := Run(context.Background(), Deps{Broker: broker, Log: logger.Discard()})
	if err == nil {
		t.Fatal("expected subscribe failure")
	}
}
