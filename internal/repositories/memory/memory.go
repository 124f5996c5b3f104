// Package memory is an in-process Store used by tests and single-process
// development. Records are copied on the way in and out.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
)

type Store struct {
	mu sync.RWMutex

	videos    map[string]models.Video
	byEpisode map[string]string
	projects  map[string]models.VideoProject // keyed by video id
	reviews   map[string][]models.ReviewLog
	episodes  map[string]models.Episode
	scripts   map[string]models.Script
	voices    map[string]models.Voice

	now func() time.Time
}

func New() *Store {
	return &Store{
		videos:    make(map[string]models.Video),
		byEpisode: make(map[string]string),
		projects:  make(map[string]models.VideoProject),
		reviews:   make(map[string][]models.ReviewLog),
		episodes:  make(map[string]models.Episode),
		scripts:   make(map[string]models.Script),
		voices:    make(map[string]models.Voice),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PutEpisode, PutScript and PutVoice seed the read-only catalog.

func (s *Store) PutEpisode(e models.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes[e.ID] = e
}

func (s *Store) PutScript(sc models.Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[sc.ID] = sc
}

func (s *Store) PutVoice(v models.Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices[v.ID] = v
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

// Videos

func (s *Store) CreateVideo(ctx context.Context, v *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEpisode[v.EpisodeID]; exists {
		return errors.Conflict("video already exists for episode " + v.EpisodeID)
	}
	if _, exists := s.videos[v.ID]; exists {
		return errors.Conflict("video id already exists: " + v.ID)
	}

	now := s.now()
	v.CreatedAt, v.UpdatedAt = now, now
	s.videos[v.ID] = *v
	s.byEpisode[v.EpisodeID] = v.ID
	return nil
}

func (s *Store) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[id]
	if !ok {
		return nil, errors.NotFound("video", id)
	}
	return &v, nil
}

func (s *Store) FindVideoByEpisode(ctx context.Context, episodeID string) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEpisode[episodeID]
	if !ok {
		return nil, errors.NotFound("video", "episode "+episodeID)
	}
	v := s.videos[id]
	return &v, nil
}

// mutateVideo applies fn to the stored video under the write lock.
func (s *Store) mutateVideo(id string, fn func(v *models.Video) error) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[id]
	if !ok {
		return nil, errors.NotFound("video", id)
	}
	if err := fn(&v); err != nil {
		return nil, err
	}
	v.UpdatedAt = s.now()
	s.videos[id] = v
	return &v, nil
}

func (s *Store) SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) (*models.Video, error) {
	return s.mutateVideo(id, func(v *models.Video) error {
		v.Status = status
		return nil
	})
}

func (s *Store) BeginRerender(ctx context.Context, id string, staleBefore time.Time) (*models.Video, error) {
	return s.mutateVideo(id, func(v *models.Video) error {
		if v.Status == models.StatusAIProcessing && (staleBefore.IsZero() || !v.UpdatedAt.Before(staleBefore)) {
			return errors.Conflict("video is already rendering: " + id)
		}
		v.Status = models.StatusAIProcessing
		v.Error = ""
		return nil
	})
}

func (s *Store) CompleteRender(ctx context.Context, id, videoURL, thumbnailURL string) error {
	_, err := s.mutateVideo(id, func(v *models.Video) error {
		v.Status = models.StatusDraftReady
		v.VideoURL = videoURL
		v.ThumbnailURL = thumbnailURL
		v.Error = ""
		return nil
	})
	return err
}

func (s *Store) FailRender(ctx context.Context, id, msg string) error {
	_, err := s.mutateVideo(id, func(v *models.Video) error {
		v.Status = models.StatusFailed
		v.Error = msg
		v.VideoURL = ""
		v.ThumbnailURL = ""
		return nil
	})
	return err
}

// Projects

func (s *Store) CreateProject(ctx context.Context, p *models.VideoProject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[p.VideoID]; exists {
		return errors.Conflict("project already exists for video " + p.VideoID)
	}

	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.projects[p.VideoID] = cloneProject(*p)
	return nil
}

func (s *Store) GetProjectByVideo(ctx context.Context, videoID string) (*models.VideoProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[videoID]
	if !ok {
		return nil, errors.NotFound("project", videoID)
	}
	p = cloneProject(p)
	return &p, nil
}

func (s *Store) UpdateProject(ctx context.Context, videoID string, doc models.ProjectJSON, updatedBy string) (*models.VideoProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[videoID]
	if !ok {
		return nil, errors.NotFound("project", videoID)
	}
	p.ProjectJSON = doc
	if updatedBy != "" {
		p.UpdatedBy = updatedBy
	}
	p.UpdatedAt = s.now()
	p = cloneProject(p)
	s.projects[videoID] = p

	out := cloneProject(p)
	return &out, nil
}

func (s *Store) SetProjectStatus(ctx context.Context, videoID string, status models.ProjectStatus, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[videoID]
	if !ok {
		return errors.NotFound("project", videoID)
	}
	p.Status = status
	if updatedBy != "" {
		p.UpdatedBy = updatedBy
	}
	p.UpdatedAt = s.now()
	s.projects[videoID] = p
	return nil
}

func cloneProject(p models.VideoProject) models.VideoProject {
	p.ProjectJSON.Scenes = append([]models.Scene(nil), p.ProjectJSON.Scenes...)
	return p
}

// Reviews

func (s *Store) AppendReviewLog(ctx context.Context, l *models.ReviewLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	s.reviews[l.VideoID] = append(s.reviews[l.VideoID], *l)
	return nil
}

func (s *Store) ListReviewLogs(ctx context.Context, videoID string) ([]models.ReviewLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.ReviewLog(nil), s.reviews[videoID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Catalog

func (s *Store) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.episodes[id]
	if !ok {
		return nil, errors.NotFound("episode", id)
	}
	return &e, nil
}

func (s *Store) GetScript(ctx context.Context, id string) (*models.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scripts[id]
	if !ok {
		return nil, errors.NotFound("script", id)
	}
	return &sc, nil
}

func (s *Store) GetVoice(ctx context.Context, id string) (*models.Voice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.voices[id]
	if !ok {
		return nil, errors.NotFound("voice", id)
	}
	return &v, nil
}
