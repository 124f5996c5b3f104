// Package production turns generate and rerender requests into render jobs.
// It owns the Video and VideoProject records up to the point a job is on
// the queue; the worker takes over from there.
package production

import (
	"context"
	"strings"
	"time"

	renderv1 "reelstudio/internal/contracts/render/v1"
	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/ids"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/repositories"
	"reelstudio/internal/scenegraph"
)

// Publisher is the producing half of queue.Broker.
type Publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

type Options struct {
	// Queue defaults to renderv1.QueueName.
	Queue      string
	DefaultBGM string
	BGMVolume  float64
	// StaleAfter lets a rerender take over a video that has been in
	// AI_PROCESSING longer than this. Zero keeps the Conflict unconditional.
	StaleAfter time.Duration
}

type Service struct {
	store repositories.Store
	pub   Publisher
	opts  Options
	log   *logger.Logger
}

func New(store repositories.Store, pub Publisher, opts Options, log *logger.Logger) *Service {
	if opts.Queue == "" {
		opts.Queue = renderv1.QueueName
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Service{store: store, pub: pub, opts: opts, log: log.WithComponent("production")}
}

type GenerateInput struct {
	EpisodeID   string `json:"episodeId"`
	ScriptID    string `json:"scriptId"`
	VoiceID     string `json:"voiceId"`
	Orientation string `json:"orientation"`
	UserID      string `json:"-"`
}

func (in GenerateInput) validate() (models.Orientation, error) {
	required := []struct{ field, value string }{
		{"episodeId", in.EpisodeID},
		{"scriptId", in.ScriptID},
		{"voiceId", in.VoiceID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return "", errors.ValidationField(r.field, r.field+" is required")
		}
	}

	o, ok := models.ParseOrientation(in.Orientation)
	if !ok {
		return "", errors.ValidationField("orientation", "orientation must be vertical or horizontal")
	}
	return o, nil
}

// Generate creates the video and its project for an episode and queues the
// first render. It returns as soon as the job is published.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*models.Video, error) {
	orientation, err := in.validate()
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindVideoByEpisode(ctx, in.EpisodeID)
	switch {
	case err == nil:
		return nil, errors.Conflict("video already exists for episode " + in.EpisodeID).
			WithField("videoId", existing.ID)
	case !errors.IsNotFound(err):
		return nil, err
	}

	episode, err := s.store.GetEpisode(ctx, in.EpisodeID)
	if err != nil {
		return nil, err
	}
	script, err := s.store.GetScript(ctx, in.ScriptID)
	if err != nil {
		return nil, err
	}
	voice, err := s.store.GetVoice(ctx, in.VoiceID)
	if err != nil {
		return nil, err
	}

	doc := scenegraph.BuildProject(episode.Title, script.Content, orientation, s.audio(voice))
	if len(doc.Scenes) == 0 {
		return nil, errors.ValidationField("scriptId", "script "+in.ScriptID+" has no paragraphs to render")
	}

	video := &models.Video{
		ID:          ids.New(ids.PrefixVideo),
		EpisodeID:   in.EpisodeID,
		ScriptID:    in.ScriptID,
		VoiceID:     in.VoiceID,
		Type:        models.VideoTypeAIGenerated,
		Orientation: orientation,
		Status:      models.StatusAIProcessing,
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		return nil, err
	}

	log := s.log.FromContext(ctx).WithVideoID(video.ID)

	project := &models.VideoProject{
		ID:          ids.New(ids.PrefixProject),
		VideoID:     video.ID,
		ProjectJSON: doc,
		Status:      models.StatusAIProcessing,
		CreatedBy:   in.UserID,
		UpdatedBy:   in.UserID,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		s.markFailed(ctx, log, video.ID, err)
		return nil, err
	}

	job := renderv1.RenderJob{
		VideoID:       video.ID,
		Orientation:   orientation,
		ProjectJSON:   doc,
		VoiceAudioURL: voice.AudioURL,
	}
	if err := s.publish(ctx, log, job); err != nil {
		return nil, err
	}

	log.Info("render job queued",
		"episode_id", in.EpisodeID,
		"scenes", len(doc.Scenes),
		"orientation", orientation,
	)
	return video, nil
}

// Rerender queues a new render from the current project contents, so
// editor changes are kept. A video that is still rendering is a Conflict
// until it has been in AI_PROCESSING for longer than Options.StaleAfter.
// The project keeps its status; only updatedBy is stamped.
func (s *Service) Rerender(ctx context.Context, videoID, userID string) (*models.Video, error) {
	project, err := s.store.GetProjectByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var staleBefore time.Time
	if s.opts.StaleAfter > 0 {
		staleBefore = time.Now().UTC().Add(-s.opts.StaleAfter)
	}
	video, err := s.store.BeginRerender(ctx, videoID, staleBefore)
	if err != nil {
		return nil, err
	}

	log := s.log.FromContext(ctx).WithVideoID(videoID)

	if err := s.store.SetProjectStatus(ctx, videoID, project.Status, userID); err != nil {
		s.markFailed(ctx, log, videoID, err)
		return nil, err
	}

	job := renderv1.RenderJob{
		VideoID:       videoID,
		Orientation:   video.Orientation,
		ProjectJSON:   project.ProjectJSON,
		VoiceAudioURL: s.voiceURL(ctx, video, project),
	}
	if err := s.publish(ctx, log, job); err != nil {
		return nil, err
	}

	log.Info("rerender job queued", "scenes", len(project.ProjectJSON.Scenes))
	return video, nil
}

// Project returns the project of a video, creating it from the script the
// first time it is requested.
func (s *Service) Project(ctx context.Context, videoID, userID string) (*models.VideoProject, error) {
	p, err := s.store.GetProjectByVideo(ctx, videoID)
	if err == nil || !errors.IsNotFound(err) {
		return p, err
	}

	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var title, content string
	if ep, err := s.store.GetEpisode(ctx, video.EpisodeID); err == nil {
		title = ep.Title
	}
	if sc, err := s.store.GetScript(ctx, video.ScriptID); err == nil {
		content = sc.Content
	}
	var voice *models.Voice
	if v, err := s.store.GetVoice(ctx, video.VoiceID); err == nil {
		voice = v
	}

	p = &models.VideoProject{
		ID:          ids.New(ids.PrefixProject),
		VideoID:     videoID,
		ProjectJSON: scenegraph.BuildProject(title, content, video.Orientation, s.audio(voice)),
		Status:      video.Status,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		if errors.IsConflict(err) {
			return s.store.GetProjectByVideo(ctx, videoID)
		}
		return nil, err
	}

	s.log.FromContext(ctx).WithVideoID(videoID).Info("project created on first access")
	return p, nil
}

// UpdateProject saves an edited scene graph. The next rerender uses it.
func (s *Service) UpdateProject(ctx context.Context, videoID, userID string, doc models.ProjectJSON) (*models.VideoProject, error) {
	if err := scenegraph.Validate(doc); err != nil {
		return nil, err
	}
	if _, err := s.Project(ctx, videoID, userID); err != nil {
		return nil, err
	}
	return s.store.UpdateProject(ctx, videoID, doc, userID)
}

func (s *Service) audio(voice *models.Voice) models.Audio {
	a := models.Audio{BGM: s.opts.DefaultBGM, BGMVolume: s.opts.BGMVolume}
	if voice != nil {
		a.Voice = voice.AudioURL
	}
	return a
}

func (s *Service) voiceURL(ctx context.Context, video *models.Video, project *models.VideoProject) string {
	if project.ProjectJSON.Audio.Voice != "" {
		return project.ProjectJSON.Audio.Voice
	}
	if v, err := s.store.GetVoice(ctx, video.VoiceID); err == nil {
		return v.AudioURL
	}
	return ""
}

// publish queues job. When the broker refuses it the video is marked FAILED
// so it does not sit in AI_PROCESSING with nothing queued.
func (s *Service) publish(ctx context.Context, log *logger.Logger, job renderv1.RenderJob) error {
	err := s.pub.Publish(ctx, s.opts.Queue, job)
	if err == nil {
		return nil
	}

	if !errors.IsQueueUnavailable(err) {
		err = errors.QueueUnavailable(s.opts.Queue, err)
	}
	s.markFailed(ctx, log, job.VideoID, err)
	return err
}

func (s *Service) markFailed(ctx context.Context, log *logger.Logger, videoID string, cause error) {
	log.LogError(ctx, "render job not queued", cause)
	if err := s.store.FailRender(context.WithoutCancel(ctx), videoID, cause.Error()); err != nil {
		log.LogError(ctx, "failed to record queue failure on video", err)
	}
}
