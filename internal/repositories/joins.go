package repositories

import (
	"context"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
)

// LoadVideoDetail fetches a video and resolves its episode, script, voice,
// project and review history by id. Only a missing video is an error;
// unresolved relations stay nil.
func LoadVideoDetail(ctx context.Context, s Store, videoID string) (*models.VideoDetail, error) {
	v, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	d := &models.VideoDetail{Video: v, Reviews: []models.ReviewLog{}}

	if d.Episode, err = optional(s.GetEpisode(ctx, v.EpisodeID)); err != nil {
		return nil, err
	}
	if d.Script, err = optional(s.GetScript(ctx, v.ScriptID)); err != nil {
		return nil, err
	}
	if d.Voice, err = optional(s.GetVoice(ctx, v.VoiceID)); err != nil {
		return nil, err
	}
	if d.Project, err = optional(s.GetProjectByVideo(ctx, v.ID)); err != nil {
		return nil, err
	}

	logs, err := s.ListReviewLogs(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	if logs != nil {
		d.Reviews = logs
	}

	return d, nil
}

// LoadProjectWithVideo returns a project together with its owning video.
func LoadProjectWithVideo(ctx context.Context, s Store, videoID string) (*models.VideoProject, *models.Video, error) {
	v, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.GetProjectByVideo(ctx, videoID)
	if err != nil {
		return nil, v, err
	}
	return p, v, nil
}

func optional[T any](v *T, err error) (*T, error) {
	if errors.IsNotFound(err) {
		return nil, nil
	}
	return v, err
}
