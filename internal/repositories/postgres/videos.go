package postgres

import (
	"context"
	"time"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
)

const videoColumns = `
	id, episode_id, script_id, voice_id, type, orientation,
	COALESCE(video_url, ''), COALESCE(thumbnail_url, ''), status,
	COALESCE(error, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID,
		&v.EpisodeID,
		&v.ScriptID,
		&v.VoiceID,
		&v.Type,
		&v.Orientation,
		&v.VideoURL,
		&v.ThumbnailURL,
		&v.Status,
		&v.Error,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) CreateVideo(ctx context.Context, v *models.Video) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO videos (id, episode_id, script_id, voice_id, type, orientation, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, v.ID, v.EpisodeID, v.ScriptID, v.VoiceID, v.Type, v.Orientation, v.Status).
		Scan(&v.CreatedAt, &v.UpdatedAt)

	if err != nil {
		return mapErr(err, "videos.create", "video", v.ID)
	}
	return nil
}

func (s *Store) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	v, err := scanVideo(s.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err, "videos.get", "video", id)
	}
	return v, nil
}

func (s *Store) FindVideoByEpisode(ctx context.Context, episodeID string) (*models.Video, error) {
	v, err := scanVideo(s.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE episode_id=$1`, episodeID))
	if err != nil {
		return nil, mapErr(err, "videos.find_by_episode", "video", "episode "+episodeID)
	}
	return v, nil
}

func (s *Store) SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) (*models.Video, error) {
	v, err := scanVideo(s.db.QueryRow(ctx, `
		UPDATE videos SET status=$2, updated_at=now()
		WHERE id=$1
		RETURNING `+videoColumns, id, status))
	if err != nil {
		return nil, mapErr(err, "videos.set_status", "video", id)
	}
	return v, nil
}

func (s *Store) BeginRerender(ctx context.Context, id string, staleBefore time.Time) (*models.Video, error) {
	var stale *time.Time
	if !staleBefore.IsZero() {
		stale = &staleBefore
	}
	v, err := scanVideo(s.db.QueryRow(ctx, `
		UPDATE videos SET status='AI_PROCESSING', error=NULL, updated_at=now()
		WHERE id=$1 AND (status <> 'AI_PROCESSING' OR updated_at < $2)
		RETURNING `+videoColumns, id, stale))
	if err == nil {
		return v, nil
	}

	err = mapErr(err, "videos.begin_rerender", "video", id)
	if !errors.IsNotFound(err) {
		return nil, err
	}

	// No row updated: either the video is missing or a live render holds it.
	if _, getErr := s.GetVideo(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, errors.Conflict("video is already rendering: " + id)
}

func (s *Store) CompleteRender(ctx context.Context, id, videoURL, thumbnailURL string) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE videos
		SET status='DRAFT_READY', video_url=$2, thumbnail_url=$3, error=NULL, updated_at=now()
		WHERE id=$1
	`, id, videoURL, thumbnailURL)
	if err != nil {
		return mapErr(err, "videos.complete_render", "video", id)
	}
	if cmd.RowsAffected() == 0 {
		return errors.NotFound("video", id)
	}
	return nil
}

func (s *Store) FailRender(ctx context.Context, id, msg string) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE videos
		SET status='FAILED', error=$2, video_url=NULL, thumbnail_url=NULL, updated_at=now()
		WHERE id=$1
	`, id, nullable(msg))
	if err != nil {
		return mapErr(err, "videos.fail_render", "video", id)
	}
	if cmd.RowsAffected() == 0 {
		return errors.NotFound("video", id)
	}
	return nil
}
