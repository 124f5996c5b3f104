package postgres

import (
	"context"

	"reelstudio/internal/models"
)

func (s *Store) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	var e models.Episode
	err := s.db.QueryRow(ctx, `
		SELECT id, COALESCE(playlist_id, ''), title, created_at
		FROM episodes
		WHERE id=$1
	`, id).Scan(&e.ID, &e.PlaylistID, &e.Title, &e.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "catalog.episode", "episode", id)
	}
	return &e, nil
}

func (s *Store) GetScript(ctx context.Context, id string) (*models.Script, error) {
	var sc models.Script
	err := s.db.QueryRow(ctx, `
		SELECT id, episode_id, content, created_at
		FROM scripts
		WHERE id=$1
	`, id).Scan(&sc.ID, &sc.EpisodeID, &sc.Content, &sc.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "catalog.script", "script", id)
	}
	return &sc, nil
}

func (s *Store) GetVoice(ctx context.Context, id string) (*models.Voice, error) {
	var v models.Voice
	err := s.db.QueryRow(ctx, `
		SELECT id, episode_id, provider, audio_url, duration_seconds, created_at
		FROM voices
		WHERE id=$1
	`, id).Scan(&v.ID, &v.EpisodeID, &v.Provider, &v.AudioURL, &v.DurationSeconds, &v.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "catalog.voice", "voice", id)
	}
	return &v, nil
}
