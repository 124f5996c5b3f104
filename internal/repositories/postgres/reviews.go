package postgres

import (
	"context"

	"reelstudio/internal/models"
)

func (s *Store) AppendReviewLog(ctx context.Context, l *models.ReviewLog) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO review_logs (id, video_id, reviewer_id, action, note)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, l.ID, l.VideoID, l.ReviewerID, l.Action, nullable(l.Note)).Scan(&l.CreatedAt)

	return mapErr(err, "reviews.append", "review_log", l.ID)
}

func (s *Store) ListReviewLogs(ctx context.Context, videoID string) ([]models.ReviewLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, video_id, reviewer_id, action, COALESCE(note, ''), created_at
		FROM review_logs
		WHERE video_id=$1
		ORDER BY created_at ASC, id ASC
	`, videoID)
	if err != nil {
		return nil, mapErr(err, "reviews.list", "review_log", videoID)
	}
	defer rows.Close()

	var out []models.ReviewLog
	for rows.Next() {
		var l models.ReviewLog
		if err := rows.Scan(&l.ID, &l.VideoID, &l.ReviewerID, &l.Action, &l.Note, &l.CreatedAt); err != nil {
			return nil, mapErr(err, "reviews.list", "review_log", videoID)
		}
		out = append(out, l)
	}
	return out, mapErr(rows.Err(), "reviews.list", "review_log", videoID)
}
