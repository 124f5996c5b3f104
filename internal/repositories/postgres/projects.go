package postgres

import (
	"context"
	"encoding/json"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
)

const projectColumns = `
	id, video_id, project_json, status,
	COALESCE(created_by, ''), COALESCE(updated_by, ''), created_at, updated_at`

func scanProject(row rowScanner) (*models.VideoProject, error) {
	var (
		p   models.VideoProject
		raw []byte
	)
	err := row.Scan(
		&p.ID,
		&p.VideoID,
		&raw,
		&p.Status,
		&p.CreatedBy,
		&p.UpdatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.ProjectJSON); err != nil {
		return nil, errors.Wrap(err, "projects.scan", "decode project_json")
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.VideoProject) error {
	doc, err := json.Marshal(p.ProjectJSON)
	if err != nil {
		return errors.Wrap(err, "projects.create", "encode project_json")
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO video_projects (id, video_id, project_json, status, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at
	`, p.ID, p.VideoID, doc, p.Status, nullable(p.CreatedBy), nullable(p.UpdatedBy)).
		Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return mapErr(err, "projects.create", "project", p.VideoID)
	}
	return nil
}

func (s *Store) GetProjectByVideo(ctx context.Context, videoID string) (*models.VideoProject, error) {
	p, err := scanProject(s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM video_projects WHERE video_id=$1`, videoID))
	if err != nil {
		return nil, mapErr(err, "projects.get", "project", videoID)
	}
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, videoID string, doc models.ProjectJSON, updatedBy string) (*models.VideoProject, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "projects.update", "encode project_json")
	}

	p, err := scanProject(s.db.QueryRow(ctx, `
		UPDATE video_projects
		SET project_json=$2, updated_by=COALESCE($3, updated_by), updated_at=now()
		WHERE video_id=$1
		RETURNING `+projectColumns, videoID, raw, nullable(updatedBy)))
	if err != nil {
		return nil, mapErr(err, "projects.update", "project", videoID)
	}
	return p, nil
}

func (s *Store) SetProjectStatus(ctx context.Context, videoID string, status models.ProjectStatus, updatedBy string) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE video_projects
		SET status=$2, updated_by=COALESCE($3, updated_by), updated_at=now()
		WHERE video_id=$1
	`, videoID, status, nullable(updatedBy))
	if err != nil {
		return mapErr(err, "projects.set_status", "project", videoID)
	}
	if cmd.RowsAffected() == 0 {
		return errors.NotFound("project", videoID)
	}
	return nil
}
