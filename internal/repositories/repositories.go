// Package repositories defines the persistence boundary of the render
// pipeline. Backends live in the postgres, mongo and memory subpackages and
// translate their driver errors to NotFound and Conflict.
package repositories

import (
	"context"
	"time"

	"reelstudio/internal/models"
)

type Videos interface {
	// CreateVideo returns Conflict when a video already exists for the
	// episode.
	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	FindVideoByEpisode(ctx context.Context, episodeID string) (*models.Video, error)
	SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) (*models.Video, error)

	// BeginRerender moves a settled video back to AI_PROCESSING and clears
	// its error. A video already in AI_PROCESSING yields Conflict unless it
	// was last updated before staleBefore; a zero staleBefore never reclaims.
	BeginRerender(ctx context.Context, id string, staleBefore time.Time) (*models.Video, error)
	// CompleteRender records the artifact URLs and sets DRAFT_READY.
	CompleteRender(ctx context.Context, id, videoURL, thumbnailURL string) error
	// FailRender sets FAILED with msg and clears the artifact URLs.
	FailRender(ctx context.Context, id, msg string) error
}

type Projects interface {
	// CreateProject returns Conflict when the video already has a project.
	CreateProject(ctx context.Context, p *models.VideoProject) error
	GetProjectByVideo(ctx context.Context, videoID string) (*models.VideoProject, error)
	UpdateProject(ctx context.Context, videoID string, doc models.ProjectJSON, updatedBy string) (*models.VideoProject, error)
	SetProjectStatus(ctx context.Context, videoID string, status models.ProjectStatus, updatedBy string) error
}

type Reviews interface {
	AppendReviewLog(ctx context.Context, l *models.ReviewLog) error
	// ListReviewLogs returns the entries of a video oldest first.
	ListReviewLogs(ctx context.Context, videoID string) ([]models.ReviewLog, error)
}

// Catalog is read-only access to records owned by the content CRUD side.
type Catalog interface {
	GetEpisode(ctx context.Context, id string) (*models.Episode, error)
	GetScript(ctx context.Context, id string) (*models.Script, error)
	GetVoice(ctx context.Context, id string) (*models.Voice, error)
}

type Store interface {
	Videos
	Projects
	Reviews
	Catalog

	Ping(ctx context.Context) error
	Close() error
}
