// Package review drives the human approval gate: start, approve, reject.
// Every decision is recorded in the append-only review log.
package review

import (
	"context"
	"strings"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/ids"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/repositories"
)

type Service struct {
	store repositories.Store
	log   *logger.Logger
}

func New(store repositories.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Service{store: store, log: log.WithComponent("review")}
}

type ApproveInput struct {
	Note       string `json:"note"`
	PublishNow bool   `json:"publishNow"`
}

type RejectInput struct {
	Note string `json:"note"`
}

// StartReview moves the video to IN_REVIEW.
func (s *Service) StartReview(ctx context.Context, videoID, reviewerID string) (*models.Video, error) {
	v, err := s.store.SetVideoStatus(ctx, videoID, models.StatusInReview)
	if err != nil {
		return nil, err
	}
	s.log.FromContext(ctx).WithVideoID(videoID).Info("review started", "reviewer_id", reviewerID)
	return v, nil
}

// Approve records the approval and moves the video to PUBLISHED (project
// too) when PublishNow is set, otherwise to FINAL_APPROVED.
func (s *Service) Approve(ctx context.Context, videoID, reviewerID string, in ApproveInput) (*models.Video, error) {
	if _, err := s.store.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}

	if err := s.appendLog(ctx, videoID, reviewerID, models.ReviewApproved, in.Note); err != nil {
		return nil, err
	}

	status := models.StatusFinalApproved
	if in.PublishNow {
		status = models.StatusPublished
	}

	v, err := s.store.SetVideoStatus(ctx, videoID, status)
	if err != nil {
		return nil, err
	}

	if in.PublishNow {
		if err := s.store.SetProjectStatus(ctx, videoID, models.StatusPublished, reviewerID); err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
	}

	s.log.FromContext(ctx).WithVideoID(videoID).Info("video approved",
		"reviewer_id", reviewerID,
		"status", status,
	)
	return v, nil
}

// Reject requires a note. It records the rejection and sends the video and
// its project back to DRAFT_READY.
func (s *Service) Reject(ctx context.Context, videoID, reviewerID string, in RejectInput) (*models.Video, error) {
	note := strings.TrimSpace(in.Note)
	if note == "" {
		return nil, errors.ValidationField("note", "a rejection note is required")
	}

	if _, err := s.store.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}

	if err := s.appendLog(ctx, videoID, reviewerID, models.ReviewRejected, note); err != nil {
		return nil, err
	}

	v, err := s.store.SetVideoStatus(ctx, videoID, models.StatusDraftReady)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetProjectStatus(ctx, videoID, models.StatusDraftReady, reviewerID); err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	s.log.FromContext(ctx).WithVideoID(videoID).Info("video rejected", "reviewer_id", reviewerID)
	return v, nil
}

// History returns the review log of a video, oldest first.
func (s *Service) History(ctx context.Context, videoID string) ([]models.ReviewLog, error) {
	if _, err := s.store.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}
	logs, err := s.store.ListReviewLogs(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.ReviewLog{}
	}
	return logs, nil
}

func (s *Service) appendLog(ctx context.Context, videoID, reviewerID string, action models.ReviewAction, note string) error {
	return s.store.AppendReviewLog(ctx, &models.ReviewLog{
		ID:         ids.New(ids.PrefixReview),
		VideoID:    videoID,
		ReviewerID: reviewerID,
		Action:     action,
		Note:       strings.TrimSpace(note),
	})
}
