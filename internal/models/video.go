package models

import (
	"strings"
	"time"
)

// VideoStatus is the lifecycle state of a Video.
type VideoStatus string

const (
	StatusAIProcessing  VideoStatus = "AI_PROCESSING"
	StatusDraftReady    VideoStatus = "DRAFT_READY"
	StatusInReview      VideoStatus = "IN_REVIEW"
	StatusFinalApproved VideoStatus = "FINAL_APPROVED"
	StatusPublished     VideoStatus = "PUBLISHED"
	StatusFailed        VideoStatus = "FAILED"
)

var videoStatuses = map[VideoStatus]struct{}{
	StatusAIProcessing:  {},
	StatusDraftReady:    {},
	StatusInReview:      {},
	StatusFinalApproved: {},
	StatusPublished:     {},
	StatusFailed:        {},
}

// Valid reports whether s is one of the known statuses.
func (s VideoStatus) Valid() bool {
	_, ok := videoStatuses[s]
	return ok
}

// transitions is the lifecycle graph. Rerender may restart any settled
// state, so AI_PROCESSING is reachable from everywhere except itself.
var transitions = map[VideoStatus][]VideoStatus{
	StatusAIProcessing:  {StatusDraftReady, StatusFailed},
	StatusDraftReady:    {StatusInReview, StatusAIProcessing},
	StatusInReview:      {StatusFinalApproved, StatusPublished, StatusDraftReady, StatusAIProcessing},
	StatusFinalApproved: {StatusAIProcessing, StatusInReview, StatusPublished},
	StatusPublished:     {StatusAIProcessing, StatusInReview},
	StatusFailed:        {StatusAIProcessing},
}

// CanTransition reports whether the lifecycle graph has an edge s -> to.
func (s VideoStatus) CanTransition(to VideoStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Orientation selects raster size and caption style.
type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
)

// ParseOrientation accepts the two orientations case-insensitively.
func ParseOrientation(s string) (Orientation, bool) {
	switch Orientation(strings.ToLower(strings.TrimSpace(s))) {
	case OrientationVertical:
		return OrientationVertical, true
	case OrientationHorizontal:
		return OrientationHorizontal, true
	default:
		return "", false
	}
}

// Dimensions returns the output raster for o.
func (o Orientation) Dimensions() (width, height int) {
	if o == OrientationHorizontal {
		return 1920, 1080
	}
	return 1080, 1920
}

// VideoType distinguishes generated videos from manual uploads.
type VideoType string

const (
	VideoTypeAIGenerated VideoType = "AI_GENERATED"
	VideoTypeManual      VideoType = "MANUAL"
)

// Video is one render unit. At most one exists per episode.
type Video struct {
	ID           string      `json:"id" bson:"_id"`
	EpisodeID    string      `json:"episodeId" bson:"episodeId"`
	ScriptID     string      `json:"scriptId" bson:"scriptId"`
	VoiceID      string      `json:"voiceId" bson:"voiceId"`
	Type         VideoType   `json:"type" bson:"type"`
	Orientation  Orientation `json:"orientation" bson:"orientation"`
	VideoURL     string      `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	Status       VideoStatus `json:"status" bson:"status"`
	Error        string      `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updatedAt"`
}
