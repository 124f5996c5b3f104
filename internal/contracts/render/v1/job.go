// Package v1 holds the render pipeline wire contracts: the queue message
// published by the API and the project document handed to the render engine.
package v1

import (
	"strings"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
)

// QueueName is the durable queue carrying RenderJob messages.
const QueueName = "video-render"

// RenderJob is the queue message body. It only exists on the wire.
type RenderJob struct {
	VideoID       string             `json:"videoId"`
	Orientation   models.Orientation `json:"orientation"`
	ProjectJSON   models.ProjectJSON `json:"projectJson"`
	VoiceAudioURL string             `json:"voiceAudioUrl"`
}

// Validate checks the fields the worker cannot do without and rewrites
// Orientation to its canonical lowercase form.
func (j *RenderJob) Validate() error {
	if strings.TrimSpace(j.VideoID) == "" {
		return errors.ValidationField("videoId", "videoId is required")
	}
	o, ok := models.ParseOrientation(string(j.Orientation))
	if !ok {
		return errors.ValidationField("orientation", "orientation must be vertical or horizontal")
	}
	j.Orientation = o
	return nil
}

// ProjectSpec is written as project.json into the scratch directory and is
// the only input of the render engine.
type ProjectSpec struct {
	VideoID          string         `json:"videoId"`
	Title            string         `json:"title"`
	FPS              int            `json:"fps"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	DurationSeconds  float64        `json:"durationSeconds"`
	DurationInFrames int            `json:"durationInFrames"`
	Scenes           []models.Scene `json:"scenes"`
	Audio            models.Audio   `json:"audio"`
	VoiceAudioURL    string         `json:"voiceAudioUrl"`
	Output           string         `json:"output"`
}
