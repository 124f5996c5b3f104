package models

import "time"

// Episode, Script and Voice are owned by the catalog CRUD side of the
// platform. The render pipeline only reads them.

type Episode struct {
	ID         string    `json:"id" bson:"_id"`
	PlaylistID string    `json:"playlistId,omitempty" bson:"playlistId,omitempty"`
	Title      string    `json:"title" bson:"title"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

type Script struct {
	ID        string    `json:"id" bson:"_id"`
	EpisodeID string    `json:"episodeId" bson:"episodeId"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Voice struct {
	ID              string    `json:"id" bson:"_id"`
	EpisodeID       string    `json:"episodeId" bson:"episodeId"`
	Provider        string    `json:"provider" bson:"provider"`
	AudioURL        string    `json:"audioUrl" bson:"audioUrl"`
	DurationSeconds float64   `json:"durationSeconds" bson:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

// VideoDetail is the read-side join of a Video with its related records.
// Relations that could not be resolved are nil.
type VideoDetail struct {
	Video   *Video        `json:"video"`
	Project *VideoProject `json:"project,omitempty"`
	Episode *Episode      `json:"episode,omitempty"`
	Script  *Script       `json:"script,omitempty"`
	Voice   *Voice        `json:"voice,omitempty"`
	Reviews []ReviewLog   `json:"reviews"`
}
