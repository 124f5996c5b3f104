package models

import "time"

// ProjectStatus mirrors the review-relevant subset of VideoStatus.
type ProjectStatus = VideoStatus

// SceneStyle is the caption placement derived from orientation.
type SceneStyle struct {
	FontSize int `json:"fontSize" bson:"fontSize"`
	X        int `json:"x" bson:"x"`
	Y        int `json:"y" bson:"y"`
}

// Scene is one timed element of the scene graph. Times are in seconds.
type Scene struct {
	SceneID string     `json:"sceneId" bson:"sceneId"`
	Start   float64    `json:"start" bson:"start"`
	End     float64    `json:"end" bson:"end"`
	Image   string     `json:"image" bson:"image"`
	Text    string     `json:"text" bson:"text"`
	Caption string     `json:"caption" bson:"caption"`
	Style   SceneStyle `json:"style" bson:"style"`
}

// Audio describes the narration and background music of a project.
type Audio struct {
	Voice     string  `json:"voice" bson:"voice"`
	BGM       string  `json:"bgm" bson:"bgm"`
	BGMVolume float64 `json:"bgmVolume" bson:"bgmVolume"`
}

// ProjectJSON is the editable scene graph.
type ProjectJSON struct {
	Title  string  `json:"title" bson:"title"`
	Scenes []Scene `json:"scenes" bson:"scenes"`
	Audio  Audio   `json:"audio" bson:"audio"`
}

// VideoProject is 1:1 with a Video.
type VideoProject struct {
	ID          string        `json:"id" bson:"_id"`
	VideoID     string        `json:"videoId" bson:"videoId"`
	ProjectJSON ProjectJSON   `json:"projectJson" bson:"projectJson"`
	Status      ProjectStatus `json:"status" bson:"status"`
	CreatedBy   string        `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	UpdatedBy   string        `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}
