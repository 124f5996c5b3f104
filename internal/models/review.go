package models

import "time"

// ReviewAction is the outcome recorded by a reviewer.
type ReviewAction string

const (
	ReviewApproved ReviewAction = "APPROVED"
	ReviewRejected ReviewAction = "REJECTED"
)

// ReviewLog is an append-only audit entry. Entries are never updated.
type ReviewLog struct {
	ID         string       `json:"id" bson:"_id"`
	VideoID    string       `json:"videoId" bson:"videoId"`
	ReviewerID string       `json:"reviewerId" bson:"reviewerId"`
	Action     ReviewAction `json:"action" bson:"action"`
	Note       string       `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt  time.Time    `json:"createdAt" bson:"createdAt"`
}
