package entity

import "time"

type MiddlemanCall struct {
	ID                 string    `json:"id" firestore:"id"`
	Status             Status    `json:"status" firestore:"status"`
	Reason             string    `json:"reason" firestore:"reason"`
	EstimatedWaitTime  int       `json:"estimated_wait_time" firestore:"estimatedWaitTime"` // minutes
	DesiredMiddlemanID string    `json:"desired_middleman_id,omitempty" firestore:"desiredMiddlemanId,omitempty"`
	CreatedAt          time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt          time.Time `json:"updated_at" firestore:"updatedAt"`
}
