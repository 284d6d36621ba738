package subscriber

import (
	"context"
	"time"
)

// Subscriber is a newsletter signup persisted by the worker.
type Subscriber struct {
	ID        int64  `gorm:"primaryKey"`
	Email     string `gorm:"size:255;uniqueIndex;not null"`
	Topic     string `gorm:"size:64"`
	Source    string `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SignupEvent is the queue message published by the API on signup.
type SignupEvent struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Topic  string `json:"topic,omitempty"`
	Source string `json:"source"`
	TS     int64  `json:"ts"`
}

// Repository persists subscribers.
type Repository interface {
	Upsert(ctx context.Context, s *Subscriber) error
}
