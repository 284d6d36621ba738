package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/subscriber"
)

type subscriberRepo struct {
	db *gorm.DB
}

// NewSubscriberRepository creates the subscriber store.
func NewSubscriberRepository(db *gorm.DB) subscriber.Repository {
	return &subscriberRepo{db: db}
}

// Upsert inserts the subscriber or refreshes topic/source on a repeated
// signup with the same email.
func (r *subscriberRepo) Upsert(ctx context.Context, s *subscriber.Subscriber) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"topic", "source", "updated_at"}),
		}).
		Create(s).Error
}
