package service

import (
	"context"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/collection"
)

// ContentService fronts the WordPress content reads.
type ContentService struct {
	content collection.Repository
}

func NewContentService(content collection.Repository) *ContentService {
	return &ContentService{content: content}
}

func (s *ContentService) Collections(ctx context.Context) ([]collection.Collection, error) {
	return s.content.List(ctx)
}

func (s *ContentService) Events(ctx context.Context) ([]collection.Event, error) {
	return s.content.Events(ctx)
}

func (s *ContentService) Menu(ctx context.Context) ([]collection.NavItem, error) {
	return s.content.PrimaryMenu(ctx)
}

func (s *ContentService) Homepage(ctx context.Context) (*collection.HomepageConfig, error) {
	return s.content.Homepage(ctx)
}
