package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/podcaststudio/server/internal/model"
	"github.com/podcaststudio/server/internal/port/outbound"
)

// EpisodeDBAdapter implements EpisodeDatabasePort.
type EpisodeDBAdapter struct {
	db *gorm.DB
}

// NewEpisodeDBAdapter creates a new episode database adapter.
func NewEpisodeDBAdapter(db *gorm.DB) *EpisodeDBAdapter {
	return &EpisodeDBAdapter{db: db}
}

// Migrate creates or updates the episodes table.
func (a *EpisodeDBAdapter) Migrate(ctx context.Context) error {
	return a.db.WithContext(ctx).AutoMigrate(&model.Episode{})
}

func (a *EpisodeDBAdapter) Create(ctx context.Context, episode *model.Episode) error {
	return a.db.WithContext(ctx).Create(episode).Error
}

func (a *EpisodeDBAdapter) FindRecent(ctx context.Context, limit int) ([]*model.Episode, error) {
	var episodes []*model.Episode
	if err := a.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&episodes).Error; err != nil {
		return nil, err
	}
	return episodes, nil
}

var _ outbound.EpisodeDatabasePort = (*EpisodeDBAdapter)(nil)
