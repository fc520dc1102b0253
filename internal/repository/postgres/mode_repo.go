package postgres

import (
	"context"

	"github.com/dom/scrapjack/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type modeRepository struct {
	db *gorm.DB
}

func NewModeRepository(db *gorm.DB) *modeRepository {
	return &modeRepository{db: db}
}

func (r *modeRepository) List(ctx context.Context) ([]*domain.Mode, error) {
	var modes []*domain.Mode
	err := r.db.WithContext(ctx).Order("round_max_count, id").Find(&modes).Error
	if err != nil {
		return nil, err
	}
	return modes, nil
}

func (r *modeRepository) GetByID(ctx context.Context, id string) (*domain.Mode, error) {
	var mode domain.Mode
	err := r.db.WithContext(ctx).First(&mode, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &mode, nil
}

func (r *modeRepository) Upsert(ctx context.Context, mode *domain.Mode) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"round_max_count",
			"turn_max_score",
			"roll_low",
			"roll_high",
			"taps_before_jack",
			"jack_multiplier",
			"updated_at",
		}),
	}).Create(mode).Error
}
