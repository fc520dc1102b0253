package postgres

import (
	"context"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

// Replace deletes the user's sessions and inserts the new one in one
// transaction.
func (r *sessionRepository) Replace(ctx context.Context, session *domain.UserSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", session.UserID).Delete(&domain.UserSession{}).Error; err != nil {
			return err
		}
		return tx.Create(session).Error
	})
}

func (r *sessionRepository) GetActive(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.UserSession, error) {
	var session domain.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Take(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.UserSession{}).Error
}
