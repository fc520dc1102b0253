package service

import (
	"context"
	"fmt"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/repository"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

type ModeService struct {
	modes  repository.ModeRepository
	logger *zap.Logger
}

func NewModeService(modes repository.ModeRepository, logger *zap.Logger) *ModeService {
	return &ModeService{modes: modes, logger: logger}
}

func (s *ModeService) List(ctx context.Context) ([]*domain.Mode, error) {
	modes, err := s.modes.List(ctx)
	if err != nil {
		return nil, domain.Wrap(codes.Internal, "failed to list modes", err)
	}
	return modes, nil
}

// SeedDefaults writes the built-in catalog. Play counters survive reseeding.
func (s *ModeService) SeedDefaults(ctx context.Context) error {
	for _, m := range domain.DefaultModes() {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("mode %q: %w", m.ID, err)
		}
		if err := s.modes.Upsert(ctx, m); err != nil {
			return fmt.Errorf("seed mode %q: %w", m.ID, err)
		}
	}
	s.logger.Info("modes seeded", zap.Int("count", len(domain.DefaultModes())))
	return nil
}
