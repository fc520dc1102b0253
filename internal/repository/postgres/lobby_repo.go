package postgres

import (
	"context"
	"errors"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type lobbyRepository struct {
	db *gorm.DB
}

func NewLobbyRepository(db *gorm.DB) *lobbyRepository {
	return &lobbyRepository{db: db}
}

func (r *lobbyRepository) Load(ctx context.Context, lobbyID uuid.UUID) (*domain.LobbySnapshot, error) {
	var snap *domain.LobbySnapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lobby domain.Lobby
		if err := tx.First(&lobby, "id = ?", lobbyID).Error; err != nil {
			return err
		}
		snap = domain.NewLobbySnapshot(&lobby)

		var game domain.Game
		err := tx.First(&game, "lobby_id = ?", lobbyID).Error
		switch {
		case err == nil:
			snap.Game = &game
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var teams []*domain.Team
		if err := tx.Where("lobby_id = ?", lobbyID).Find(&teams).Error; err != nil {
			return err
		}
		for _, t := range teams {
			snap.Teams[t.TeamID] = t
		}

		if err := tx.Where("lobby_id = ?", lobbyID).
			Order("join_date, user_id").
			Find(&snap.Players).Error; err != nil {
			return err
		}
		if err := tx.Where("lobby_id = ?", lobbyID).
			Order("join_date, user_id").
			Find(&snap.Spectators).Error; err != nil {
			return err
		}

		return tx.Model(&domain.LobbyBan{}).
			Where("lobby_id = ?", lobbyID).
			Order("created_at").
			Pluck("user_id", &snap.Bans).Error
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *lobbyRepository) Commit(ctx context.Context, ws *domain.WriteSet) error {
	s := ws.Snapshot
	lobbyID := s.Lobby.ID

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ws.DeleteLobby {
			return deleteLobby(tx, lobbyID)
		}

		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})
		if err := upsert.Create(s.Lobby).Error; err != nil {
			return err
		}
		if s.Game != nil {
			if err := upsert.Create(s.Game).Error; err != nil {
				return err
			}
		}
		for _, id := range domain.TeamIDs {
			if err := upsert.Create(s.Team(id)).Error; err != nil {
				return err
			}
		}

		// Rosters are replaced wholesale; a user moves between the two
		// tables as their role changes.
		if err := tx.Where("lobby_id = ?", lobbyID).Delete(&domain.Player{}).Error; err != nil {
			return err
		}
		if len(s.Players) > 0 {
			if err := tx.Create(&s.Players).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("lobby_id = ?", lobbyID).Delete(&domain.Spectator{}).Error; err != nil {
			return err
		}
		if len(s.Spectators) > 0 {
			if err := tx.Create(&s.Spectators).Error; err != nil {
				return err
			}
		}

		for _, userID := range s.Bans {
			ban := &domain.LobbyBan{LobbyID: lobbyID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ban).Error; err != nil {
				return err
			}
		}

		if ws.ModePlayed != "" {
			err := tx.Model(&domain.Mode{}).
				Where("id = ?", ws.ModePlayed).
				UpdateColumn("games_played", gorm.Expr("games_played + ?", 1)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteLobby(tx *gorm.DB, lobbyID uuid.UUID) error {
	for _, model := range []interface{}{
		&domain.Spectator{},
		&domain.Player{},
		&domain.Team{},
		&domain.Game{},
		&domain.LobbyBan{},
	} {
		if err := tx.Where("lobby_id = ?", lobbyID).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&domain.Lobby{}, "id = ?", lobbyID).Error
}

func (r *lobbyRepository) List(ctx context.Context, limit, offset int) ([]*domain.Lobby, error) {
	var lobbies []*domain.Lobby
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&lobbies).Error
	if err != nil {
		return nil, err
	}
	return lobbies, nil
}
