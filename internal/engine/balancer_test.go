package engine_test

import (
	"testing"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/dom/scrapjack/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoPopulateOne(t *testing.T) {
	host := uuid.New()

	t.Run("ties go to team2", func(t *testing.T) {
		eng, _ := newEngine()
		s := testutil.NewLobbyBuilder(host).Build()
		user := uuid.New()

		require.True(t, eng.AutoPopulateOne(s, user, domain.DefaultPhotoURL))
		assert.Equal(t, domain.Team2, s.Player(user).TeamID)
	})

	t.Run("fills the smaller team", func(t *testing.T) {
		eng, _ := newEngine()
		s := testutil.NewLobbyBuilder(host).
			WithPlayer(uuid.New(), domain.Team2, false).
			WithPlayer(uuid.New(), domain.Team2, false).
			WithPlayer(uuid.New(), domain.Team1, false).
			Build()
		user := uuid.New()

		require.True(t, eng.AutoPopulateOne(s, user, domain.DefaultPhotoURL))
		assert.Equal(t, domain.Team1, s.Player(user).TeamID)
	})

	t.Run("both teams full", func(t *testing.T) {
		eng, _ := newEngine()
		b := testutil.NewLobbyBuilder(host)
		for i := 0; i < domain.MaxTeamPlayers; i++ {
			b.WithPlayer(uuid.New(), domain.Team1, false).WithPlayer(uuid.New(), domain.Team2, false)
		}
		s := b.Build()

		assert.False(t, eng.AutoPopulateOne(s, uuid.New(), domain.DefaultPhotoURL))
		assert.Len(t, s.Players, 2*domain.MaxTeamPlayers)
	})
}

func TestAutoPopulate(t *testing.T) {
	host := uuid.New()

	t.Run("closes the gap first", func(t *testing.T) {
		eng, _ := newEngine()
		s := testutil.NewLobbyBuilder(host).
			WithPlayer(uuid.New(), domain.Team1, false).
			WithPlayer(uuid.New(), domain.Team1, false).
			WithSpectator(uuid.New()).
			WithSpectator(uuid.New()).
			Build()

		eng.AutoPopulate(s)

		assert.Empty(t, s.Spectators)
		assert.Len(t, s.Players, 5)
		diff := s.TeamSize(domain.Team1) - s.TeamSize(domain.Team2)
		assert.LessOrEqual(t, diff*diff, 1)
	})

	t.Run("leaves overflow as spectators", func(t *testing.T) {
		eng, _ := newEngine()
		b := testutil.NewLobbyBuilder(host)
		for i := 0; i < domain.MaxTeamPlayers-1; i++ {
			b.WithPlayer(uuid.New(), domain.Team1, false).WithPlayer(uuid.New(), domain.Team2, false)
		}
		b.WithSpectator(uuid.New()).WithSpectator(uuid.New())
		s := b.Build()

		eng.AutoPopulate(s)

		assert.Equal(t, domain.MaxTeamPlayers, s.TeamSize(domain.Team1))
		assert.Equal(t, domain.MaxTeamPlayers, s.TeamSize(domain.Team2))
		assert.Len(t, s.Spectators, 1)
	})
}

func TestShuffleTeams(t *testing.T) {
	host := uuid.New()

	t.Run("splits players evenly", func(t *testing.T) {
		eng, _ := newEngine()
		b := testutil.NewLobbyBuilder(host)
		ids := []uuid.UUID{host, uuid.New(), uuid.New(), uuid.New()}
		for _, id := range ids {
			b.WithPlayer(id, domain.Team1, true)
		}
		s := b.WithGame(testutil.TestMode(), true, false).Build()
		before := s.Clone()

		require.NoError(t, eng.ShuffleTeams(s))

		assert.Equal(t, 2, s.TeamSize(domain.Team1))
		assert.Equal(t, 2, s.TeamSize(domain.Team2))
		for i, p := range s.Players {
			assert.Equal(t, before.Players[i].UserID, p.UserID)
			assert.Equal(t, before.Players[i].JoinDate, p.JoinDate)
			assert.True(t, p.IsReady)
		}
	})

	t.Run("shuffle banner round trip", func(t *testing.T) {
		s := testutil.NewLobbyBuilder(host).
			WithPlayer(host, domain.Team1, false).
			WithGame(testutil.TestMode(), true, false).
			Build()
		s.Game.CommentaryText = "Waiting for players..."

		prior, ok, err := engine.BeginShuffle(s)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Shuffling teams...", s.Game.CommentaryText)

		engine.EndShuffle(s, prior)
		assert.Equal(t, "Waiting for players...", s.Game.CommentaryText)
	})

	t.Run("nobody to shuffle", func(t *testing.T) {
		s := testutil.NewLobbyBuilder(host).WithGame(testutil.TestMode(), true, false).Build()

		_, ok, err := engine.BeginShuffle(s)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("needs an idle game", func(t *testing.T) {
		eng, _ := newEngine()
		testutil.AssertDomainError(t, eng.ShuffleTeams(testutil.NewLobbyBuilder(host).Build()), domain.ErrGameNotEditable)

		d := newDuel(t, testutil.TestMode())
		testutil.AssertDomainError(t, d.eng.ShuffleTeams(d.snap), domain.ErrGameNotEditable)
		_, _, err := engine.BeginShuffle(d.snap)
		testutil.AssertDomainError(t, err, domain.ErrGameNotEditable)
	})
}

func TestClearTeams(t *testing.T) {
	host, bob := uuid.New(), uuid.New()
	eng, _ := newEngine()
	s := testutil.NewLobbyBuilder(host).
		WithPlayer(host, domain.Team1, true).
		WithPlayer(bob, domain.Team2, true).
		WithGame(testutil.TestMode(), true, false).
		Build()
	joined := s.Player(bob).JoinDate

	require.NoError(t, eng.ClearTeams(s))

	assert.Empty(t, s.Players)
	require.Len(t, s.Spectators, 2)
	assert.True(t, s.Spectator(bob).JoinDate.After(joined))
	assert.Equal(t, 2, s.Lobby.UserCount)
}
