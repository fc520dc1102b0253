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

type duel struct {
	eng   *engine.Engine
	rng   *testutil.ScriptedRand
	snap  *domain.LobbySnapshot
	alice uuid.UUID
	bob   uuid.UUID
	names engine.Names
}

// newDuel starts a one-on-one game in mode m with alice's team1 acting
// first.
func newDuel(t *testing.T, m *domain.Mode) *duel {
	t.Helper()
	alice, bob := uuid.New(), uuid.New()
	eng, rng := newEngine(0)
	s := testutil.NewLobbyBuilder(alice).
		WithPlayer(alice, domain.Team1, true).
		WithPlayer(bob, domain.Team2, true).
		WithGame(m, true, false).
		Build()
	names := engine.Names{alice: "alice", bob: "bob"}
	require.NoError(t, eng.StartGame(s, names))
	require.True(t, s.Player(alice).IsTurnAvailable)
	return &duel{eng: eng, rng: rng, snap: s, alice: alice, bob: bob, names: names}
}

func (d *duel) turn(t *testing.T, user uuid.UUID, tt engine.TurnType) *engine.TurnResult {
	t.Helper()
	res, err := d.eng.SubmitTurn(d.snap, user, tt, d.names)
	require.NoError(t, err)
	return res
}

func TestSubmitTurn_FullGame(t *testing.T) {
	d := newDuel(t, testutil.TestMode())
	s := d.snap

	// First tap carries a one point bonus.
	d.rng.PushRolls(1, 3)
	res := d.turn(t, d.alice, engine.TurnTap)
	assert.Equal(t, engine.OutcomeTapped, res.Outcome)
	require.NotNil(t, res.Roll)
	assert.Equal(t, 3, *res.Roll)
	assert.Equal(t, 4, res.Score)
	assert.False(t, res.TurnEnded)
	assert.Equal(t, 4, s.Player(d.alice).TurnScore)
	assert.Equal(t, 1, s.Player(d.alice).TurnTapCount)
	assert.Equal(t, 3, *s.Game.RecentRoll)
	assert.Equal(t, "Turn: 'alice'", s.Game.TurnText)

	d.rng.PushRolls(1, 6)
	res = d.turn(t, d.alice, engine.TurnTap)
	assert.Equal(t, engine.OutcomeScraptap, res.Outcome)
	assert.Equal(t, 10, res.Score)
	assert.True(t, res.TurnEnded)
	assert.True(t, res.TeamTurnEnded)
	assert.False(t, res.RoundEnded)
	assert.Equal(t, "That's a Scraptap! 10 points!", s.Game.CommentaryText)
	assert.Equal(t, "'alice' scraptapped: 10", s.Game.SubCommentText)
	assert.Equal(t, "Turn: 'bob'", s.Game.TurnText)

	team1 := s.Team(domain.Team1)
	assert.Equal(t, 10.0, team1.TeamTotalScore)
	assert.Equal(t, 1, team1.TeamTurnEndCount)
	assert.Equal(t, domain.TeamPhaseFinished, team1.Phase)
	assert.Equal(t, domain.TeamPhaseActive, s.Team(domain.Team2).Phase)
	assert.Equal(t, domain.TurnStateWaiting, s.Player(d.alice).TurnState())
	assert.True(t, s.Player(d.bob).IsTurnAvailable)

	d.rng.PushRolls(1, 6)
	res = d.turn(t, d.bob, engine.TurnTap)
	assert.Equal(t, 7, res.Score)

	d.rng.PushRolls(1, 5)
	res = d.turn(t, d.bob, engine.TurnTap)
	assert.Equal(t, engine.OutcomeTappedOut, res.Outcome)
	assert.Zero(t, res.Score)
	assert.True(t, res.RoundEnded)
	assert.True(t, res.GameEnded)

	assert.Equal(t, domain.GameStatusEnded, s.Game.Status())
	assert.Equal(t, 1, s.Game.RoundEndCount)
	assert.Equal(t, "Team 1 Scrapped a Win!", s.Game.CommentaryText)
	assert.Empty(t, s.Game.TurnText)
	for _, p := range s.Players {
		assert.False(t, p.IsTurnAvailable)
	}

	_, err := d.eng.SubmitTurn(s, d.bob, engine.TurnTap, d.names)
	testutil.AssertDomainError(t, err, domain.ErrGameNotInProgress)
}

func TestSubmitTurn_Draw(t *testing.T) {
	d := newDuel(t, testutil.TestMode())

	d.rng.PushRolls(1, 2)
	d.turn(t, d.alice, engine.TurnTap)
	d.turn(t, d.alice, engine.TurnScrap)

	d.rng.PushRolls(1, 2)
	d.turn(t, d.bob, engine.TurnTap)
	res := d.turn(t, d.bob, engine.TurnScrap)

	assert.True(t, res.GameEnded)
	assert.Equal(t, "Scrapped a Draw!", d.snap.Game.CommentaryText)
}

func TestSubmitTurn_NextRound(t *testing.T) {
	m := testutil.TestMode()
	m.RoundMaxCount = 2
	d := newDuel(t, m)

	d.rng.PushRolls(1, 2)
	d.turn(t, d.alice, engine.TurnTap)
	d.turn(t, d.alice, engine.TurnScrap)
	d.rng.PushRolls(1, 4)
	d.turn(t, d.bob, engine.TurnTap)
	res := d.turn(t, d.bob, engine.TurnScrap)

	assert.True(t, res.RoundEnded)
	assert.False(t, res.GameEnded)
	assert.Equal(t, 1, d.snap.Game.RoundEndCount)
	assert.True(t, d.snap.Player(d.alice).IsTurnAvailable)
	assert.Equal(t, "Turn: 'alice'", d.snap.Game.TurnText)
}

func TestSubmitTurn_Scrap(t *testing.T) {
	d := newDuel(t, testutil.TestMode())

	t.Run("needs a tap first", func(t *testing.T) {
		before := d.snap.Clone()
		_, err := d.eng.SubmitTurn(d.snap, d.alice, engine.TurnScrap, d.names)
		testutil.AssertDomainError(t, err, domain.ErrInvalidTurn)
		assert.Equal(t, before, d.snap)
	})

	t.Run("banks the turn score", func(t *testing.T) {
		d.rng.PushRolls(1, 2)
		d.turn(t, d.alice, engine.TurnTap)

		res := d.turn(t, d.alice, engine.TurnScrap)
		assert.Equal(t, engine.OutcomeScrapped, res.Outcome)
		assert.Nil(t, res.Roll)
		assert.Equal(t, 3, res.Score)
		assert.True(t, res.TeamTurnEnded)
		assert.Equal(t, "Scrapped 3 points.", d.snap.Game.CommentaryText)
		assert.Equal(t, 3.0, d.snap.Team(domain.Team1).TeamTotalScore)
	})
}

func TestSubmitTurn_Jack(t *testing.T) {
	tests := []struct {
		name        string
		taps        []int
		jackRoll    int
		multiplier  float64
		wantOutcome engine.TurnOutcome
		wantScore   int
		wantText    string
	}{
		{
			name:        "jacked in",
			taps:        []int{1, 1},
			jackRoll:    2,
			multiplier:  2,
			wantOutcome: engine.OutcomeJackedIn,
			wantScore:   10,
			wantText:    "Ya jacked in! 10 points!",
		},
		{
			name:        "scrapjack",
			taps:        []int{2, 3},
			jackRoll:    4,
			multiplier:  2,
			wantOutcome: engine.OutcomeScrapjack,
			wantScore:   20,
			wantText:    "SCRAPJACK! Perfect 20!",
		},
		{
			name:        "jacked out",
			taps:        []int{4, 4},
			jackRoll:    6,
			multiplier:  2,
			wantOutcome: engine.OutcomeJackedOut,
			wantScore:   0,
			wantText:    "Ya jacked out! 0 points!",
		},
		{
			name:        "triple multiplier",
			taps:        []int{1, 1},
			jackRoll:    2,
			multiplier:  3,
			wantOutcome: engine.OutcomeJackedIn,
			wantScore:   15,
			wantText:    "Ya jacked in! 15 points!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.TestMode()
			m.JackMultiplier = tt.multiplier
			d := newDuel(t, m)

			d.rng.PushRolls(1, tt.taps...)
			for range tt.taps {
				d.turn(t, d.alice, engine.TurnTap)
			}

			d.rng.PushRolls(1, tt.jackRoll)
			res := d.turn(t, d.alice, engine.TurnJack)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantScore, res.Score)
			assert.True(t, res.TurnEnded)
			assert.Equal(t, tt.wantText, d.snap.Game.CommentaryText)
			assert.Equal(t, float64(tt.wantScore), d.snap.Team(domain.Team1).TeamTotalScore)
		})
	}

	t.Run("needs enough taps", func(t *testing.T) {
		d := newDuel(t, testutil.TestMode())
		d.rng.PushRolls(1, 1)
		d.turn(t, d.alice, engine.TurnTap)

		before := d.snap.Clone()
		_, err := d.eng.SubmitTurn(d.snap, d.alice, engine.TurnJack, d.names)
		testutil.AssertDomainError(t, err, domain.ErrInvalidTurn)
		assert.Equal(t, before, d.snap)
	})

	t.Run("disabled by mode", func(t *testing.T) {
		m := testutil.TestMode()
		m.TapsBeforeJack = domain.JackDisabled
		d := newDuel(t, m)
		d.rng.PushRolls(1, 1, 1, 1)
		for i := 0; i < 3; i++ {
			d.turn(t, d.alice, engine.TurnTap)
		}

		_, err := d.eng.SubmitTurn(d.snap, d.alice, engine.TurnJack, d.names)
		testutil.AssertDomainError(t, err, domain.ErrInvalidTurn)
	})
}

func TestSubmitTurn_TeamAverage(t *testing.T) {
	alice, carol, bob := uuid.New(), uuid.New(), uuid.New()
	eng, rng := newEngine(0)
	s := testutil.NewLobbyBuilder(alice).
		WithPlayer(alice, domain.Team1, true).
		WithPlayer(carol, domain.Team1, true).
		WithPlayer(bob, domain.Team2, true).
		WithGame(testutil.TestMode(), true, false).
		Build()
	names := engine.Names{alice: "alice", carol: "carol", bob: "bob"}
	require.NoError(t, eng.StartGame(s, names))
	assert.Equal(t, "Turn: 'carol'", s.Game.TurnText)

	submit := func(user uuid.UUID, tt engine.TurnType) *engine.TurnResult {
		t.Helper()
		res, err := eng.SubmitTurn(s, user, tt, names)
		require.NoError(t, err)
		return res
	}

	rng.PushRolls(1, 3)
	submit(alice, engine.TurnTap)
	assert.Equal(t, "Turn: Team 1", s.Game.TurnText)

	res := submit(alice, engine.TurnScrap)
	assert.True(t, res.TurnEnded)
	assert.False(t, res.TeamTurnEnded)
	assert.Equal(t, 4.0, s.Team(domain.Team1).TeamTurnAverageScore)
	assert.Equal(t, "Turn: 'carol'", s.Game.TurnText)
	assert.Equal(t, domain.TurnStateBanked, s.Player(alice).TurnState())

	_, err := eng.SubmitTurn(s, alice, engine.TurnTap, names)
	testutil.AssertDomainError(t, err, domain.ErrTurnNotAvailable)

	rng.PushRolls(1, 1)
	submit(carol, engine.TurnTap)
	res = submit(carol, engine.TurnScrap)
	assert.True(t, res.TeamTurnEnded)

	team1 := s.Team(domain.Team1)
	assert.Equal(t, 3.0, team1.TeamTotalScore)
	assert.Zero(t, team1.TeamTurnAverageScore)
	assert.Equal(t, "Turn: 'bob'", s.Game.TurnText)
}

func TestSubmitTurn_Errors(t *testing.T) {
	d := newDuel(t, testutil.TestMode())

	tests := []struct {
		name    string
		user    uuid.UUID
		wantErr *domain.Error
	}{
		{name: "not in lobby", user: uuid.New(), wantErr: domain.ErrNotInLobby},
		{name: "not holding a turn", user: d.bob, wantErr: domain.ErrTurnNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := d.snap.Clone()
			_, err := d.eng.SubmitTurn(d.snap, tt.user, engine.TurnTap, d.names)
			testutil.AssertDomainError(t, err, tt.wantErr)
			assert.Equal(t, before, d.snap)
		})
	}

	t.Run("game not started", func(t *testing.T) {
		host := uuid.New()
		eng, _ := newEngine()
		s := testutil.NewLobbyBuilder(host).
			WithPlayer(host, domain.Team1, true).
			WithGame(testutil.TestMode(), true, false).
			Build()

		_, err := eng.SubmitTurn(s, host, engine.TurnTap, nil)
		testutil.AssertDomainError(t, err, domain.ErrGameNotInProgress)
	})
}

func TestParseTurnType(t *testing.T) {
	for _, s := range []string{"tap", "scrap", "jack"} {
		tt, err := engine.ParseTurnType(s)
		require.NoError(t, err)
		assert.Equal(t, engine.TurnType(s), tt)
	}

	_, err := engine.ParseTurnType("dance")
	testutil.AssertDomainError(t, err, domain.ErrInvalidTurnType)
}
