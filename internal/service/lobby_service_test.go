package service_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/dom/scrapjack/internal/repository/memory"
	"github.com/dom/scrapjack/internal/service"
	"github.com/dom/scrapjack/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishLobby(view *service.LobbyView) {
	m.Called(view)
}

func (m *mockPublisher) PublishLobbyClosed(lobbyID uuid.UUID) {
	m.Called(lobbyID)
}

type harness struct {
	services *service.Services
	repos    *repository.Repositories
	rng      *testutil.ScriptedRand
	pub      *mockPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repos := memory.NewRepositories()
	rng := testutil.NewScriptedRand()
	pub := &mockPublisher{}
	pub.On("PublishLobby", mock.Anything).Maybe()
	pub.On("PublishLobbyClosed", mock.Anything).Maybe()

	services := service.NewServices(repos, testutil.TestConfig(), engine.New(rng, testutil.NewStepClock()), pub, zap.NewNop())
	t.Cleanup(services.Close)
	require.NoError(t, services.Mode.SeedDefaults(context.Background()))

	return &harness{services: services, repos: repos, rng: rng, pub: pub}
}

func (h *harness) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	user, _ := testutil.NewUserBuilder().WithDisplayName(name).Build(t, h.repos.User)
	return user.ID
}

func (h *harness) lobby(t *testing.T, host uuid.UUID, maxUsers int) uuid.UUID {
	t.Helper()
	view, err := h.services.Lobby.Create(context.Background(), host, service.CreateLobbyInput{
		Name:     "friday night",
		MaxUsers: maxUsers,
	})
	require.NoError(t, err)
	return view.ID
}

func (h *harness) publishCount(method string) int {
	n := 0
	for _, c := range h.pub.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func TestLobbyService_Create(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	host := h.user(t, "host")

	view, err := h.services.Lobby.Create(ctx, host, service.CreateLobbyInput{Name: "friday night", MaxUsers: 4})
	require.NoError(t, err)

	assert.Equal(t, "friday night", view.Name)
	assert.Equal(t, host, view.HostUserID)
	assert.Equal(t, 1, view.UserCount)
	require.Len(t, view.Spectators, 1)
	assert.Equal(t, "host", view.Spectators[0].DisplayName)
	require.NotNil(t, view.Game)
	assert.Equal(t, domain.DefaultModeID, view.Game.Mode.ID)
	assert.Equal(t, domain.GameStatusCreated, view.Game.Status)
	assert.True(t, view.Game.IsFreeTeamJoin)
	h.pub.AssertNotCalled(t, "PublishLobby", mock.Anything)

	got, err := h.services.Lobby.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)

	censored, err := h.services.Lobby.Create(ctx, host, service.CreateLobbyInput{Name: "shit lobby", MaxUsers: 4})
	require.NoError(t, err)
	assert.Equal(t, "**** lobby", censored.Name)
	stored, err := h.repos.Lobby.Load(ctx, censored.ID)
	require.NoError(t, err)
	assert.Equal(t, "**** lobby", stored.Lobby.Name)

	tests := []struct {
		name    string
		userID  uuid.UUID
		input   service.CreateLobbyInput
		wantErr *domain.Error
	}{
		{name: "short name", userID: host, input: service.CreateLobbyInput{Name: "tiny", MaxUsers: 4}, wantErr: domain.ErrInvalidLobbyName},
		{name: "too few users", userID: host, input: service.CreateLobbyInput{Name: "friday night", MaxUsers: 1}, wantErr: domain.ErrInvalidMaxUsers},
		{name: "too many users", userID: host, input: service.CreateLobbyInput{Name: "friday night", MaxUsers: 9}, wantErr: domain.ErrInvalidMaxUsers},
		{name: "unknown user", userID: uuid.New(), input: service.CreateLobbyInput{Name: "friday night", MaxUsers: 4}, wantErr: domain.ErrUserMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.services.Lobby.Create(ctx, tt.userID, tt.input)
			testutil.AssertDomainError(t, err, tt.wantErr)
		})
	}
}

func TestLobbyService_Enter(t *testing.T) {
	ctx := context.Background()

	t.Run("joins as spectator", func(t *testing.T) {
		h := newHarness(t)
		host, bob := h.user(t, "host"), h.user(t, "bob")
		lobbyID := h.lobby(t, host, 4)

		view, err := h.services.Lobby.Enter(ctx, lobbyID, bob)
		require.NoError(t, err)
		assert.Equal(t, 2, view.UserCount)
		assert.Len(t, view.Spectators, 2)
		h.pub.AssertCalled(t, "PublishLobby", mock.MatchedBy(func(v *service.LobbyView) bool {
			return v.ID == lobbyID && v.UserCount == 2
		}))

		_, err = h.services.Lobby.Enter(ctx, lobbyID, bob)
		testutil.AssertDomainError(t, err, domain.ErrAlreadyInLobby)
	})

	t.Run("auto populate seats the entrant", func(t *testing.T) {
		h := newHarness(t)
		host, bob := h.user(t, "host"), h.user(t, "bob")
		lobbyID := h.lobby(t, host, 4)

		autoPopulate := true
		_, err := h.services.Game.Edit(ctx, lobbyID, host, service.EditGameInput{ModeID: "quick", IsAutoPopulate: &autoPopulate})
		require.NoError(t, err)

		// The host was seated by the edit; bob takes the other side.
		view, err := h.services.Lobby.Enter(ctx, lobbyID, bob)
		require.NoError(t, err)
		assert.Empty(t, view.Spectators)
		require.Len(t, view.Teams[0].Players, 1)
		require.Len(t, view.Teams[1].Players, 1)
		assert.ElementsMatch(t, []uuid.UUID{host, bob}, view.Members())
	})

	t.Run("full lobby", func(t *testing.T) {
		h := newHarness(t)
		host := h.user(t, "host")
		lobbyID := h.lobby(t, host, 2)

		_, err := h.services.Lobby.Enter(ctx, lobbyID, h.user(t, "bob"))
		require.NoError(t, err)
		_, err = h.services.Lobby.Enter(ctx, lobbyID, h.user(t, "carol"))
		testutil.AssertDomainError(t, err, domain.ErrLobbyFull)
	})

	t.Run("banned user", func(t *testing.T) {
		h := newHarness(t)
		host, bob := h.user(t, "host"), h.user(t, "bob")
		lobbyID := h.lobby(t, host, 4)

		_, err := h.services.Lobby.Enter(ctx, lobbyID, bob)
		require.NoError(t, err)
		_, err = h.services.Lobby.MoveUser(ctx, lobbyID, host, service.MoveUserInput{TargetID: bob, MoveType: "ban"})
		require.NoError(t, err)

		_, err = h.services.Lobby.Enter(ctx, lobbyID, bob)
		testutil.AssertDomainError(t, err, domain.ErrBanned)
	})

	t.Run("missing lobby", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.services.Lobby.Enter(ctx, uuid.New(), h.user(t, "bob"))
		testutil.AssertDomainError(t, err, domain.ErrLobbyNotFound)
	})

	t.Run("concurrent entries respect capacity", func(t *testing.T) {
		h := newHarness(t)
		host := h.user(t, "host")
		lobbyID := h.lobby(t, host, 4)

		users := make([]uuid.UUID, 10)
		for i := range users {
			users[i] = h.user(t, "racer"+string(rune('a'+i)))
		}

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			admitted int
		)
		for _, u := range users {
			wg.Add(1)
			go func(u uuid.UUID) {
				defer wg.Done()
				_, err := h.services.Lobby.Enter(ctx, lobbyID, u)
				if err != nil {
					assert.True(t, errors.Is(err, domain.ErrLobbyFull), err.Error())
					return
				}
				mu.Lock()
				admitted++
				mu.Unlock()
			}(u)
		}
		wg.Wait()

		assert.Equal(t, 3, admitted)
		view, err := h.services.Lobby.Get(ctx, lobbyID)
		require.NoError(t, err)
		assert.Equal(t, 4, view.UserCount)
		assert.Len(t, view.Spectators, 4)
	})
}

func TestLobbyService_Leave(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	host, bob := h.user(t, "host"), h.user(t, "bob")
	lobbyID := h.lobby(t, host, 4)

	_, err := h.services.Lobby.Leave(ctx, lobbyID, bob)
	testutil.AssertDomainError(t, err, domain.ErrNotInLobby)

	_, err = h.services.Lobby.Enter(ctx, lobbyID, bob)
	require.NoError(t, err)

	view, err := h.services.Lobby.Leave(ctx, lobbyID, host)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, bob, view.HostUserID)
	assert.Equal(t, 1, view.UserCount)

	view, err = h.services.Lobby.Leave(ctx, lobbyID, bob)
	require.NoError(t, err)
	assert.Nil(t, view)
	h.pub.AssertCalled(t, "PublishLobbyClosed", lobbyID)

	_, err = h.services.Lobby.Get(ctx, lobbyID)
	testutil.AssertDomainError(t, err, domain.ErrLobbyNotFound)
}

func TestLobbyService_MoveUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	host, bob := h.user(t, "host"), h.user(t, "bob")
	lobbyID := h.lobby(t, host, 4)
	_, err := h.services.Lobby.Enter(ctx, lobbyID, bob)
	require.NoError(t, err)

	tests := []struct {
		name    string
		caller  uuid.UUID
		input   service.MoveUserInput
		wantErr *domain.Error
	}{
		{name: "unknown move", caller: host, input: service.MoveUserInput{TargetID: bob, MoveType: "promote"}, wantErr: domain.ErrInvalidMoveType},
		{name: "missing target", caller: host, input: service.MoveUserInput{MoveType: "kick"}, wantErr: domain.ErrMoveTargetRequired},
		{name: "self", caller: host, input: service.MoveUserInput{TargetID: host, MoveType: "kick"}, wantErr: domain.ErrMoveSelf},
		{name: "not host", caller: bob, input: service.MoveUserInput{TargetID: host, MoveType: "kick"}, wantErr: domain.ErrNotHost},
		{name: "target outside lobby", caller: host, input: service.MoveUserInput{TargetID: uuid.New(), MoveType: "kick"}, wantErr: domain.ErrMoveTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.services.Lobby.MoveUser(ctx, lobbyID, tt.caller, tt.input)
			testutil.AssertDomainError(t, err, tt.wantErr)
		})
	}

	t.Run("seat then hand over host", func(t *testing.T) {
		view, err := h.services.Lobby.MoveUser(ctx, lobbyID, host, service.MoveUserInput{TargetID: bob, MoveType: "team1"})
		require.NoError(t, err)
		require.Len(t, view.Teams[0].Players, 1)
		assert.Equal(t, bob, view.Teams[0].Players[0].UserID)

		view, err = h.services.Lobby.MoveUser(ctx, lobbyID, host, service.MoveUserInput{TargetID: bob, MoveType: "host"})
		require.NoError(t, err)
		assert.Equal(t, bob, view.HostUserID)
	})

	t.Run("kick", func(t *testing.T) {
		view, err := h.services.Lobby.MoveUser(ctx, lobbyID, bob, service.MoveUserInput{TargetID: host, MoveType: "kick"})
		require.NoError(t, err)
		assert.Equal(t, 1, view.UserCount)
		assert.NotContains(t, view.Members(), host)

		_, err = h.services.Lobby.Enter(ctx, lobbyID, host)
		assert.NoError(t, err)
	})
}

func TestLobbyService_List(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	host := h.user(t, "host")
	for i := 0; i < 3; i++ {
		h.lobby(t, host, 4)
	}

	all, err := h.services.Lobby.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := h.services.Lobby.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[1].ID, page[0].ID)

	rest, err := h.services.Lobby.List(ctx, service.MaxListLimit+50, -3)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestLobbyService_Invite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	lobbyID := h.lobby(t, h.user(t, "host"), 4)

	assert.Equal(t, "http://scrapjack.test/lobbies/"+lobbyID.String(), h.services.Lobby.InviteURL(lobbyID))

	png, err := h.services.Lobby.InviteQR(ctx, lobbyID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = h.services.Lobby.InviteQR(ctx, uuid.New())
	testutil.AssertDomainError(t, err, domain.ErrLobbyNotFound)
}
