package websocket_test

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dom/scrapjack/internal/api/handlers"
	"github.com/dom/scrapjack/internal/service"
	"github.com/dom/scrapjack/internal/testutil"
	"github.com/dom/scrapjack/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsTimeout = 2 * time.Second

func createLobby(t *testing.T, ts *testutil.TestServer, token string) *service.LobbyView {
	t.Helper()
	resp := ts.Do(t, http.MethodPost, "/lobbies", handlers.CreateLobbyRequest{Name: "socket lobby", MaxUsers: 4}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view service.LobbyView
	testutil.AssertJSONResponse(t, resp, &view)
	return &view
}

func TestLobbyHub_StateSync(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, hostToken := testutil.NewUserBuilder().WithDisplayName("host").BuildAndAuthenticate(t, ts)
	bob, bobToken := testutil.NewUserBuilder().WithDisplayName("bob").BuildAndAuthenticate(t, ts)
	lobby := createLobby(t, ts, hostToken)

	host := testutil.NewWSClient(t, ts.WebSocketURL(hostToken))
	host.JoinLobby(lobby.ID.String())
	sync := host.ExpectStateSync(wsTimeout)
	assert.Equal(t, lobby.ID, sync.Lobby.ID)
	assert.Equal(t, 1, sync.Lobby.UserCount)

	resp := ts.Do(t, http.MethodPost, "/lobbies/"+lobby.ID.String()+"/enter", nil, bobToken)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	sync = host.ExpectStateSync(wsTimeout)
	assert.Equal(t, 2, sync.Lobby.UserCount)
	assert.Contains(t, sync.Lobby.Members(), bob.ID)

	resp = ts.Do(t, http.MethodPost, "/lobbies/"+lobby.ID.String()+"/game/join", handlers.JoinTeamRequest{TeamID: "team2"}, bobToken)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	sync = host.ExpectStateSync(wsTimeout)
	require.Len(t, sync.Lobby.Teams[1].Players, 1)
	assert.Equal(t, "bob", sync.Lobby.Teams[1].Players[0].DisplayName)
}

func TestLobbyHub_Subscriptions(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, hostToken := testutil.NewUserBuilder().WithDisplayName("host").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithDisplayName("bob").BuildAndAuthenticate(t, ts)
	first := createLobby(t, ts, hostToken)
	second := createLobby(t, ts, hostToken)

	watcher := testutil.NewWSClient(t, ts.WebSocketURL(bobToken))

	t.Run("bad lobby id", func(t *testing.T) {
		watcher.JoinLobby("not-a-uuid")
		errPayload := watcher.ExpectError(wsTimeout)
		assert.Equal(t, "INVALID_LOBBY_ID", errPayload.Code)
	})

	t.Run("unknown lobby", func(t *testing.T) {
		watcher.JoinLobby(uuid.New().String())
		errPayload := watcher.ExpectError(wsTimeout)
		assert.Equal(t, "LOBBY_NOT_FOUND", errPayload.Code)
	})

	t.Run("joining another lobby replaces the subscription", func(t *testing.T) {
		watcher.JoinLobby(first.ID.String())
		assert.Equal(t, first.ID, watcher.ExpectStateSync(wsTimeout).Lobby.ID)
		watcher.JoinLobby(second.ID.String())
		assert.Equal(t, second.ID, watcher.ExpectStateSync(wsTimeout).Lobby.ID)

		resp := ts.Do(t, http.MethodPost, "/lobbies/"+first.ID.String()+"/enter", nil, bobToken)
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		watcher.ExpectNoMessage(200 * time.Millisecond)
	})

	t.Run("leave stops updates", func(t *testing.T) {
		watcher.LeaveLobby()
		// Commands are handled in order, so this error proves the leave
		// was applied.
		watcher.JoinLobby("not-a-uuid")
		watcher.ExpectError(wsTimeout)

		resp := ts.Do(t, http.MethodPost, "/lobbies/"+second.ID.String()+"/enter", nil, bobToken)
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		watcher.ExpectNoMessage(200 * time.Millisecond)
	})
}

func TestLobbyHub_SlowLoadDoesNotBlockOtherJoins(t *testing.T) {
	var slowID atomic.Value
	release := make(chan struct{})
	ts := testutil.NewTestServer(t, testutil.WithViewLoader(func(next websocket.ViewLoader) websocket.ViewLoader {
		return func(ctx context.Context, lobbyID uuid.UUID) (*service.LobbyView, error) {
			if id, _ := slowID.Load().(uuid.UUID); id == lobbyID {
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return next(ctx, lobbyID)
		}
	}))
	_, hostToken := testutil.NewUserBuilder().WithDisplayName("host").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithDisplayName("bob").BuildAndAuthenticate(t, ts)
	slow := createLobby(t, ts, hostToken)
	fast := createLobby(t, ts, bobToken)
	slowID.Store(slow.ID)

	host := testutil.NewWSClient(t, ts.WebSocketURL(hostToken))
	host.JoinLobby(slow.ID.String())

	bob := testutil.NewWSClient(t, ts.WebSocketURL(bobToken))
	bob.JoinLobby(fast.ID.String())
	assert.Equal(t, fast.ID, bob.ExpectStateSync(wsTimeout).Lobby.ID)
	host.ExpectNoMessage(100 * time.Millisecond)

	close(release)
	assert.Equal(t, slow.ID, host.ExpectStateSync(wsTimeout).Lobby.ID)
}

func TestLobbyHub_LobbyClosed(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, hostToken := testutil.NewUserBuilder().WithDisplayName("host").BuildAndAuthenticate(t, ts)
	lobby := createLobby(t, ts, hostToken)

	client := testutil.NewWSClient(t, ts.WebSocketURL(hostToken))
	client.JoinLobby(lobby.ID.String())
	client.ExpectStateSync(wsTimeout)

	resp := ts.Do(t, http.MethodPost, "/lobbies/"+lobby.ID.String()+"/leave", nil, hostToken)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	closed := client.ExpectClosed(wsTimeout)
	assert.Equal(t, lobby.ID.String(), closed.LobbyID)
	assert.Nil(t, ts.Hub.GetLobbyStateIfExists(lobby.ID))
}

func TestWebSocketHandler_RequiresToken(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name string
		url  string
	}{
		{name: "missing token", url: "ws" + strings.TrimPrefix(ts.BaseURL(), "http") + "/api/v1/ws"},
		{name: "invalid token", url: ts.WebSocketURL("invalid.token.here")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := gorillaWS.DefaultDialer.Dial(tt.url, nil)
			if conn != nil {
				conn.Close()
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}
