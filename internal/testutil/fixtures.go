package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	displayName string
	password    string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		displayName: randomDisplayName(),
		password:    "testpassword123",
	}
}

// Consonants only, so generated names stay clear of the profanity filter.
const generatedNameLetters = "bdghjmnpqrtvwxz"

func randomDisplayName() string {
	id := uuid.New()
	name := []byte("user")
	for _, b := range id[:8] {
		name = append(name, generatedNameLetters[int(b)%len(generatedNameLetters)])
	}
	return string(name)
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, users repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		DisplayName:  b.displayName,
		PasswordHash: string(hashedPassword),
		PhotoURL:     domain.DefaultPhotoURL,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate registers the user via the API and returns the user
// and access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"displayName": b.displayName,
		"password":    b.password,
	})

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:          userID,
		DisplayName: authResp.User.DisplayName,
		PhotoURL:    authResp.User.PhotoURL,
	}

	return user, authResp.AccessToken
}

// ScriptedRand replays queued values for IntN. Each value is reduced modulo
// n; an empty queue yields 0.
type ScriptedRand struct {
	mu     sync.Mutex
	values []int
}

func NewScriptedRand(values ...int) *ScriptedRand {
	return &ScriptedRand{values: values}
}

// Push queues more values.
func (r *ScriptedRand) Push(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, values...)
}

// PushRolls queues values that make the engine roll exactly the given
// numbers within [low, high].
func (r *ScriptedRand) PushRolls(low int, rolls ...int) {
	for _, roll := range rolls {
		r.Push(roll - low)
	}
}

func (r *ScriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

// StepClock advances by one second on every call.
type StepClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStepClock() *StepClock {
	return NewStepClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
}

func NewStepClockAt(start time.Time) *StepClock {
	return &StepClock{now: start}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// LobbyBuilder assembles lobby snapshots for engine and repository tests.
type LobbyBuilder struct {
	snap  *domain.LobbySnapshot
	clock *StepClock
}

// NewLobbyBuilder starts a lobby hosted by host, who joins as a spectator.
// Its records predate anything a NewStepClock engine creates.
func NewLobbyBuilder(host uuid.UUID) *LobbyBuilder {
	clock := NewStepClockAt(time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC))
	lobby := &domain.Lobby{
		ID:         uuid.New(),
		Name:       "test lobby",
		HostUserID: host,
		CreatedBy:  host,
		MaxUsers:   domain.MaxLobbyUsers,
		CreatedAt:  clock.Now(),
	}
	b := &LobbyBuilder{snap: domain.NewLobbySnapshot(lobby), clock: clock}
	return b.WithSpectator(host)
}

func (b *LobbyBuilder) WithName(name string) *LobbyBuilder {
	b.snap.Lobby.Name = name
	return b
}

func (b *LobbyBuilder) WithMaxUsers(n int) *LobbyBuilder {
	b.snap.Lobby.MaxUsers = n
	return b
}

// WithSpectator adds userID as a spectator.
func (b *LobbyBuilder) WithSpectator(userID uuid.UUID) *LobbyBuilder {
	b.snap.AddSpectator(&domain.Spectator{
		LobbyID:  b.snap.Lobby.ID,
		UserID:   userID,
		JoinDate: b.clock.Now(),
		PhotoURL: domain.DefaultPhotoURL,
	})
	b.snap.Lobby.UserCount++
	return b
}

// WithPlayer seats userID on team, moving them off the spectator list when
// they are already in the lobby.
func (b *LobbyBuilder) WithPlayer(userID uuid.UUID, team domain.TeamID, ready bool) *LobbyBuilder {
	if b.snap.RemoveSpectator(userID) == nil && b.snap.RemovePlayer(userID) == nil {
		b.snap.Lobby.UserCount++
	}
	p := domain.NewPlayer(b.snap.Lobby.ID, userID, team, domain.DefaultPhotoURL, b.clock.Now())
	p.IsReady = ready
	b.snap.AddPlayer(p)
	return b
}

// WithGame attaches a created, unstarted game in mode m.
func (b *LobbyBuilder) WithGame(m *domain.Mode, freeJoin, autoPopulate bool) *LobbyBuilder {
	g := &domain.Game{
		LobbyID:        b.snap.Lobby.ID,
		IsFreeTeamJoin: freeJoin,
		IsAutoPopulate: autoPopulate,
		CreateDate:     b.clock.Now(),
	}
	g.SetMode(m.Snapshot())
	b.snap.Game = g
	return b
}

func (b *LobbyBuilder) WithBan(userID uuid.UUID) *LobbyBuilder {
	b.snap.Ban(userID)
	return b
}

func (b *LobbyBuilder) Build() *domain.LobbySnapshot {
	return b.snap
}

// TestMode returns a small mode for deterministic games: one round, rolls
// 1..6, a cap of 10 and jack after two taps at double value.
func TestMode() *domain.Mode {
	return &domain.Mode{
		ID:             "test",
		Name:           "Test",
		RoundMaxCount:  1,
		TurnMaxScore:   10,
		RollLow:        1,
		RollHigh:       6,
		TapsBeforeJack: 2,
		JackMultiplier: 2,
	}
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// Do sends an authenticated JSON request and returns the response. The
// body is closed when the test ends.
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(CreateAuthenticatedRequest(t, method, ts.APIURL(path), body, token))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
