package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/dom/scrapjack/internal/repository/memory"
	"github.com/dom/scrapjack/internal/service"
	"github.com/dom/scrapjack/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"
)

func newAuthService() (*service.AuthService, *repository.Repositories) {
	repos := memory.NewRepositories()
	return service.NewAuthService(repos.User, repos.Session, testutil.TestConfig(), zap.NewNop()), repos
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   service.RegisterInput
		setup   func(t *testing.T, authService *service.AuthService)
		wantErr *domain.Error
	}{
		{
			name: "successful registration",
			input: service.RegisterInput{
				DisplayName: "newuser",
				Password:    "password123",
			},
		},
		{
			name: "duplicate display name",
			input: service.RegisterInput{
				DisplayName: "existinguser",
				Password:    "password123",
			},
			setup: func(t *testing.T, authService *service.AuthService) {
				_, err := authService.Register(ctx, service.RegisterInput{
					DisplayName: "existinguser",
					Password:    "password123",
				})
				require.NoError(t, err)
			},
			wantErr: service.ErrDisplayNameExists,
		},
		{
			name: "invalid display name",
			input: service.RegisterInput{
				DisplayName: "no!",
				Password:    "password123",
			},
			wantErr: domain.ErrInvalidDisplayName,
		},
		{
			name: "short password",
			input: service.RegisterInput{
				DisplayName: "shortpass",
				Password:    "1234567",
			},
			wantErr: service.ErrPasswordTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService, _ := newAuthService()
			if tt.setup != nil {
				tt.setup(t, authService)
			}

			result, err := authService.Register(ctx, tt.input)

			if tt.wantErr != nil {
				testutil.AssertDomainError(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.input.DisplayName, result.User.DisplayName)
			assert.Equal(t, domain.DefaultPhotoURL, result.User.PhotoURL)
			assert.NotEmpty(t, result.AccessToken)
			assert.NotEmpty(t, result.RefreshToken)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	authService, repos := newAuthService()
	ctx := context.Background()

	user, rawPassword := testutil.NewUserBuilder().
		WithDisplayName("loginuser").
		WithPassword("correctpassword").
		Build(t, repos.User)

	tests := []struct {
		name    string
		input   service.LoginInput
		wantErr error
	}{
		{
			name:  "successful login",
			input: service.LoginInput{DisplayName: user.DisplayName, Password: rawPassword},
		},
		{
			name:    "wrong password",
			input:   service.LoginInput{DisplayName: user.DisplayName, Password: "wrongpassword"},
			wantErr: service.ErrInvalidCredentials,
		},
		{
			name:    "non-existent user",
			input:   service.LoginInput{DisplayName: "nonexistent", Password: "anypassword"},
			wantErr: service.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := authService.Login(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, codes.Unauthenticated, domain.CodeOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, result.User.ID)
			assert.NotEmpty(t, result.AccessToken)
		})
	}
}

func TestAuthService_UserIDFromToken(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	result, err := authService.Register(ctx, service.RegisterInput{
		DisplayName: "tokenuser",
		Password:    "password123",
	})
	require.NoError(t, err)

	other := *testutil.TestConfig()
	other.JWTSecret = "a-different-secret"
	foreign, err := service.NewAuthService(nil, nil, &other, zap.NewNop()).ValidateToken(result.AccessToken)
	assert.Nil(t, foreign)
	testutil.AssertCode(t, err, codes.Unauthenticated)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid token", token: result.AccessToken},
		{name: "invalid token", token: "invalid.token.here", wantErr: true},
		{name: "malformed token", token: "notavalidjwt", wantErr: true},
		{name: "empty token", token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := authService.UserIDFromToken(tt.token)

			if tt.wantErr {
				testutil.AssertCode(t, err, codes.Unauthenticated)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, result.User.ID, id)
		})
	}
}

func TestAuthService_UpdateDisplayName(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	alice, err := authService.Register(ctx, service.RegisterInput{DisplayName: "alice", Password: "password123"})
	require.NoError(t, err)
	_, err = authService.Register(ctx, service.RegisterInput{DisplayName: "bob", Password: "password123"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  uuid.UUID
		newName string
		wantErr *domain.Error
	}{
		{name: "rename", userID: alice.User.ID, newName: "Alice Smith"},
		{name: "same name again", userID: alice.User.ID, newName: "Alice Smith"},
		{name: "taken", userID: alice.User.ID, newName: "bob", wantErr: service.ErrDisplayNameExists},
		{name: "invalid", userID: alice.User.ID, newName: "x", wantErr: domain.ErrInvalidDisplayName},
		{name: "profane", userID: alice.User.ID, newName: "shit head", wantErr: domain.ErrInvalidDisplayName},
		{name: "unknown user", userID: uuid.New(), newName: "ghost", wantErr: service.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := authService.UpdateDisplayName(ctx, tt.userID, tt.newName)

			if tt.wantErr != nil {
				testutil.AssertDomainError(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.newName, user.DisplayName)

			got, err := authService.GetUserByID(ctx, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.newName, got.DisplayName)
		})
	}
}

func TestAuthService_Sessions(t *testing.T) {
	authService, repos := newAuthService()
	ctx := context.Background()

	first, err := authService.Register(ctx, service.RegisterInput{DisplayName: "Anne Bonny", Password: "password123"})
	require.NoError(t, err)
	second, err := authService.Login(ctx, service.LoginInput{DisplayName: "Anne Bonny", Password: "password123"})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Logging in again replaces the session, so only the newest refresh
	// token matches.
	session, err := repos.Session.GetActive(ctx, first.User.ID, time.Now())
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(session.RefreshTokenHash), []byte(second.RefreshToken)))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(session.RefreshTokenHash), []byte(first.RefreshToken)))

	_, err = repos.Session.GetActive(ctx, first.User.ID, session.ExpiresAt)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, authService.Logout(ctx, first.User.ID))
	_, err = repos.Session.GetActive(ctx, first.User.ID, time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAuthService_Logout(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	result, err := authService.Register(ctx, service.RegisterInput{
		DisplayName: "logoutuser",
		Password:    "password123",
	})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, result.User.ID))

	// Logout again should not error (no sessions to delete)
	require.NoError(t, authService.Logout(ctx, result.User.ID))
}
