package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

type stubUserStore struct {
	users    map[string]*models.User
	sessions map[string]*models.RefreshToken
}

func newStubUserStore(users ...*models.User) *stubUserStore {
	s := &stubUserStore{users: make(map[string]*models.User), sessions: make(map[string]*models.RefreshToken)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (s *stubUserStore) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (s *stubUserStore) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	token.ID = token.Token
	s.sessions[token.Token] = token
	return nil
}

func (s *stubUserStore) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := s.sessions[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (s *stubUserStore) RevokeRefreshToken(_ context.Context, id string, at time.Time) error {
	for _, rt := range s.sessions {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &at
		}
	}
	return nil
}

var jwtCfg = config.JWTConfig{
	Secret:            "test-secret",
	Expiration:        time.Hour,
	RefreshExpiration: 24 * time.Hour,
}

func testUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u-1",
		Email:        "reviewer@agency.test",
		PasswordHash: string(hash),
		FullName:     "Jordan Reviewer",
		Role:         models.RoleStaff,
		Division:     "QMS",
		Active:       true,
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	user := testUser(t)
	svc := NewAuthService(newStubUserStore(user), jwtCfg, nil)

	result, err := svc.Login(context.Background(), models.LoginRequest{
		Email: user.Email, Password: "s3cret!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
	assert.Equal(t, "QMS", claims.Identity().Division)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	user := testUser(t)
	svc := NewAuthService(newStubUserStore(user), jwtCfg, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@agency.test", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	user := testUser(t)
	user.Active = false
	svc := NewAuthService(newStubUserStore(user), jwtCfg, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "s3cret!"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesSession(t *testing.T) {
	user := testUser(t)
	store := newStubUserStore(user)
	svc := NewAuthService(store, jwtCfg, nil)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "s3cret!"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the old session is revoked after rotation
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newStubUserStore(), jwtCfg, nil)
	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
