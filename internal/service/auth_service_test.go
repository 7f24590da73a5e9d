package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
)

type userStoreStub struct {
	users     map[string]*models.User
	lastLogin map[string]time.Time
}

func newUserStoreStub(users ...*models.User) *userStoreStub {
	s := &userStoreStub{users: make(map[string]*models.User), lastLogin: make(map[string]time.Time)}
	for _, user := range users {
		s.users[user.Email] = user
	}
	return s
}

func (s *userStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (s *userStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin[id] = ts
	return nil
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "pat@example.com",
		PasswordHash: string(hash),
		FullName:     "Pat Lee",
		Role:         models.RoleOriginator,
		Active:       true,
	}
}

func TestAuthLoginIssuesValidToken(t *testing.T) {
	store := newUserStoreStub(testUser(t, "s3cret"))
	svc := NewAuthService(store, "test-signing-key", time.Hour, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "pat@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, int64(3600), res.ExpiresIn)
	require.Equal(t, "Pat Lee", res.User.FullName)
	require.Contains(t, store.lastLogin, "user-1")

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleOriginator, claims.Role)
	require.Equal(t, models.Actor{ID: "user-1", DisplayName: "Pat Lee"}, claims.Actor())
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	store := newUserStoreStub(testUser(t, "s3cret"))
	svc := NewAuthService(store, "test-signing-key", time.Hour, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "pat@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginRejectsInactiveAccount(t *testing.T) {
	user := testUser(t, "s3cret")
	user.Active = false
	svc := NewAuthService(newUserStoreStub(user), "test-signing-key", time.Hour, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "pat@example.com",
		Password: "s3cret",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	store := newUserStoreStub(testUser(t, "s3cret"))
	issuer := NewAuthService(store, "key-one", time.Hour, nil)
	verifier := NewAuthService(store, "key-two", time.Hour, nil)

	res, err := issuer.Login(context.Background(), models.LoginRequest{
		Email:    "pat@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(res.AccessToken)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
