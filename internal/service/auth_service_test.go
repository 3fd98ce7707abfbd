package service

import (
	"testing"

	"github.com/sahidursuman/flex-commerce/internal/auth"
	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(testConfig(), repository.NewUserRepository(db))
}

func TestRegisterCreatesUserWithWallet(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)

	u, access, refresh, err := svc.Register("New@Example.com", "New User", "secret1", 0)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", u.Email)
	require.Equal(t, domain.RoleCustomer, u.Role)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&wallet).Error)
	require.EqualValues(t, 0, wallet.BalanceCents)
}

func TestRegisterLinksReferrer(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)
	referrer := createUser(t, db, 0)

	u, _, _, err := svc.Register("referred@example.com", "Referred", "secret1", referrer.ID)
	require.NoError(t, err)
	require.NotNil(t, u.ReferrerID)
	require.Equal(t, referrer.ID, *u.ReferrerID)
}

func TestRegisterIgnoresUnknownReferrer(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)

	u, _, _, err := svc.Register("solo@example.com", "Solo", "secret1", 9999)
	require.NoError(t, err)
	require.Nil(t, u.ReferrerID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)

	_, _, _, err := svc.Register("dup@example.com", "First", "secret1", 0)
	require.NoError(t, err)
	_, _, _, err = svc.Register("dup@example.com", "Second", "secret1", 0)
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)

	_, _, _, err := svc.Register("weak@example.com", "Weak", "12345", 0)
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestLogin(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)

	_, _, _, err := svc.Register("login@example.com", "Login", "secret1", 0)
	require.NoError(t, err)

	u, access, _, err := svc.Login("login@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "login@example.com", u.Email)

	cfg := testConfig()
	claims, err := auth.ParseAccessToken(&cfg.JWT, access)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)

	_, _, _, err = svc.Login("login@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCreds)
	_, _, _, err = svc.Login("nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestRefreshToken(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)

	_, _, refresh, err := svc.Register("refresh@example.com", "Refresh", "secret1", 0)
	require.NoError(t, err)

	access, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, newRefresh)

	_, _, err = svc.RefreshToken("garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLoginWithGoogleLinksExistingEmail(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)

	registered, _, _, err := svc.Register("mixed@example.com", "Mixed", "secret1", 0)
	require.NoError(t, err)

	u, _, _, isNew, err := svc.LoginWithGoogle("google-123", "mixed@example.com", "Mixed")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, registered.ID, u.ID)
	require.NotNil(t, u.GoogleID)
	require.Equal(t, "google-123", *u.GoogleID)

	// Subsequent sign-ins resolve by google id.
	again, _, _, isNew, err := svc.LoginWithGoogle("google-123", "mixed@example.com", "Mixed")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, registered.ID, again.ID)
}

func TestLoginWithGoogleCreatesAccount(t *testing.T) {
	db := testDB(t)
	svc := newAuthService(db)

	u, access, _, isNew, err := svc.LoginWithGoogle("google-456", "Fresh@Example.com", "Fresh")
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, "fresh@example.com", u.Email)
	require.NotEmpty(t, access)

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&wallet).Error)
}
