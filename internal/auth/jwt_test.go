package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleancity/cleancity-be/internal/models"
)

func testUser() models.User {
	return models.User{
		ID:    "user-1",
		Name:  "Alice",
		Email: "alice@x.com",
		Role:  models.RoleUser,
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 7*24*time.Hour)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "alice@x.com", claims.Email)
	require.Equal(t, models.RoleUser, claims.Role)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Hour)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	_, err := svc.Verify("not.a.token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.Verify(tampered)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
