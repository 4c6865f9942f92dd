package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("secret", 15*time.Minute, 7*24*time.Hour)

	token, err := issuer.Issue("user-1", "a@x.com", TokenKindAccess)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, TokenKindAccess, claims.Kind)
	assert.Equal(t, "qorlia", claims.Issuer)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("secret", 15*time.Minute, 7*24*time.Hour)
	other := NewIssuer("different", 15*time.Minute, 7*24*time.Hour)

	token, err := issuer.Issue("user-1", "a@x.com", TokenKindAccess)
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
	assert.False(t, errors.Is(err, ErrTokenExpired))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("secret", 15*time.Minute, 7*24*time.Hour)

	_, err := issuer.Verify("not.a.token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestTokenValidUntilExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	issuer := NewIssuer("secret", 15*time.Minute, 7*24*time.Hour).
		WithClock(func() time.Time { return clock })

	token, err := issuer.Issue("user-1", "a@x.com", TokenKindAccess)
	require.NoError(t, err)

	// Just inside the TTL.
	clock = now.Add(15*time.Minute - time.Second)
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	// At and past the TTL.
	clock = now.Add(15*time.Minute + time.Second)
	_, err = issuer.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	issuer := NewIssuer("secret", 15*time.Minute, 7*24*time.Hour).
		WithClock(func() time.Time { return clock })

	access, err := issuer.Issue("user-1", "a@x.com", TokenKindAccess)
	require.NoError(t, err)
	refresh, err := issuer.Issue("user-1", "a@x.com", TokenKindRefresh)
	require.NoError(t, err)

	clock = now.Add(1 * time.Hour)

	_, err = issuer.Verify(access)
	assert.True(t, errors.Is(err, ErrTokenExpired))

	claims, err := issuer.Verify(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenKindRefresh, claims.Kind)
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "abc", "Basic abc", "Bearer a b"} {
		_, err := ExtractToken(header)
		assert.Error(t, err, "header %q", header)
	}
}
