package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func TestVerifyValidToken(t *testing.T) {
	v := NewVerifier(testSecret)
	want := User{ID: uuid.New(), Role: RoleAuthenticated, Email: "a@example.com"}

	token, err := v.Sign(want, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, RoleAuthenticated, got.Role)
	assert.Equal(t, "a@example.com", got.Email)
	assert.False(t, got.IsService())
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier(testSecret)
	user := User{ID: uuid.New(), Role: RoleAuthenticated}

	expired, err := v.Sign(user, -time.Hour)
	require.NoError(t, err)

	wrongSecret, err := NewVerifier("another-secret-another-secret-another").Sign(user, time.Hour)
	require.NoError(t, err)

	anon, err := v.Sign(User{ID: user.ID, Role: "anon"}, time.Hour)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             RoleAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID.String()},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: RoleAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"malformed":    "not.a.jwt",
		"expired":      expired,
		"wrong secret": wrongSecret,
		"anon role":    anon,
		"bad subject":  badSubject,
		"no expiry":    noExpiry,
		"alg none":     none,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnauthenticated))
		})
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := BearerToken(r)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	r.Header.Set("Authorization", "Basic abc")
	_, err = BearerToken(r)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	r.Header.Set("Authorization", "bearer abc.def.ghi")
	token, err := BearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	u := &User{ID: uuid.New(), Role: RoleService}
	got, ok := UserFromContext(ContextWithUser(context.Background(), u))
	require.True(t, ok)
	assert.Same(t, u, got)
	assert.True(t, got.IsService())
}
