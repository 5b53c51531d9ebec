package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs-lzh/movie-booking/internal/model"
)

func testUser(admin bool) *model.User {
	return &model.User{
		ID:       uuid.New(),
		Username: "ripley",
		Email:    "ripley@nostromo.io",
		IsAdmin:  admin,
	}
}

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", "movie-booking", "clients", 60)
	user := testUser(true)

	tok, err := m.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims, err := m.Parse(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "ripley", claims.Name)
	assert.Equal(t, "ripley@nostromo.io", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestParseRejects(t *testing.T) {
	m := NewTokenManager("secret", "movie-booking", "clients", 60)
	valid, err := m.Issue(testUser(false))
	require.NoError(t, err)

	expired := NewTokenManager("secret", "movie-booking", "clients", 60)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(testUser(false))
	require.NoError(t, err)

	otherIssuer, err := NewTokenManager("secret", "someone-else", "clients", 60).Issue(testUser(false))
	require.NoError(t, err)

	otherAudience, err := NewTokenManager("secret", "movie-booking", "other", 60).Issue(testUser(false))
	require.NoError(t, err)

	otherSecret, err := NewTokenManager("another-secret", "movie-booking", "clients", 60).Issue(testUser(false))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": uuid.NewString()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not.a.token",
		"expired":        old.Token,
		"wrong issuer":   otherIssuer.Token,
		"wrong audience": otherAudience.Token,
		"wrong secret":   otherSecret.Token,
		"alg none":       none,
		"tampered":       valid.Token + "x",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
