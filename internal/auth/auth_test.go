package auth

import (
	"testing"
	"time"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, expiresAt, err := m.Generate("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, _, err := m.Generate("user-1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", time.Hour).Validate(token)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
		_, err := later.Validate(token)
		assert.ErrorIs(t, err, apperr.ErrTokenExpired)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(raw)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	ok, err := CheckPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("x", "not-a-hash")
	assert.Error(t, err)
}

func TestSubjectOf(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "4242"}).SignedString([]byte("kakao"))
	require.NoError(t, err)

	sub, err := SubjectOf(raw)
	require.NoError(t, err)
	assert.Equal(t, "4242", sub)

	_, err = SubjectOf("broken")
	assert.Error(t, err)
}

func TestNewKakao(t *testing.T) {
	assert.Nil(t, NewKakao(config.KakaoConfig{}))

	k := NewKakao(config.KakaoConfig{ClientID: "client", RedirectURL: "http://localhost/cb"})
	require.NotNil(t, k)
	assert.Contains(t, k.AuthCodeURL("state-1"), "kauth.kakao.com")
	assert.Contains(t, k.AuthCodeURL("state-1"), "state=state-1")
}
