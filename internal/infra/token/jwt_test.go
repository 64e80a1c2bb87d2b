package token_test

import (
	"testing"
	"time"

	"storefront/internal/infra/token"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionJWT_IssueVerify(t *testing.T) {
	j := token.NewSessionJWT("secret", time.Hour)
	now := time.Now()

	raw, exp, err := j.Issue("sid-1", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	sid, err := j.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sid)
}

func TestSessionJWT_Rejects(t *testing.T) {
	j := token.NewSessionJWT("secret", time.Hour)

	// 別シークレット
	other, _, err := token.NewSessionJWT("other", time.Hour).Issue("sid-1", time.Now())
	require.NoError(t, err)
	_, err = j.Verify(other)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	// 期限切れ
	expired, _, err := j.Issue("sid-1", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = j.Verify(expired)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	// sid なし
	noSID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = j.Verify(noSID)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	// HS512 は受け付けない
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sid": "sid-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = j.Verify(hs512)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = j.Verify("garbage")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}
