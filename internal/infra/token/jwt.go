package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// セッショントークン（HS256）の発行と検証
type SessionJWT struct {
	secret []byte
	maxAge time.Duration
}

// DI
func NewSessionJWT(secret string, maxAge time.Duration) *SessionJWT {
	return &SessionJWT{secret: []byte(secret), maxAge: maxAge}
}

// sid を入れて署名する
func (j *SessionJWT) Issue(sessionID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(j.maxAge)

	claims := jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// 署名・期限を確認して sid を返す
func (j *SessionJWT) Verify(raw string) (string, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil || parsed == nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrInvalidToken
	}
	return sid, nil
}
