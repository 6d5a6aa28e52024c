package auth

import (
	"crypto/rsa"
	"errors"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier verifies RS256 tokens for the cleanup endpoint and
// returns the subject claim.
type JWTVerifier struct {
	pub *rsa.PublicKey
}

func NewJWTVerifier(pubPath string) (*JWTVerifier, error) {
	b, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
	if err != nil {
		return nil, err
	}
	return &JWTVerifier{pub: pub}, nil
}

func (j *JWTVerifier) VerifyToken(token string) (string, error) {
	t, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.pub, nil
	})
	if err != nil {
		return "", err
	}
	if !t.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	if v, ok := claims["sub"].(string); ok && v != "" {
		return v, nil
	}
	return "", errors.New("subject not found in token")
}
