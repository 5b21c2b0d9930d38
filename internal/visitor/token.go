package visitor

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "glowmint-storefront"

var ErrInvalidToken = errors.New("invalid visitor token")

// TokenMaker signs visitor ids so a cookie cannot be edited to read another
// visitor's cart.
type TokenMaker struct {
	secret []byte
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{secret: []byte(secret)}
}

type Claims struct {
	VisitorID string `json:"vid"`
	jwt.RegisteredClaims
}

func (t *TokenMaker) New(visitorID string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		VisitorID: visitorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   visitorID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil || token == nil || !token.Valid || c.VisitorID == "" {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}
