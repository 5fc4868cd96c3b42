package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped on every tab token
const Issuer = "invite-portal"

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// TabClaims identifies one browser tab. The tab id keys its ephemeral session area.
type TabClaims struct {
	TabID string `json:"tab_id"`
	jwt.RegisteredClaims
}

// GenerateTabToken signs a tab token valid for ttl
func GenerateTabToken(tabID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TabClaims{
		TabID: tabID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   tabID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateTabToken validates a tab token and returns claims
func ValidateTabToken(tokenString, secret string) (*TabClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TabClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*TabClaims); ok && token.Valid && claims.TabID != "" {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}
