package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret []byte
	jwtTTL    = 24 * time.Hour
)

// operatorClaims is the dashboard session payload. Expiry and not-before are
// validated by the jwt library on parse.
type operatorClaims struct {
	OperatorID int64 `json:"operator_id"`
	jwt.RegisteredClaims
}

func InitJWT(secret string, ttl time.Duration) {
	if secret == "" {
		panic("JWT secret is not set")
	}
	jwtSecret = []byte(secret)
	if ttl != 0 {
		jwtTTL = ttl
	}
}

// GenerateJWT issues a dashboard session token for an operator.
func GenerateJWT(operatorTgID int64) (string, error) {
	now := time.Now()
	claims := operatorClaims{
		OperatorID: operatorTgID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseJWT validates a session token and returns the operator's Telegram ID.
func ParseJWT(tokenString string) (int64, error) {
	var claims operatorClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.OperatorID == 0 {
		return 0, errors.New("operator_id not found")
	}
	return claims.OperatorID, nil
}
