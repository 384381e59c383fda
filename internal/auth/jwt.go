package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

// Claims — полезная нагрузка сессионного токена сотрудника.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issue подписывает HS256-токен сессии.
func Issue(s models.Session, issuer, key string, now time.Time) (string, error) {
	claims := Claims{
		Email: s.Email,
		Role:  string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.StaffID,
			ExpiresAt: jwt.NewNumericDate(s.Expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// Parse проверяет подпись, срок и издателя и возвращает сессию.
func Parse(tokenStr, key, issuer string) (models.Session, error) {
	claims, err := parseClaims(tokenStr, key, issuer)
	if err != nil {
		return models.Session{}, err
	}
	return claims.session(), nil
}

func parseClaims(tokenStr, key, issuer string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return nil, errors.New("issuer mismatch")
	}
	return claims, nil
}

func (c *Claims) session() models.Session {
	return models.Session{
		StaffID: c.Subject,
		Email:   c.Email,
		Role:    models.Role(c.Role),
		Expires: c.ExpiresAt.Time,
	}
}
