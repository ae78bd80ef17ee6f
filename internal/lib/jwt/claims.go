package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMissingSubject возвращается для токенов без идентификатора оператора.
var ErrMissingSubject = errors.New("token has no subject")

// CustomClaims описывает данные, хранящиеся в JWT.
// Subject содержит идентификатор оператора, IssuedAt момент выдачи.
type CustomClaims struct {
	jwt.RegisteredClaims
}

// OperatorID возвращает идентификатор оператора из claims.
func (c *CustomClaims) OperatorID() string {
	return c.Subject
}

// IssuedAtTime возвращает момент выдачи токена или нулевое время.
func (c *CustomClaims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GenerateToken создает JWT токен для оператора, подписывая его секретным ключом.
func (j *MakerImpl) GenerateToken(operatorID string) (string, error) {
	const op = "jwt.GenerateToken"
	if operatorID == "" {
		return "", fmt.Errorf("%s: %w", op, ErrMissingSubject)
	}
	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   operatorID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken парсит JWT токен, проверяет подпись, алгоритм и срок действия.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingSubject)
	}
	return claims, nil
}
