// Package jwt реализует генерацию и парсинг JWT токенов операторов консоли.
//
// Maker определяет интерфейс для создания и проверки токенов доступа.
// MakerImpl конкретная реализация с использованием секретного ключа и срока жизни токена.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
//
// В токене хранится только идентификатор оператора: роль, отель и права
// загружаются заново на каждом запросе, чтобы блокировка оператора
// действовала сразу, а не по истечении токена.
type Maker interface {
	GenerateToken(operatorID string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
	issuer    string
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		issuer:    "hotel-console",
	}
}
