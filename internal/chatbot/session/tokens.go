// internal/chatbot/session/tokens.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/models"
)

var (
	ErrTokenMissing = errors.New("TOKEN_MISSING")
	ErrTokenExpired = errors.New("TOKEN_EXPIRED")
	ErrTokenInvalid = errors.New("TOKEN_INVALID")
	ErrTokenRevoked = errors.New("TOKEN_REVOKED")
)

const revokedKeyPrefix = "session:revoked:"

// Claims carry the caller's jurisdiction so requests need no user lookup.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64       `json:"id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	State     string      `json:"state,omitempty"`
	District  string      `json:"district,omitempty"`
	RTOOffice string      `json:"rto_office,omitempty"`
}

func (c *Claims) Caller() models.Caller {
	return models.Caller{
		UserID:    c.UserID,
		Username:  c.Username,
		Role:      c.Role,
		State:     c.State,
		District:  c.District,
		RTOOffice: c.RTOOffice,
	}
}

// TokenManager issues HS256 session tokens and tracks revoked ones in Redis.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	rdb    redis.Cmdable
	now    func() time.Time
	logger logger.Logger
}

func NewTokenManager(secret string, expiry time.Duration, issuer string, rdb redis.Cmdable, log logger.Logger) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		rdb:    rdb,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "tokens"}),
	}
}

// Issue signs a token for the user and returns it with its expiry.
func (m *TokenManager) Issue(u *models.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.expiry)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		State:     u.State,
		District:  u.District,
		RTOOffice: u.RTOOffice,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a token and checks it has not been revoked. If Redis cannot be
// reached the revocation check is skipped.
func (m *TokenManager) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.ID != "" && m.rdb != nil {
		n, err := m.rdb.Exists(ctx, revokedKeyPrefix+claims.ID).Result()
		if err != nil {
			m.logger.Warn("revocation check unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		} else if n > 0 {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke marks the token unusable until it would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil || m.rdb == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if err := m.rdb.Set(ctx, revokedKeyPrefix+claims.ID, claims.Username, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
