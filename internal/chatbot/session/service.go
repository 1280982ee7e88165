// internal/chatbot/session/service.go
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/common/metrics"
	"vahan-chatbot/internal/models"
)

var (
	ErrCredentialsRequired = errors.New("CREDENTIALS_REQUIRED")
	ErrInvalidUsername     = errors.New("INVALID_USERNAME")
	ErrInvalidCredentials  = errors.New("INVALID_CREDENTIALS")
)

// LockedError is returned while an account is locked. JustLocked is set on the
// attempt that triggered the lock.
type LockedError struct {
	Minutes    int
	JustLocked bool
}

func (e *LockedError) Error() string {
	if e.JustLocked {
		return fmt.Sprintf("Account locked for %d minutes due to multiple failed attempts.", e.Minutes)
	}
	return fmt.Sprintf("Account locked. Try again in %d minute(s).", e.Minutes)
}

type Users interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	RecordFailure(ctx context.Context, userID int64, attempts int) error
	Lock(ctx context.Context, userID int64, attempts int, until time.Time) error
	RecordLogin(ctx context.Context, userID int64) error
}

// LockNotifier is told about every account that gets locked.
type LockNotifier interface {
	AccountLocked(ctx context.Context, username string, until time.Time)
}

type Config struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type Service struct {
	users    Users
	tokens   *TokenManager
	config   Config
	notifier LockNotifier
	now      func() time.Time
	logger   logger.Logger
}

func NewService(users Users, tokens *TokenManager, config Config, log logger.Logger) *Service {
	if config.MaxLoginAttempts <= 0 {
		config.MaxLoginAttempts = 5
	}
	if config.LockDuration <= 0 {
		config.LockDuration = 5 * time.Minute
	}
	return &Service{
		users:  users,
		tokens: tokens,
		config: config,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "session"}),
	}
}

// WithNotifier sets where lockouts are reported.
func (s *Service) WithNotifier(n LockNotifier) *Service {
	s.notifier = n
	return s
}

// Login checks the password and issues a token. Consecutive failures lock the
// account once MaxLoginAttempts is reached.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	username = strings.TrimSpace(username)
	if n := len([]rune(username)); n < 3 || n > 50 {
		return nil, ErrInvalidUsername
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		metrics.LoginAttempts.WithLabelValues("unknown_user").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.now()
	if user.IsLocked && user.LockUntil != nil && user.LockUntil.After(now) {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		minutes := int(math.Ceil(user.LockUntil.Sub(now).Minutes()))
		return nil, &LockedError{Minutes: minutes}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, s.recordFailure(ctx, user, now)
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) recordFailure(ctx context.Context, user *models.User, now time.Time) error {
	attempts := user.FailedAttempts + 1

	if attempts >= s.config.MaxLoginAttempts {
		until := now.Add(s.config.LockDuration)
		if err := s.users.Lock(ctx, user.ID, attempts, until); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		s.logger.Warn("account locked", map[string]interface{}{
			"username": user.Username,
			"attempts": attempts,
		})
		if s.notifier != nil {
			s.notifier.AccountLocked(ctx, user.Username, until)
		}
		return &LockedError{Minutes: int(s.config.LockDuration.Minutes()), JustLocked: true}
	}

	if err := s.users.RecordFailure(ctx, user.ID, attempts); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	metrics.LoginAttempts.WithLabelValues("bad_password").Inc()
	return ErrInvalidCredentials
}

// Logout revokes the token the request was made with.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return err
	}
	s.logger.Info("user logged out", map[string]interface{}{"username": claims.Username})
	return nil
}

// Authenticate resolves a bearer token to the caller it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	return s.tokens.Verify(ctx, token)
}
