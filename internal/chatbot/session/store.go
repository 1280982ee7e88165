package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"vahan-chatbot/internal/models"
)

var ErrUserNotFound = errors.New("USER_NOT_FOUND")

// UserStore reads and updates login bookkeeping on the users table.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var (
		u         models.User
		state     sql.NullString
		district  sql.NullString
		rtoOffice sql.NullString
		lockUntil sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, state, district, rto_office,
		       failed_attempts, is_locked, lock_until
		FROM users
		WHERE username = $1`, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role,
		&state, &district, &rtoOffice,
		&u.FailedAttempts, &u.IsLocked, &lockUntil,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	u.State, u.District, u.RTOOffice = state.String, district.String, rtoOffice.String
	if lockUntil.Valid {
		t := lockUntil.Time
		u.LockUntil = &t
	}
	return &u, nil
}

func (s *UserStore) RecordFailure(ctx context.Context, userID int64, attempts int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = $1 WHERE id = $2`, attempts, userID)
	return err
}

func (s *UserStore) Lock(ctx context.Context, userID int64, attempts int, until time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = $1, is_locked = TRUE, lock_until = $2 WHERE id = $3`,
		attempts, until, userID)
	return err
}

func (s *UserStore) RecordLogin(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = 0, is_locked = FALSE, lock_until = NULL, last_login = NOW() WHERE id = $1`,
		userID)
	return err
}
