package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"finman/internal/core"
	"finman/internal/log"
)

// AuthService registers users and turns credentials into sessions
type AuthService struct {
	users  UserStore
	cost   int
	logger *log.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users UserStore, bcryptCost int, logger *log.Logger) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:  users,
		cost:   bcryptCost,
		logger: orDiscard(logger).WithComponent(log.ComponentAuth),
	}
}

// Register creates an account. The username is stored trimmed.
func (s *AuthService) Register(ctx context.Context, username, password, confirm string) (core.User, error) {
	if err := core.ValidateCredentials(username, password, confirm); err != nil {
		return core.User{}, err
	}
	username = strings.TrimSpace(username)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return core.User{}, err
	}

	u, err := s.users.CreateUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, core.ErrDuplicateUsername) {
			s.logger.InfoContext(ctx, "Registration rejected", log.FieldUsername, username, log.FieldErrorType, log.ErrorTypeConflict)
		}
		return core.User{}, err
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldOperation, log.OpRegister, log.FieldUserID, u.ID)
	return u, nil
}

// Login checks credentials. Unknown usernames and wrong passwords both
// return core.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (core.Session, error) {
	u, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return core.Session{}, err
		}
		// compare anyway so both failures take about as long
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		s.logger.InfoContext(ctx, "Login failed", log.FieldErrorType, log.ErrorTypeAuth)
		return core.Session{}, core.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.InfoContext(ctx, "Login failed", log.FieldUserID, u.ID, log.FieldErrorType, log.ErrorTypeAuth)
		return core.Session{}, core.ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "User logged in", log.FieldOperation, log.OpLogin, log.FieldUserID, u.ID)
	return core.Session{UserID: u.ID, Username: u.Username}, nil
}

// Logout ends a session. It returns the zero session.
func (s *AuthService) Logout(ctx context.Context, sess core.Session) core.Session {
	if sess.Valid() {
		s.logger.InfoContext(ctx, "User logged out", log.FieldUserID, sess.UserID)
	}
	return core.Session{}
}

// Refresh re-reads the session's user, e.g. after a restore replaced the
// database. core.ErrNotFound means the user no longer exists.
func (s *AuthService) Refresh(ctx context.Context, sess core.Session) (core.Session, error) {
	if err := requireSession(sess); err != nil {
		return core.Session{}, err
	}
	u, err := s.users.UserByID(ctx, sess.UserID)
	if err != nil {
		return core.Session{}, err
	}
	if u.Username != sess.Username {
		return core.Session{}, core.ErrNotFound
	}
	return core.Session{UserID: u.ID, Username: u.Username}, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("finman-dummy-password"), s.cost)
	})
	return s.dummyHash
}
