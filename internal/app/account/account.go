// Package account handles registration, login, token refresh and the
// user's own profile settings.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dayquest/dayquest/internal/app/gamification"
	"github.com/dayquest/dayquest/internal/domain"
	"github.com/dayquest/dayquest/internal/infra/sqlite"
	"github.com/dayquest/dayquest/internal/security"
)

const (
	MinPasswordLength   = 8
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)

// Service manages accounts.
type Service struct {
	db       *sqlite.DB
	hasher   *security.PasswordHasher
	tokens   *security.TokenManager
	dayStart gamification.DayStart
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// Config carries the account defaults.
type Config struct {
	DefaultDayStart string
}

// NewService creates an account service.
func NewService(db *sqlite.DB, hasher *security.PasswordHasher, tokens *security.TokenManager, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.DefaultDayStart == "" {
		cfg.DefaultDayStart = domain.DefaultDayStart
	}
	ds, err := gamification.ParseDayStart(cfg.DefaultDayStart)
	if err != nil {
		return nil, fmt.Errorf("default day start: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		hasher:   hasher,
		tokens:   tokens,
		dayStart: ds,
		validate: validator.New(),
		log:      logger,
		now:      time.Now,
	}, nil
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	DayStart string
}

// Session is an authenticated user with a fresh token pair.
type Session struct {
	User   domain.User        `json:"user"`
	Tokens security.TokenPair `json:"tokens"`
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" {
		return Session{}, fmt.Errorf("%w: username is required", domain.ErrInvalidArgument)
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return Session{}, fmt.Errorf("%w: invalid email %q", domain.ErrInvalidArgument, email)
	}
	if len(in.Password) < MinPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters",
			domain.ErrInvalidArgument, MinPasswordLength)
	}

	ds := s.dayStart
	if in.DayStart != "" {
		var err error
		if ds, err = gamification.ParseDayStart(in.DayStart); err != nil {
			return Session{}, err
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DayStartTime: ds.String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.InsertUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("insert user: %w", err)
	}

	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return s.session(user)
}

// Login verifies a username-or-email and password.
func (s *Service) Login(ctx context.Context, login, password string) (Session, error) {
	user, err := s.db.UserByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return Session{}, domain.ErrInvalidCredentials
	}
	return s.session(user)
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tokens.Validate(refreshToken, security.RefreshToken)
	if err != nil {
		return Session{}, err
	}
	user, err := s.db.UserByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// Authenticate validates an access token and returns the user ID it
// was issued to.
func (s *Service) Authenticate(accessToken string) (string, error) {
	claims, err := s.tokens.Validate(accessToken, security.AccessToken)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) session(user domain.User) (Session, error) {
	pair, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Tokens: pair}, nil
}

// Profile returns the user with current points and streaks.
func (s *Service) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.db.UserByID(ctx, userID)
}

// UpdateDayStart changes when the user's productivity day begins. Points
// already earned are not recomputed.
func (s *Service) UpdateDayStart(ctx context.Context, userID, dayStart string) (domain.User, error) {
	ds, err := gamification.ParseDayStart(dayStart)
	if err != nil {
		return domain.User{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	if err := s.db.UpdateDayStart(ctx, userID, ds.String(), now); err != nil {
		return domain.User{}, err
	}
	return s.db.UserByID(ctx, userID)
}

// PointsHistory returns the user's most recent points movements.
// A limit of zero selects DefaultHistoryLimit.
func (s *Service) PointsHistory(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	switch {
	case limit == 0:
		limit = DefaultHistoryLimit
	case limit < 0 || limit > MaxHistoryLimit:
		return nil, fmt.Errorf("%w: limit must be 1..%d", domain.ErrInvalidArgument, MaxHistoryLimit)
	}
	return s.db.LedgerEntries(ctx, userID, limit)
}
