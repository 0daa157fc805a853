package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mdt/mdt/internal/platform/apperr"
	"github.com/mdt/mdt/internal/platform/auth"
	"github.com/mdt/mdt/internal/platform/db"
)

// InvalidCredentials is the only message a failed login returns.
const InvalidCredentials = "Invalid credentials"

type Service struct {
	repo   Repository
	tx     db.Transactor
	logger zerolog.Logger
	hash   func(string) (string, error)
}

func NewService(repo Repository, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger.With().Str("component", "user").Logger(),
		hash:   auth.HashPassword,
	}
}

// Login checks email and password. Unknown, inactive and wrong-password
// accounts fail alike.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.byEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthenticated(InvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !u.Active || !auth.CheckPassword(u.PasswordHash, password) {
		s.logger.Warn().Int64("user_id", u.ID).Msg("login rejected")
		return nil, apperr.Unauthenticated(InvalidCredentials)
	}
	return u, nil
}

// Create adds an account. Only administrators may call it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	caller, err := auth.RequireAdminIdentity(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", u.ID).Int64("created_by", caller.UserID).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}

// CreateUnchecked adds an account without a caller, for operator tooling.
func (s *Service) CreateUnchecked(ctx context.Context, in CreateInput) (*User, error) {
	u, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}

func (s *Service) create(ctx context.Context, in CreateInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("email", "a valid email is required")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperr.Validation("password", fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	role := in.Role
	if role == "" {
		role = auth.RoleUser
	}
	if !role.Valid() {
		return nil, apperr.Validation("role", fmt.Sprintf("unknown role %q", in.Role))
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := &User{Email: email, PasswordHash: hash, Role: role, Active: true}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, u)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("a user with this email already exists")
		}
		return nil, err
	}
	return u, nil
}

// Deactivate blocks future logins of user id. Tokens already issued stay
// valid until they expire.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	caller, err := auth.RequireAdminIdentity(ctx)
	if err != nil {
		return err
	}
	if caller.UserID == id {
		return apperr.Validation("id", "administrators cannot deactivate themselves")
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.SetActive(ctx, id, false)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Int64("deactivated_by", caller.UserID).Msg("user deactivated")
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	if _, err := auth.RequireAdminIdentity(ctx); err != nil {
		return nil, 0, err
	}
	var (
		users []*User
		total int
	)
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		users, total, err = s.repo.List(ctx, limit, offset)
		return err
	})
	return users, total, err
}

// Me returns the account of the caller.
func (s *Service) Me(ctx context.Context) (*User, error) {
	id, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	var u *User
	err = s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.repo.GetByID(ctx, id.UserID)
		return err
	})
	return u, err
}

// EnsureAdmin creates the bootstrap administrator unless an account with
// email already exists. It reports whether an account was created. The
// lookup and the insert run in separate transactions.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.byEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}

	_, err = s.create(ctx, CreateInput{Email: email, Password: password, Role: auth.RoleAdmin})
	if errors.Is(err, apperr.ErrConflict) {
		// Another instance bootstrapped first.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.Info().Str("email", normalizeEmail(email)).Msg("bootstrap administrator created")
	return true, nil
}

func (s *Service) byEmail(ctx context.Context, email string) (*User, error) {
	var u *User
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.repo.GetByEmail(ctx, normalizeEmail(email))
		return err
	})
	return u, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
