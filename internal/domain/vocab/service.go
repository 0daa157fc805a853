package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mdt/mdt/internal/domain/mdt"
	"github.com/mdt/mdt/internal/platform/apperr"
	"github.com/mdt/mdt/internal/platform/auth"
	"github.com/mdt/mdt/internal/platform/db"
)

type Service struct {
	repo   Repository
	tx     db.Transactor
	logger zerolog.Logger
}

func NewService(repo Repository, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tx: tx, logger: logger.With().Str("component", "vocab").Logger()}
}

// List returns the entries of v. kind filters report types and is ignored
// for the other lists.
func (s *Service) List(ctx context.Context, v Vocabulary, kind string) ([]*Term, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	if !v.Valid() {
		return nil, apperr.NotFound("vocabulary", string(v))
	}
	kind = strings.TrimSpace(kind)
	if v != ReportTypes {
		kind = ""
	} else if kind != "" && !mdt.ReportKind(kind).Valid() {
		return nil, apperr.Validation("kind", fmt.Sprintf("unknown report kind %q", kind))
	}

	var terms []*Term
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		terms, err = s.repo.List(ctx, v, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	if terms == nil {
		terms = []*Term{}
	}
	return terms, nil
}

// Add stores a new entry. Only administrators may call it.
func (s *Service) Add(ctx context.Context, v Vocabulary, in TermInput) (*Term, error) {
	caller, err := auth.RequireAdminIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !v.Valid() {
		return nil, apperr.NotFound("vocabulary", string(v))
	}

	t := &Term{Kind: mdt.ReportKind(strings.TrimSpace(in.Kind)), Name: strings.TrimSpace(in.Name)}
	if err := v.check(t); err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Add(ctx, v, t)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict(fmt.Sprintf("%q is already in %s", t.Name, v))
		}
		return nil, err
	}

	s.logger.Info().Str("vocabulary", string(v)).Int64("id", t.ID).Int64("user_id", caller.UserID).Msg("vocabulary entry added")
	return t, nil
}

// Delete removes an entry. Only administrators may call it.
func (s *Service) Delete(ctx context.Context, v Vocabulary, id int64) error {
	caller, err := auth.RequireAdminIdentity(ctx)
	if err != nil {
		return err
	}
	if !v.Valid() {
		return apperr.NotFound("vocabulary", string(v))
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, v, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("vocabulary", string(v)).Int64("id", id).Int64("user_id", caller.UserID).Msg("vocabulary entry deleted")
	return nil
}
