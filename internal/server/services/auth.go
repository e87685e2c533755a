// Package services implements the application logic between the HTTP layer
// and the repositories. Services own transactions; repositories never start
// their own.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/myrecipe/internal/common"
	"github.com/dmitrijs2005/myrecipe/internal/dbx"
	"github.com/dmitrijs2005/myrecipe/internal/server/auth"
	"github.com/dmitrijs2005/myrecipe/internal/server/config"
	"github.com/dmitrijs2005/myrecipe/internal/server/models"
	"github.com/dmitrijs2005/myrecipe/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/myrecipe/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// timeNow is a seam for tests that need to move the clock.
var timeNow = time.Now

// AuthService implements signup, login, token refresh and logout.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.Manager
	bcryptCost  int
}

// NewAuthService wires the service to its database handle, repository factory
// and token manager.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.Manager, cfg *config.Config) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		bcryptCost:  cfg.BCryptCost,
	}
}

// generateHandle builds the public handle assigned at signup: a fixed prefix,
// the second-resolution signup timestamp, and five random digits.
func generateHandle(now time.Time) (string, error) {
	digits, err := common.MakeRandDigits(5)
	if err != nil {
		return "", err
	}
	return "user_" + now.Format("20060102150405") + digits, nil
}

func validateSignup(email, password, nickname string) error {
	if email == "" || !strings.Contains(email, "@") {
		return common.E(common.KindValidation, common.CodeValidation, "email is not valid")
	}
	if len(password) < 8 {
		return common.E(common.KindValidation, common.CodeValidation, "password must be at least 8 characters")
	}
	if nickname == "" {
		return common.E(common.KindValidation, common.CodeValidation, "nickname is required")
	}
	return nil
}

// Signup registers a new account and returns it together with a freshly
// issued token pair, so the client is signed in immediately.
func (s *AuthService) Signup(ctx context.Context, email, password, nickname string) (*models.User, *auth.TokenPair, error) {
	if err := validateSignup(email, password, nickname); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, nil, common.Wrap(common.KindInternal, common.CodeInternal, "error hashing password", err)
	}

	now := timeNow()
	handle, err := generateHandle(now)
	if err != nil {
		return nil, nil, common.Wrap(common.KindInternal, common.CodeInternal, "error generating handle", err)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, models.NewUser(strings.ToLower(email), string(hash), nickname, handle, now))
	if err != nil {
		if errors.Is(err, usersrepo.ErrDuplicateEmail) {
			return nil, nil, common.Wrap(common.KindDuplicate, common.CodeDuplicateEmail, "email is already registered", err)
		}
		// Handle collisions included: the caller retries with a fresh handle.
		return nil, nil, common.Wrap(common.KindPersistence, common.CodePersistence, "error creating user", err)
	}

	pair, err := s.issuePair(ctx, s.db, user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login verifies the password and returns the account with a new token pair.
// An unknown email and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.Unauthorized(err)
		}
		return nil, nil, common.Wrap(common.KindPersistence, common.CodePersistence, "error loading user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.Unauthorized(err)
	}

	now := timeNow()
	if err := repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, common.Wrap(common.KindPersistence, common.CodePersistence, "error recording login", err)
	}
	user.LastLoginAt = now
	user.UpdatedAt = now

	pair, err := s.issuePair(ctx, s.db, user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is minted in one transaction. Under concurrent use of the same token
// exactly one caller wins; the rest get the generic unauthorized error.
// Identity for the new pair comes from the stored row, not from the token's
// claims.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if !auth.IsRefreshToken(claims) {
		return nil, common.Unauthorized(errors.New("token is not a refresh token"))
	}

	var pair *auth.TokenPair

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)

		row, err := repo.Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.Unauthorized(err)
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if row.Expired(timeNow()) {
			return common.Unauthorized(errors.New("refresh token expired"))
		}

		// Exactly one concurrent caller deletes the row; losers see zero
		// affected rows and abort here.
		if err := repo.Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.Unauthorized(err)
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		pair, err = s.issuePair(ctx, tx, row.UserID, row.Role)
		return err
	})
	if err != nil {
		var ce *common.Error
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, common.Wrap(common.KindPersistence, common.CodePersistence, "error rotating refresh token", err)
	}

	return pair, nil
}

// Logout revokes the presented refresh token. A token that was already
// rotated or revoked has no matching row, and that is indistinguishable from
// any other bad token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return err
	}
	if !auth.IsRefreshToken(claims) {
		return common.Unauthorized(errors.New("token is not a refresh token"))
	}

	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.Unauthorized(err)
		}
		return common.Wrap(common.KindPersistence, common.CodePersistence, "error revoking refresh token", err)
	}
	return nil
}

// issuePair mints a token pair and persists the refresh half through the
// given DBTX, so callers inside a transaction keep the insert transactional.
func (s *AuthService) issuePair(ctx context.Context, db dbx.DBTX, userID, role string) (*auth.TokenPair, error) {
	pair, err := s.tokens.IssuePair(userID, role)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, common.CodeInternal, "error issuing tokens", err)
	}
	repo := s.repomanager.RefreshTokens(db)
	if err := repo.Create(ctx, userID, role, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return nil, common.Wrap(common.KindPersistence, common.CodePersistence, "error storing refresh token", err)
	}
	return pair, nil
}
