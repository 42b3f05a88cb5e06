// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/persona-advice/internal/core"
	"github.com/carterperez-dev/persona-advice/internal/middleware"
)

type UserInfo struct {
	ID           int64
	Username     string
	PasswordHash string
}

type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (*UserInfo, error)
	GetByID(ctx context.Context, id int64) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type Service struct {
	tokens       *TokenManager
	userProvider UserProvider
}

func NewService(tokens *TokenManager, userProvider UserProvider) *Service {
	return &Service{
		tokens:       tokens,
		userProvider: userProvider,
	}
}

// VerifyToken also requires the subject to still exist, so a deleted user's
// outstanding tokens stop resolving.
func (s *Service) VerifyToken(ctx context.Context, token string) (int64, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return 0, err
	}

	if _, err := s.userProvider.GetByID(ctx, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, fmt.Errorf("token subject %d: %w", userID, core.ErrTokenInvalid)
		}
		return 0, fmt.Errorf("get user: %w", err)
	}

	return userID, nil
}

func (s *Service) VerifyCredentials(
	ctx context.Context,
	username, password string,
) (int64, error) {
	user, err := s.userProvider.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			return 0, core.ErrUnauthorized
		}
		return 0, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		password,
		&user.PasswordHash,
	)
	if err != nil {
		return 0, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return 0, core.ErrUnauthorized
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return user.ID, nil
}

func (s *Service) IssueToken(userID int64) (*TokenResponse, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &TokenResponse{
		AuthToken: token,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.MaxAge().Seconds()),
	}, nil
}

var _ middleware.CredentialVerifier = (*Service)(nil)
