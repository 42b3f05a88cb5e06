// AngelaMos | 2026
// jwt.go

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
)

const tokenTypeAuth = "auth"

// TokenManager signs HS256 tokens with the configured secret. Tokens carry
// no exp claim; age is checked against iat at verification time.
type TokenManager struct {
	key    jwk.Key
	config config.TokenConfig
	now    func() time.Time
}

func NewTokenManager(cfg config.TokenConfig) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("token secret key is empty")
	}

	key, err := jwk.Import([]byte(cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("import secret key: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	return &TokenManager{
		key:    key,
		config: cfg,
		now:    time.Now,
	}, nil
}

func (m *TokenManager) MaxAge() time.Duration {
	return m.config.MaxAge
}

func (m *TokenManager) Issue(userID int64) (string, error) {
	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(m.now()).
		Claim("type", tokenTypeAuth).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

// Verify returns the token's user id. An expired token wraps
// core.ErrTokenExpired; every other failure wraps core.ErrTokenInvalid.
func (m *TokenManager) Verify(tokenString string) (int64, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		return 0, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil ||
		tokenType != tokenTypeAuth {
		return 0, fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	issuedAt, ok := token.IssuedAt()
	if !ok || issuedAt.IsZero() {
		return 0, fmt.Errorf(
			"verify token: missing iat: %w",
			core.ErrTokenInvalid,
		)
	}

	if m.now().After(issuedAt.Add(m.config.MaxAge)) {
		return 0, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return 0, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf(
			"verify token: malformed subject: %w",
			core.ErrTokenInvalid,
		)
	}

	return userID, nil
}
