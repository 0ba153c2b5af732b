package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"medremind/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and verifies operator access tokens. Webhook endpoints are
// authenticated by carrier signature instead and never carry these tokens.
type Manager struct {
	secret    []byte
	apiKey    string
	accessTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.OperatorAPIKey == "" {
		return nil, errors.New("OPERATOR_API_KEY is required")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Manager{
		secret:    []byte(cfg.JWTSecret),
		apiKey:    cfg.OperatorAPIKey,
		accessTTL: ttl,
	}, nil
}

// AccessTTL reports how long issued tokens stay valid.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// Claims are the only supported JWT claims shape for this service.
type Claims struct {
	jwt.RegisteredClaims

	Operator  string `json:"operator"`
	TokenType string `json:"token_type"`
}

const tokenTypeAccess = "access"

// Exchange trades the configured operator API key for an access token.
// Comparison is constant-time.
func (m *Manager) Exchange(now time.Time, apiKey, operator string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(m.apiKey)) != 1 {
		return "", errors.New("auth: invalid api key")
	}
	if operator == "" {
		operator = "operator"
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
		Operator:  operator,
		TokenType: tokenTypeAccess,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify parses and validates an access token.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.TokenType != tokenTypeAccess {
		return Claims{}, errors.New("auth: token_type mismatch")
	}
	if claims.Operator == "" {
		return Claims{}, errors.New("auth: operator missing")
	}
	return claims, nil
}
