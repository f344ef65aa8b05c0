package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AdminSubject is the token subject of the shared admin identity
	AdminSubject = "admin"
	// DefaultTokenTTL is how long an admin token stays valid
	DefaultTokenTTL = 12 * time.Hour
	tokenIssuer     = "membership-backend"
)

var (
	// ErrInvalidCredentials is returned when the admin secret does not match
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, expired or foreign tokens
	ErrInvalidToken = errors.New("invalid token")
)

// Config holds the admin credential settings
type Config struct {
	PasswordHash string
	TokenSecret  string
	TokenTTL     time.Duration
}

// NewConfig reads the admin credential settings from the environment
func NewConfig() Config {
	return Config{
		PasswordHash: utils.GetEnvOrDefault("ADMIN_PASSWORD_HASH", ""),
		TokenSecret:  utils.GetEnvOrDefault("ADMIN_TOKEN_SECRET", ""),
		TokenTTL:     utils.GetEnvDurationOrDefault("ADMIN_TOKEN_TTL", DefaultTokenTTL),
	}
}

// Validate checks that both the hash and the signing secret are present
func (c Config) Validate() error {
	if c.PasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH environment variable is required")
	}
	if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}
	if len(c.TokenSecret) < 16 {
		return fmt.Errorf("ADMIN_TOKEN_SECRET must be at least 16 characters")
	}
	return nil
}

// Authenticator checks the shared admin secret and issues admin session tokens
type Authenticator struct {
	passwordHash []byte
	tokenSecret  []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

// NewAuthenticator creates an authenticator from a validated config
func NewAuthenticator(config Config) (*Authenticator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ttl := config.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		passwordHash: []byte(config.PasswordHash),
		tokenSecret:  []byte(config.TokenSecret),
		tokenTTL:     ttl,
		now:          time.Now,
	}, nil
}

// Verify compares password against the stored bcrypt hash
func (a *Authenticator) Verify(password string) error {
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken signs a new admin token and returns it with its expiry
func (a *Authenticator) IssueToken() (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   AdminSubject,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.tokenSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken validates the signature, expiry, issuer and subject of an admin token
func (a *Authenticator) ParseToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.tokenSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(AdminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
