// Package auth implements admin credential checks and session issuance on
// top of the key-value store.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/site-edge-go/internal/handlers"
	"github.com/serroba/site-edge-go/internal/kvstore"
	"go.uber.org/zap"
)

const (
	credentialsKey   = "auth:admin"
	sessionKeyPrefix = "auth:session:"
	sessionTTL       = 24 * time.Hour
)

type credentials struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Service issues admin sessions. Credentials are provisioned once through
// Setup and never expire; sessions live in the store with a TTL.
type Service struct {
	store    kvstore.Store
	newToken func() string
	logger   *zap.Logger
}

// New creates an auth service. newToken generates opaque session tokens.
func New(store kvstore.Store, newToken func() string, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		newToken: newToken,
		logger:   logger,
	}
}

// Authenticate verifies credentials and returns a fresh session token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	raw, err := s.store.Get(ctx, credentialsKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			// Nothing provisioned yet; indistinguishable from a bad login
			// on purpose.
			return "", handlers.ErrInvalidCredentials
		}

		return "", fmt.Errorf("load credentials: %w", err)
	}

	var stored credentials
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return "", fmt.Errorf("decode credentials: %w", err)
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(stored.Email), []byte(email))
	passwordMatch := subtle.ConstantTimeCompare([]byte(stored.PasswordHash), []byte(hashPassword(password)))

	if emailMatch&passwordMatch != 1 {
		return "", handlers.ErrInvalidCredentials
	}

	token := s.newToken()

	err = s.store.Put(ctx, sessionKeyPrefix+token, stored.Email, kvstore.PutOptions{TTL: sessionTTL})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// Setup provisions the admin account. It refuses to run twice.
func (s *Service) Setup(ctx context.Context, email, password string) error {
	_, err := s.store.Get(ctx, credentialsKey)
	if err == nil {
		return handlers.ErrAlreadyProvisioned
	}

	if !errors.Is(err, kvstore.ErrNotFound) {
		return fmt.Errorf("check credentials: %w", err)
	}

	raw, err := json.Marshal(credentials{
		Email:        email,
		PasswordHash: hashPassword(password),
	})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := s.store.Put(ctx, credentialsKey, string(raw), kvstore.PutOptions{}); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	s.logger.Info("admin account provisioned")

	return nil
}

// ValidateSession reports whether the token belongs to a live session and
// returns the admin email it was issued to.
func (s *Service) ValidateSession(ctx context.Context, token string) (string, error) {
	email, err := s.store.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return "", handlers.ErrInvalidCredentials
		}

		return "", fmt.Errorf("load session: %w", err)
	}

	return email, nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))

	return hex.EncodeToString(sum[:])
}

// Compile-time check.
var _ handlers.AuthService = (*Service)(nil)
