package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

const apiKeyPrefix = "lf_"

var ErrInvalidAPIKey = errors.New("invalid API key")

type apiKeyStore interface {
	Create(key *models.APIKey) error
	GetByPrefix(prefix string) (*models.APIKey, error)
	TouchLastUsed(id string, at time.Time) error
}

// APIKeyService issues and validates workspace API keys. Keys look
// like lf_<prefix>_<secret>; only a bcrypt hash of the secret is
// stored, the prefix exists purely for O(1) lookup.
type APIKeyService struct {
	keyRepo apiKeyStore
}

func NewAPIKeyService(keyRepo apiKeyStore) *APIKeyService {
	return &APIKeyService{keyRepo: keyRepo}
}

// Generate mints a new API key for a workspace. The full key is
// returned exactly once; it cannot be recovered later.
func (s *APIKeyService) Generate(workspaceID string) (string, *models.APIKey, error) {
	prefix, err := randomHex(6)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key prefix: %w", err)
	}
	secret, err := randomHex(24)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key secret: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash key secret: %w", err)
	}

	key := &models.APIKey{
		WorkspaceID: workspaceID,
		KeyPrefix:   prefix,
		KeyHash:     string(hash),
	}
	if err := s.keyRepo.Create(key); err != nil {
		return "", nil, fmt.Errorf("failed to store API key: %w", err)
	}

	logrus.Infof("Issued API key %s for workspace %s", prefix, workspaceID)
	return apiKeyPrefix + prefix + "_" + secret, key, nil
}

// Validate resolves a presented key to its workspace. All failure
// modes collapse into ErrInvalidAPIKey so callers leak nothing about
// which part was wrong.
func (s *APIKeyService) Validate(presented string) (*models.Workspace, error) {
	raw, ok := strings.CutPrefix(presented, apiKeyPrefix)
	if !ok {
		return nil, ErrInvalidAPIKey
	}
	prefix, secret, ok := strings.Cut(raw, "_")
	if !ok || prefix == "" || secret == "" {
		return nil, ErrInvalidAPIKey
	}

	key, err := s.keyRepo.GetByPrefix(prefix)
	if err != nil {
		return nil, ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(secret)); err != nil {
		return nil, ErrInvalidAPIKey
	}

	if err := s.keyRepo.TouchLastUsed(key.ID, time.Now()); err != nil {
		logrus.Warnf("Failed to touch last_used_at for key %s: %v", key.KeyPrefix, err)
	}
	return &key.Workspace, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
