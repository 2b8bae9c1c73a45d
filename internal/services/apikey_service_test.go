package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

type fakeKeyStore struct {
	keys map[string]*models.APIKey // by prefix
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{keys: make(map[string]*models.APIKey)}
}

func (f *fakeKeyStore) Create(key *models.APIKey) error {
	key.ID = "key-" + key.KeyPrefix
	key.Workspace = models.Workspace{ID: key.WorkspaceID, Name: "Test Workspace"}
	f.keys[key.KeyPrefix] = key
	return nil
}

func (f *fakeKeyStore) GetByPrefix(prefix string) (*models.APIKey, error) {
	if k, ok := f.keys[prefix]; ok {
		return k, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeKeyStore) TouchLastUsed(id string, at time.Time) error {
	for _, k := range f.keys {
		if k.ID == id {
			k.LastUsedAt = &at
		}
	}
	return nil
}

func TestGenerateAndValidate(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store)

	fullKey, key, err := svc.Generate("ws-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(fullKey, "lf_"))
	assert.NotContains(t, key.KeyHash, strings.Split(fullKey, "_")[2],
		"the secret must never be stored in the clear")

	workspace, err := svc.Validate(fullKey)
	require.NoError(t, err)
	assert.Equal(t, "ws-1", workspace.ID)

	// Validation touches last_used_at
	assert.NotNil(t, store.keys[key.KeyPrefix].LastUsedAt)
}

func TestValidateRejectsTamperedSecret(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store)

	fullKey, _, err := svc.Generate("ws-1")
	require.NoError(t, err)

	tampered := fullKey + "0"
	_, err = svc.Validate(tampered)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestValidateRejectsMalformedKeys(t *testing.T) {
	svc := NewAPIKeyService(newFakeKeyStore())

	for _, key := range []string{
		"",
		"not-a-key",
		"lf_",
		"lf_prefixonly",
		"lf__secretwithoutprefix",
		"sk_wrongscheme_abc",
	} {
		_, err := svc.Validate(key)
		assert.ErrorIs(t, err, ErrInvalidAPIKey, "key %q", key)
	}
}

func TestValidateUnknownPrefix(t *testing.T) {
	svc := NewAPIKeyService(newFakeKeyStore())

	_, err := svc.Validate("lf_deadbeef_cafecafecafecafecafecafecafecafe")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestGeneratedKeysAreUnique(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store)

	k1, _, err := svc.Generate("ws-1")
	require.NoError(t, err)
	k2, _, err := svc.Generate("ws-1")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}
