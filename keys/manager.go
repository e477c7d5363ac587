package keys

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/M051719/npivault/ccc/logging"
	"github.com/M051719/npivault/encryption"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

type Manager interface {
	// GetActiveKey returns the active key, generating and persisting one on first use.
	// Safe for concurrent callers; all racing callers observe the same key.
	GetActiveKey(ctx context.Context) (*SymmetricKey, error)
	// GetKeyByID resolves any key, active or retired, by its ID
	GetKeyByID(ctx context.Context, id string) (*SymmetricKey, error)
	// RotateKey retires the active key and activates a freshly generated one
	RotateKey(ctx context.Context) (*SymmetricKey, error)
	// ExportKey serializes a key to a transportable encoded form
	ExportKey(key *SymmetricKey) string
	// ImportKey is the inverse of ExportKey
	ImportKey(encoded string) (*SymmetricKey, error)
}

type keyManager struct {
	logger logging.Logger
	repo   KeyRepository
	engine encryption.Engine

	// Serializes lazy initialization and rotation so two racing callers
	// cannot both create an active key.
	mu sync.Mutex
}

func NewKeyManager(logger logging.Logger, repo KeyRepository, engine encryption.Engine) *keyManager {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &keyManager{
		logger: logger,
		repo:   repo,
		engine: engine,
	}
}

func (m *keyManager) GetActiveKey(ctx context.Context) (*SymmetricKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.repo.GetActive(ctx)
	if err != nil {
		m.logger.Error("Failed to look up active key", "error", err)
		return nil, fmt.Errorf("failed to get active key: %w", err)
	}
	if key != nil {
		return key, nil
	}

	// No key yet; lazily create one. The mutex guarantees only one caller
	// gets here with no active key present.
	m.logger.Info("No active key found, generating initial key")
	return m.createActiveKey(ctx)
}

func (m *keyManager) GetKeyByID(ctx context.Context, id string) (*SymmetricKey, error) {
	if id == "" {
		return nil, NewKeyNotFoundError(id)
	}

	key, err := m.repo.GetByID(ctx, id)
	if err != nil {
		m.logger.Error("Failed to look up key", "error", err, "key_id", id)
		return nil, fmt.Errorf("failed to get key by ID: %w", err)
	}
	if key == nil {
		return nil, NewKeyNotFoundError(id)
	}

	return key, nil
}

func (m *keyManager) RotateKey(ctx context.Context) (*SymmetricKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.repo.GetActive(ctx)
	if err != nil {
		m.logger.Error("Failed to look up active key for rotation", "error", err)
		return nil, fmt.Errorf("failed to get active key: %w", err)
	}

	// Retire the current key but keep it in the store; payloads sealed
	// under it reference it by ID and must stay decryptable.
	if current != nil {
		if err := m.repo.Retire(ctx, current.ID); err != nil {
			m.logger.Error("Failed to retire active key", "error", err, "key_id", current.ID)
			return nil, fmt.Errorf("failed to retire key: %w", err)
		}
		m.logger.Info("Retired key", "key_id", current.ID)
	}

	return m.createActiveKey(ctx)
}

// createActiveKey generates, persists and returns a new active key.
// Callers must hold the mutex.
func (m *keyManager) createActiveKey(ctx context.Context) (*SymmetricKey, error) {
	material, err := m.engine.GenerateKey()
	if err != nil {
		m.logger.Error("Failed to generate key material", "error", err)
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	key := &SymmetricKey{
		ID:        uuid.NewString(),
		Key:       material,
		Active:    true,
		CreatedAt: nowUTC(),
	}

	if err := m.repo.Add(ctx, key); err != nil {
		m.logger.Error("Failed to persist new key", "error", err)
		return nil, fmt.Errorf("failed to persist key: %w", err)
	}

	m.logger.Info("Activated new key", "key_id", key.ID)
	return key, nil
}

func (m *keyManager) ExportKey(key *SymmetricKey) string {
	return base64.StdEncoding.EncodeToString(key.Key)
}

func (m *keyManager) ImportKey(encoded string) (*SymmetricKey, error) {
	material, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, NewMalformedKeyError("invalid base64 encoding")
	}

	if len(material) != encryption.KeyLength {
		return nil, NewMalformedKeyError(fmt.Sprintf("expected %d bytes, got %d", encryption.KeyLength, len(material)))
	}

	return &SymmetricKey{
		ID:        uuid.NewString(),
		Key:       material,
		CreatedAt: nowUTC(),
	}, nil
}
