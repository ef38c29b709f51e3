package cartstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ScopeStore persists the (tenant, table-code-or-actor) → cart-id mapping so
// a returning session resumes the correct cart. Keys are namespaced per
// tenant and per table/actor so shared devices never leak carts across
// customers.
type ScopeStore interface {
	Load(key string) (uuid.UUID, bool)
	Save(key string, cartID uuid.UUID) error
	Clear(key string) error
}

// ScopeKey builds the persistence key for a cart scope. The table code wins
// over the actor id when both are present: everyone at a table shares one
// cart.
func ScopeKey(tenantID uuid.UUID, tableCode, actorID string) string {
	if tableCode != "" {
		return fmt.Sprintf("%s/table/%s", tenantID, tableCode)
	}
	if actorID != "" {
		return fmt.Sprintf("%s/actor/%s", tenantID, actorID)
	}
	return fmt.Sprintf("%s/anonymous", tenantID)
}

// MemoryScopeStore keeps scope mappings in process memory. Suitable for
// tests and short-lived processes.
type MemoryScopeStore struct {
	mu   sync.Mutex
	data map[string]uuid.UUID
}

// NewMemoryScopeStore creates an empty in-memory scope store
func NewMemoryScopeStore() *MemoryScopeStore {
	return &MemoryScopeStore{data: make(map[string]uuid.UUID)}
}

func (s *MemoryScopeStore) Load(key string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.data[key]
	return id, ok
}

func (s *MemoryScopeStore) Save(key string, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cartID
	return nil
}

func (s *MemoryScopeStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// FileScopeStore persists scope mappings as a JSON file so they survive
// process restarts.
type FileScopeStore struct {
	mu   sync.Mutex
	path string
}

// NewFileScopeStore creates a scope store backed by the given file path
func NewFileScopeStore(path string) *FileScopeStore {
	return &FileScopeStore{path: path}
}

func (s *FileScopeStore) Load(key string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.read()
	id, ok := data[key]
	return id, ok
}

func (s *FileScopeStore) Save(key string, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.read()
	data[key] = cartID
	return s.write(data)
}

func (s *FileScopeStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.read()
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.write(data)
}

func (s *FileScopeStore) read() map[string]uuid.UUID {
	out := make(map[string]uuid.UUID)
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return out
	}
	// A corrupt file is treated as empty; the next save rewrites it.
	_ = json.Unmarshal(raw, &out)
	return out
}

func (s *FileScopeStore) write(data map[string]uuid.UUID) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
