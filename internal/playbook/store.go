package playbook

import (
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps editor-saved playbook documents in memory, keyed by ID,
// with a pointer to the most recently saved one. It backs the visual editor
// only; the engine's rules always come from the Loader.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]map[string]interface{}
	currentID string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]interface{})}
}

// Save stores a document and marks it current. A document without an id
// gets a generated UUID; the (possibly assigned) ID is returned.
func (s *MemoryStore) Save(doc map[string]interface{}) string {
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.New().String()
		doc["id"] = id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc
	s.currentID = id
	return id
}

// Current returns the most recently saved document.
func (s *MemoryStore) Current() (map[string]interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID == "" {
		return nil, false
	}
	doc, ok := s.docs[s.currentID]
	return doc, ok
}

// Get returns a document by ID.
func (s *MemoryStore) Get(id string) (map[string]interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}
