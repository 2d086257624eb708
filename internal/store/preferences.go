package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"eventweave.app/planner/internal/model"
)

// UserPrefMemory is a mutex-guarded, atomically-persisted
// map<user_id, {category: weight}> (user_pref_memory.json).
type UserPrefMemory struct {
	mu    sync.Mutex
	path  string
	prefs map[string]map[model.Category]float64
}

func NewUserPrefMemory(path string) (*UserPrefMemory, error) {
	m := &UserPrefMemory{path: path, prefs: make(map[string]map[model.Category]float64)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, fmt.Errorf("store: load user pref memory: %w", err)
	}
	if err := json.Unmarshal(data, &m.prefs); err != nil {
		return m, fmt.Errorf("store: parse user pref memory: %w", err)
	}
	return m, nil
}

// Get returns the stored preference weights for a user, or nil if none
// exist yet (a fresh user has no history to merge against).
func (m *UserPrefMemory) Get(userID string) map[model.Category]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.prefs[userID]; ok {
		out := make(map[model.Category]float64, len(w))
		for k, v := range w {
			out[k] = v
		}
		return out
	}
	return nil
}

// Put stores a (already-normalized) weight vector for a user.
func (m *UserPrefMemory) Put(userID string, weights map[model.Category]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[userID] = weights
	return writeAtomicJSON(m.path, m.prefs)
}
