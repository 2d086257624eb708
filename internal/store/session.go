// Package store implements the file-backed memory of spec §6: session
// memory and user preference memory, each a single JSON file updated
// atomically (temp file + rename), matching the teacher's preference for
// small, mutex-guarded read-modify-write stores over an external database.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"eventweave.app/planner/internal/model"
)

// SessionRecord is the persisted shape of one session within
// session_memory.json.
type SessionRecord struct {
	UserID         string            `json:"user_id"`
	Beliefs        model.BeliefState `json:"beliefs"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivity   time.Time         `json:"last_activity"`
	Status         string            `json:"status"` // active | inactive | archived
	ArchivedAt     *time.Time        `json:"archived_at,omitempty"`
	InactivatedAt  *time.Time        `json:"inactivated_at,omitempty"`
}

const (
	SessionActive   = "active"
	SessionInactive = "inactive"
	SessionArchived = "archived"
)

// SessionMemory is a mutex-guarded, atomically-persisted
// map<session_id, SessionRecord>.
type SessionMemory struct {
	mu      sync.Mutex
	path    string
	records map[string]SessionRecord
}

// NewSessionMemory loads path if it exists, or starts empty.
func NewSessionMemory(path string) (*SessionMemory, error) {
	m := &SessionMemory{path: path, records: make(map[string]SessionRecord)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, fmt.Errorf("store: load session memory: %w", err)
	}
	if err := json.Unmarshal(data, &m.records); err != nil {
		return m, fmt.Errorf("store: parse session memory: %w", err)
	}
	return m, nil
}

func (m *SessionMemory) Get(sessionID string) (SessionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[sessionID]
	return r, ok
}

// Put upserts a session record and persists the whole store.
func (m *SessionMemory) Put(sessionID string, record SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[sessionID] = record
	return m.saveLocked()
}

// Touch updates last_activity and beliefs for an existing session without
// disturbing its created_at/status.
func (m *SessionMemory) Touch(sessionID string, beliefs model.BeliefState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[sessionID]
	if !ok {
		return fmt.Errorf("store: unknown session %q", sessionID)
	}
	r.Beliefs = beliefs
	r.LastActivity = time.Now().UTC()
	m.records[sessionID] = r
	return m.saveLocked()
}

// SetStatus transitions a session's status, stamping the matching
// archived_at/inactivated_at field.
func (m *SessionMemory) SetStatus(sessionID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[sessionID]
	if !ok {
		return fmt.Errorf("store: unknown session %q", sessionID)
	}
	now := time.Now().UTC()
	r.Status = status
	switch status {
	case SessionArchived:
		r.ArchivedAt = &now
	case SessionInactive:
		r.InactivatedAt = &now
	}
	m.records[sessionID] = r
	return m.saveLocked()
}

func (m *SessionMemory) saveLocked() error {
	return writeAtomicJSON(m.path, m.records)
}

func writeAtomicJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: rename temp file: %w", err)
	}
	return nil
}
