package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/fileutil"
)

const (
	// storeFileName is the session record file inside the walletgate home.
	storeFileName = "session.json"

	// storeFilePermissions is the permission mode for the record file.
	storeFilePermissions = 0o600
)

// Record is the persisted summary of the last session. It never contains the
// wallet handle; on restart the session must be re-established by passive
// reconnection.
type Record struct {
	SessionID        string          `json:"session_id,omitempty"`
	Binding          string          `json:"binding,omitempty"`
	Account          account.Account `json:"account,omitempty"`
	Origin           Origin          `json:"origin,omitempty"`
	UserDisconnected bool            `json:"user_disconnected"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// RecordOf summarizes an established session.
func RecordOf(s *Session, now time.Time) Record {
	return Record{
		SessionID: s.ID,
		Binding:   s.Binding,
		Account:   s.Account,
		Origin:    s.Origin,
		UpdatedAt: now,
	}
}

// DisconnectedRecord returns a record marking an explicit user disconnect.
func DisconnectedRecord(now time.Time) Record {
	return Record{UserDisconnected: true, UpdatedAt: now}
}

// Empty reports whether nothing has been recorded.
func (r Record) Empty() bool {
	return r == Record{}
}

// Store persists the session record.
type Store interface {
	// Load returns the stored record, or a zero Record if none exists.
	Load() (Record, error)

	// Save replaces the stored record.
	Save(r Record) error

	// Clear removes the stored record.
	Clear() error
}

// Compile-time interface checks
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// FileStore keeps the record in a JSON file.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the default record path inside home.
func Path(home string) string {
	return filepath.Join(home, storeFileName)
}

// Load reads the record. A corrupted file is removed and reported as
// ErrSessionCorrupted.
func (s *FileStore) Load() (Record, error) {
	s.mu.RLock()
	var r Record
	err := fileutil.ReadJSON(s.path, &r)
	s.mu.RUnlock()

	if err == nil {
		return r, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, nil
	}

	// Corrupted record - clean up
	_ = s.Clear()
	return Record{}, ErrSessionCorrupted
}

// Save writes the record atomically.
func (s *FileStore) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fileutil.WriteJSON(s.path, r, storeFilePermissions)
}

// Clear removes the record file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore keeps the record in memory, for embedders without a home
// directory.
type MemoryStore struct {
	mu     sync.Mutex
	record Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored record.
func (m *MemoryStore) Load() (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record, nil
}

// Save replaces the stored record.
func (m *MemoryStore) Save(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = r
	return nil
}

// Clear removes the stored record.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = Record{}
	return nil
}
