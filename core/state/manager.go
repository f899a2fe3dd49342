package state

import (
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"yieldchain/storage"
)

// ErrReadOnly is returned by every write issued outside Atomic.
var ErrReadOnly = errors.New("state: write outside atomic section")

// Manager is the single writer over the key/value store. Mutations are
// buffered in a journal while an Atomic section runs and reach the database
// in one batch when the section succeeds.
type Manager struct {
	mu      sync.RWMutex
	db      storage.Database
	journal map[string]journalEntry
	order   []string
}

type journalEntry struct {
	value   []byte
	deleted bool
}

// NewManager creates a state manager over db.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Atomic runs fn with exclusive access. Writes made by fn are committed
// together when it returns nil and discarded otherwise. fn must not call
// Atomic or View.
func (m *Manager) Atomic(fn func(*Manager) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = make(map[string]journalEntry)
	m.order = nil
	defer func() {
		m.journal = nil
		m.order = nil
	}()
	if err := fn(m); err != nil {
		return err
	}
	batch := storage.NewBatch()
	for _, key := range m.order {
		entry := m.journal[key]
		if entry.deleted {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), entry.value)
	}
	if err := m.db.Write(batch); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	return nil
}

// View runs fn under the read lock. Any write attempted by fn fails with
// ErrReadOnly.
func (m *Manager) View(fn func(*Manager) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m)
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	hashed := kvKey(key)
	if m.journal != nil {
		if entry, ok := m.journal[string(hashed)]; ok {
			if entry.deleted {
				return nil, false, nil
			}
			return entry.value, true, nil
		}
	}
	data, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) put(key []byte, value []byte) error {
	return m.record(key, journalEntry{value: append([]byte(nil), value...)})
}

func (m *Manager) remove(key []byte) error {
	return m.record(key, journalEntry{deleted: true})
}

func (m *Manager) record(key []byte, entry journalEntry) error {
	if m.journal == nil {
		return ErrReadOnly
	}
	hashed := string(kvKey(key))
	if _, ok := m.journal[hashed]; !ok {
		m.order = append(m.order, hashed)
	}
	m.journal[hashed] = entry
	return nil
}

// KVPut stores the RLP encoding of value under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.put(key, encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.get(key)
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.remove(key)
}

// ParamStoreSet stores a raw parameter payload.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("params: name must not be empty")
	}
	return m.put(paramKey(name), value)
}

// ParamStoreGet loads a raw parameter payload.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("params: name must not be empty")
	}
	data, ok, err := m.get(paramKey(name))
	if err != nil || !ok {
		return nil, false, err
	}
	return append([]byte(nil), data...), true, nil
}
