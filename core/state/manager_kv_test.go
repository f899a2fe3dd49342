package state

import (
	"errors"
	"testing"

	"yieldchain/storage"
)

type kvRecord struct {
	Name  string
	Count uint64
}

func TestKVRoundTripInsideAtomic(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	mgr := NewManager(db)

	err := mgr.Atomic(func(m *Manager) error {
		if err := m.KVPut([]byte("cask/1"), kvRecord{Name: "amber", Count: 3}); err != nil {
			return err
		}
		var got kvRecord
		ok, err := m.KVGet([]byte("cask/1"), &got)
		if err != nil {
			return err
		}
		if !ok || got.Count != 3 {
			t.Fatalf("journal read mismatch: ok=%v got=%+v", ok, got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}

	var got kvRecord
	err = mgr.View(func(m *Manager) error {
		ok, err := m.KVGet([]byte("cask/1"), &got)
		if !ok {
			t.Fatalf("expected committed record")
		}
		return err
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if got.Name != "amber" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestKVWritesOutsideAtomicAreRejected(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	if err := mgr.KVPut([]byte("loose"), uint64(1)); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	err := mgr.View(func(m *Manager) error {
		return m.ParamStoreSet("x", []byte("1"))
	})
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly from view, got %v", err)
	}
	if _, err := mgr.KVGet(nil, nil); err == nil {
		t.Fatalf("expected empty key error")
	}
}

func TestKVDeleteInsideAtomic(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	if err := mgr.Atomic(func(m *Manager) error { return m.KVPut([]byte("k"), uint64(9)) }); err != nil {
		t.Fatalf("put: %v", err)
	}
	err := mgr.Atomic(func(m *Manager) error {
		if err := m.KVDelete([]byte("k")); err != nil {
			return err
		}
		ok, err := m.KVGet([]byte("k"), nil)
		if ok {
			t.Fatalf("deleted key still visible in journal")
		}
		return err
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err := mgr.KVGet([]byte("k"), nil)
	if err != nil || ok {
		t.Fatalf("expected key gone, ok=%v err=%v", ok, err)
	}
}
