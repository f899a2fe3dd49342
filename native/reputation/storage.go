package reputation

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// storage abstracts the subset of state manager functionality required by the
// reputation ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var scorePrefix = []byte("reputation/score/")

func scoreKey(addr common.Address) []byte {
	return []byte(fmt.Sprintf("%s%x", scorePrefix, addr.Bytes()))
}

var errNilStore = errors.New("reputation: storage not configured")

// Ledger persists account reputation scores and maps them onto classes.
type Ledger struct {
	store storage
	nowFn func() int64
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{
		store: store,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the wall clock stamped on updates.
func (l *Ledger) SetNowFunc(now func() int64) {
	if l == nil {
		return
	}
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// Score returns the stored record for addr. Unknown accounts score zero.
func (l *Ledger) Score(addr common.Address) (*Record, error) {
	if l == nil || l.store == nil {
		return nil, errNilStore
	}
	record := new(Record)
	ok, err := l.store.KVGet(scoreKey(addr), record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Record{}, nil
	}
	return record, nil
}

// SetScore overwrites the score of addr.
func (l *Ledger) SetScore(addr common.Address, score uint64) (*Record, error) {
	if l == nil || l.store == nil {
		return nil, errNilStore
	}
	now := l.nowFn()
	if now < 0 {
		now = 0
	}
	record := &Record{Score: score, UpdatedAt: uint64(now)}
	if err := l.store.KVPut(scoreKey(addr), record); err != nil {
		return nil, err
	}
	return record, nil
}

// ClassOf resolves the class of addr against the supplied thresholds.
func (l *Ledger) ClassOf(addr common.Address, thresholds []uint64) (int, error) {
	record, err := l.Score(addr)
	if err != nil {
		return 0, err
	}
	return Classify(record.Score, thresholds), nil
}
