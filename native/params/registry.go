package params

import (
	"github.com/ethereum/go-ethereum/common"
)

type classifier interface {
	ClassOf(addr common.Address, thresholds []uint64) (int, error)
}

// Registry is the read-only settings view handed to the engines. Every call
// reads the stored values so updates apply to the next operation.
type Registry struct {
	store   *Store
	classes classifier
}

// NewRegistry builds a registry over the parameter store. classes may be nil,
// in which case every owner falls into the first class.
func NewRegistry(store *Store, classes classifier) *Registry {
	return &Registry{store: store, classes: classes}
}

// Settings returns the values in effect.
func (r *Registry) Settings() (Settings, error) {
	return r.store.Settings()
}

// ClaimTaxBps returns the claim tax applied to owner, selected by the owner's
// reputation class.
func (r *Registry) ClaimTaxBps(owner common.Address) (uint32, error) {
	settings, err := r.store.Settings()
	if err != nil {
		return 0, err
	}
	class := 0
	if r.classes != nil {
		class, err = r.classes.ClassOf(owner, settings.ReputationThresholds)
		if err != nil {
			return 0, err
		}
	}
	if class >= len(settings.ClaimTaxBps) {
		class = len(settings.ClaimTaxBps) - 1
	}
	if class < 0 {
		return 0, nil
	}
	return settings.ClaimTaxBps[class], nil
}

// IsPaused reports the stored pause toggle of module. An unreadable pause
// table halts every module.
func (r *Registry) IsPaused(module string) bool {
	pauses, err := r.store.Pauses()
	if err != nil {
		return true
	}
	return pauses.IsPaused(module)
}
