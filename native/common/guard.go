package common

import "errors"

// Module identifiers recognised by the pause guard.
const (
	ModuleFarm    = "farm"
	ModuleFerment = "ferment"
)

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a module's mutating flows are halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects mutations against a paused module. Read-only queries never
// consult the guard.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// StaticPauses is a fixed pause table, mostly useful in tests and for
// configuration-driven pauses.
type StaticPauses map[string]bool

// IsPaused implements PauseView.
func (s StaticPauses) IsPaused(module string) bool {
	if s == nil {
		return false
	}
	return s[module]
}
