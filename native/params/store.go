package params

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StoreState captures the subset of state manager capabilities required by the
// parameter helpers.
type StoreState interface {
	ParamStoreSet(name string, value []byte) error
	ParamStoreGet(name string) ([]byte, bool, error)
}

// Pauses maps module names to their pause toggle.
type Pauses map[string]bool

// IsPaused implements the pause view consumed by the engines.
func (p Pauses) IsPaused(module string) bool { return p[module] }

// Store provides typed accessors for operator-controlled parameters.
type Store struct {
	state StoreState
}

// NewStore constructs a parameter store wrapper using the supplied state
// backend.
func NewStore(state StoreState) *Store {
	return &Store{state: state}
}

func (s *Store) withState() (StoreState, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("params: state not configured")
	}
	return s.state, nil
}

// SetPauses persists the supplied pause configuration under the canonical
// parameter store key. Values are marshalled as JSON.
func (s *Store) SetPauses(pauses Pauses) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(pauses)
	if err != nil {
		return fmt.Errorf("params: encode pauses: %w", err)
	}
	return state.ParamStoreSet(ParamsKeyPauses, encoded)
}

// Pauses loads the persisted pause configuration. When unset, an empty
// configuration is returned.
func (s *Store) Pauses() (Pauses, error) {
	state, err := s.withState()
	if err != nil {
		return nil, err
	}
	raw, ok, err := state.ParamStoreGet(ParamsKeyPauses)
	if err != nil {
		return nil, err
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return Pauses{}, nil
	}
	var pauses Pauses
	if err := json.Unmarshal(raw, &pauses); err != nil {
		return nil, fmt.Errorf("params: decode pauses: %w", err)
	}
	return pauses, nil
}

// SetSettings validates and persists the yield settings.
func (s *Store) SetSettings(settings Settings) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	encoded, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("params: encode settings: %w", err)
	}
	return state.ParamStoreSet(ParamsKeySettings, encoded)
}

// Settings loads the persisted yield settings.
func (s *Store) Settings() (Settings, error) {
	state, err := s.withState()
	if err != nil {
		return Settings{}, err
	}
	raw, ok, err := state.ParamStoreGet(ParamsKeySettings)
	if err != nil {
		return Settings{}, err
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return Settings{}, ErrSettingsUnset
	}
	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("params: decode settings: %w", err)
	}
	return settings, nil
}
