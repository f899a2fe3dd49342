package farm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type fileSchedule struct {
	PerBlockRate         string `json:"perBlockRate" toml:"perBlockRate" yaml:"perBlockRate"`
	StartHeight          uint64 `json:"startHeight" toml:"startHeight" yaml:"startHeight"`
	FirstPhaseEndHeight  uint64 `json:"firstPhaseEndHeight" toml:"firstPhaseEndHeight" yaml:"firstPhaseEndHeight"`
	SecondPhaseEndHeight uint64 `json:"secondPhaseEndHeight" toml:"secondPhaseEndHeight" yaml:"secondPhaseEndHeight"`
	FinalEndHeight       uint64 `json:"finalEndHeight" toml:"finalEndHeight" yaml:"finalEndHeight"`
	FirstMultiplier      uint64 `json:"firstMultiplier" toml:"firstMultiplier" yaml:"firstMultiplier"`
	SecondMultiplier     uint64 `json:"secondMultiplier" toml:"secondMultiplier" yaml:"secondMultiplier"`
}

// LoadSchedule reads an emission schedule from a JSON, TOML or YAML file. Unknown
// fields are rejected and the result is validated before it is returned.
func LoadSchedule(path string) (*EmissionSchedule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("farm: schedule path required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("farm: read schedule: %w", err)
	}
	var parsed fileSchedule
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&parsed); err != nil {
			return nil, fmt.Errorf("farm: decode schedule json: %w", err)
		}
	case ".toml", ".tml":
		meta, err := toml.DecodeReader(bytes.NewReader(data), &parsed)
		if err != nil {
			return nil, fmt.Errorf("farm: decode schedule toml: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("farm: unknown schedule fields %v", undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&parsed); err != nil {
			return nil, fmt.Errorf("farm: decode schedule yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("farm: unsupported schedule format %q", ext)
	}
	return parsed.toSchedule()
}

func (f fileSchedule) toSchedule() (*EmissionSchedule, error) {
	rate, ok := new(big.Int).SetString(strings.TrimSpace(f.PerBlockRate), 10)
	if !ok {
		return nil, fmt.Errorf("%w: perBlockRate %q invalid", ErrInvalidSchedule, f.PerBlockRate)
	}
	schedule := &EmissionSchedule{
		PerBlockRate:         rate,
		StartHeight:          f.StartHeight,
		FirstPhaseEndHeight:  f.FirstPhaseEndHeight,
		SecondPhaseEndHeight: f.SecondPhaseEndHeight,
		FinalEndHeight:       f.FinalEndHeight,
		FirstMultiplier:      f.FirstMultiplier,
		SecondMultiplier:     f.SecondMultiplier,
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}
