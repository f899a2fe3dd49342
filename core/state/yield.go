package state

import (
	"github.com/ethereum/go-ethereum/common"

	"yieldchain/native/farm"
	"yieldchain/native/ferment"
)

// Head is the height and timestamp the engines were last driven at.
type Head struct {
	Height uint64
	Time   uint64
}

// HeadGet returns the stored chain head.
func (m *Manager) HeadGet() (Head, error) {
	var head Head
	if _, err := m.KVGet(chainHeadKey, &head); err != nil {
		return Head{}, err
	}
	return head, nil
}

// HeadPut records the chain head.
func (m *Manager) HeadPut(head Head) error {
	return m.KVPut(chainHeadKey, head)
}

func (m *Manager) FarmScheduleGet() (*farm.EmissionSchedule, bool, error) {
	schedule := new(farm.EmissionSchedule)
	ok, err := m.KVGet(farmScheduleKey, schedule)
	if err != nil || !ok {
		return nil, false, err
	}
	return schedule, true, nil
}

func (m *Manager) FarmSchedulePut(schedule *farm.EmissionSchedule) error {
	return m.KVPut(farmScheduleKey, schedule)
}

func (m *Manager) FarmPoolGet() (*farm.PoolState, bool, error) {
	pool := new(farm.PoolState)
	ok, err := m.KVGet(farmPoolKey, pool)
	if err != nil || !ok {
		return nil, false, err
	}
	return pool, true, nil
}

func (m *Manager) FarmPoolPut(pool *farm.PoolState) error {
	return m.KVPut(farmPoolKey, pool)
}

func (m *Manager) FarmStakeGet(addr common.Address) (*farm.ParticipantStake, bool, error) {
	stake := new(farm.ParticipantStake)
	ok, err := m.KVGet(farmStakeKey(addr), stake)
	if err != nil || !ok {
		return nil, false, err
	}
	return stake, true, nil
}

// FarmStakePut stores the position, deleting it once fully withdrawn.
func (m *Manager) FarmStakePut(addr common.Address, stake *farm.ParticipantStake) error {
	if stake.IsZero() {
		return m.KVDelete(farmStakeKey(addr))
	}
	return m.KVPut(farmStakeKey(addr), stake)
}

func (m *Manager) FermentAssetGet(id uint64) (*ferment.AssetRecord, bool, error) {
	record := new(ferment.AssetRecord)
	ok, err := m.KVGet(fermentAssetKey(id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

func (m *Manager) FermentAssetPut(record *ferment.AssetRecord) error {
	return m.KVPut(fermentAssetKey(record.ID), record)
}

func (m *Manager) FermentOwnerCount(owner common.Address) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(fermentOwnerKey(owner), &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (m *Manager) FermentSetOwnerCount(owner common.Address, count uint64) error {
	return m.KVPut(fermentOwnerKey(owner), count)
}

// FermentNextAssetID allocates the next identifier. Identifiers start at 1.
func (m *Manager) FermentNextAssetID() (uint64, error) {
	var last uint64
	if _, err := m.KVGet(fermentNextIDKey, &last); err != nil {
		return 0, err
	}
	next := last + 1
	if err := m.KVPut(fermentNextIDKey, next); err != nil {
		return 0, err
	}
	return next, nil
}

// FermentAssetCount reports how many identifiers were allocated.
func (m *Manager) FermentAssetCount() (uint64, error) {
	var last uint64
	if _, err := m.KVGet(fermentNextIDKey, &last); err != nil {
		return 0, err
	}
	return last, nil
}

func (m *Manager) FermentTiersGet() ([]ferment.Tier, error) {
	var tiers []ferment.Tier
	if _, err := m.KVGet(fermentTiersKey, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

func (m *Manager) FermentTiersPut(tiers []ferment.Tier) error {
	return m.KVPut(fermentTiersKey, tiers)
}

func (m *Manager) FermentParametersGet() (*ferment.Parameters, bool, error) {
	p := new(ferment.Parameters)
	ok, err := m.KVGet(fermentParamsKey, p)
	if err != nil || !ok {
		return nil, false, err
	}
	return p, true, nil
}

func (m *Manager) FermentParametersPut(p *ferment.Parameters) error {
	return m.KVPut(fermentParamsKey, p)
}

func (m *Manager) FermentTradingEnabled() (bool, error) {
	var enabled bool
	if _, err := m.KVGet(fermentTradingKey, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (m *Manager) FermentSetTradingEnabled(enabled bool) error {
	return m.KVPut(fermentTradingKey, enabled)
}
