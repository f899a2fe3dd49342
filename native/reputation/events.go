package reputation

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"yieldchain/core/types"
)

const (
	// EventTypeScoreUpdated is emitted when an account's score is overwritten.
	EventTypeScoreUpdated = "reputation.scoreUpdated"
)

// NewScoreUpdatedEvent returns the canonical event payload for a score update.
func NewScoreUpdatedEvent(addr common.Address, record *Record) *types.Event {
	attrs := map[string]string{"account": addr.Hex()}
	if record != nil {
		attrs["score"] = strconv.FormatUint(record.Score, 10)
		attrs["updatedAt"] = strconv.FormatUint(record.UpdatedAt, 10)
	}
	return &types.Event{Type: EventTypeScoreUpdated, Attributes: attrs}
}
