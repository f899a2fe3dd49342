package state

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	paramPrefix        = []byte("params/")
	balancePrefix      = []byte("balance/")
	farmScheduleKey    = []byte("farm/schedule")
	farmPoolKey        = []byte("farm/pool")
	farmStakePrefix    = []byte("farm/stake/")
	fermentAssetPrefix = []byte("ferment/asset/")
	fermentOwnerPrefix = []byte("ferment/owner-count/")
	fermentNextIDKey   = []byte("ferment/next-id")
	fermentTiersKey    = []byte("ferment/tiers")
	fermentParamsKey   = []byte("ferment/params")
	fermentTradingKey  = []byte("ferment/trading")
	chainHeadKey       = []byte("chain/head")
)

func paramKey(name string) []byte {
	return append(append([]byte(nil), paramPrefix...), name...)
}

func balanceKey(token string, addr common.Address) []byte {
	return []byte(fmt.Sprintf("%s%s/%x", balancePrefix, strings.ToUpper(token), addr.Bytes()))
}

func farmStakeKey(addr common.Address) []byte {
	return []byte(fmt.Sprintf("%s%x", farmStakePrefix, addr.Bytes()))
}

func fermentAssetKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", fermentAssetPrefix, id))
}

func fermentOwnerKey(addr common.Address) []byte {
	return []byte(fmt.Sprintf("%s%x", fermentOwnerPrefix, addr.Bytes()))
}
