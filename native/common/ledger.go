package common

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger moves fungible balances between accounts. Transfers are all or
// nothing: on error no balance has changed.
type Ledger interface {
	Balance(token string, addr common.Address) (*big.Int, error)
	Transfer(token string, from, to common.Address, amount *big.Int) error
}
