package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	ErrInvalidTransfer     = errors.New("state: transfer amount must be non-negative")
)

// Balance returns the token balance of addr.
func (m *Manager) Balance(token string, addr common.Address) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.KVGet(balanceKey(token, addr), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// SetBalance overwrites the token balance of addr.
func (m *Manager) SetBalance(token string, addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	return m.KVPut(balanceKey(token, addr), amount)
}

// Credit mints amount of token to addr.
func (m *Manager) Credit(token string, addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	balance, err := m.Balance(token, addr)
	if err != nil {
		return err
	}
	return m.SetBalance(token, addr, balance.Add(balance, amount))
}

// Transfer moves amount of token between accounts. Nothing is written when
// the sender cannot cover the amount.
func (m *Manager) Transfer(token string, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBalance, err := m.Balance(token, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBalance, token, amount)
	}
	toBalance, err := m.Balance(token, to)
	if err != nil {
		return err
	}
	if err := m.SetBalance(token, from, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return m.SetBalance(token, to, toBalance.Add(toBalance, amount))
}
