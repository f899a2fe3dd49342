package common

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/holiman/uint256"
)

const (
	// BasisPoints is the denominator for every rate expressed in bps.
	BasisPoints uint32 = 10_000
	// SecondsPerDay converts daily yield rates into per-second rates.
	SecondsPerDay uint64 = 86_400
)

var (
	// AccScale is the fixed-point factor applied to per-share accumulators.
	AccScale = big.NewInt(1_000_000_000_000)

	ErrOverflow       = errors.New("fixed point: value exceeds 256 bits")
	ErrDivideByZero   = errors.New("fixed point: division by zero")
	ErrNegative       = errors.New("fixed point: negative operand")
	ErrBpsOutOfBounds = fmt.Errorf("fixed point: basis points exceed %d", BasisPoints)
)

// MulDiv returns floor(a*b/d) computed in 256-bit arithmetic. The intermediate
// product may use up to 512 bits; only the quotient must fit in 256.
func MulDiv(a, b, d *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	z, err := toU256(d)
	if err != nil {
		return nil, err
	}
	if z.IsZero() {
		return nil, ErrDivideByZero
	}
	out, overflow := new(uint256.Int).MulDivOverflow(x, y, z)
	if overflow {
		return nil, ErrOverflow
	}
	return out.ToBig(), nil
}

// Mul returns a*b, failing when the product does not fit in 256 bits.
func Mul(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	out, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return out.ToBig(), nil
}

// ApplyBps returns floor(amount*bps/10000).
func ApplyBps(amount *big.Int, bps uint32) (*big.Int, error) {
	if bps > BasisPoints {
		return nil, ErrBpsOutOfBounds
	}
	if amount == nil || amount.Sign() == 0 || bps == 0 {
		return big.NewInt(0), nil
	}
	return MulDiv(amount, big.NewInt(int64(bps)), big.NewInt(int64(BasisPoints)))
}

// StepIndex returns the greatest index i such that thresholds[i] <= value.
// Thresholds must be sorted in strictly increasing order. When value is below
// every threshold the first index is returned.
func StepIndex(thresholds []*big.Int, value *big.Int) int {
	if len(thresholds) == 0 {
		return 0
	}
	v := value
	if v == nil {
		v = new(big.Int)
	}
	idx := sort.Search(len(thresholds), func(i int) bool {
		return thresholds[i].Cmp(v) > 0
	})
	if idx == 0 {
		return 0
	}
	return idx - 1
}

// CopyBig returns a copy of v, mapping nil to zero.
func CopyBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// MinBig returns a copy of the smaller operand.
func MinBig(a, b *big.Int) *big.Int {
	if CopyBig(a).Cmp(CopyBig(b)) <= 0 {
		return CopyBig(a)
	}
	return CopyBig(b)
}

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, ErrNegative
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}
