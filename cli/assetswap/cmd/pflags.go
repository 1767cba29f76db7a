package cmd

import (
	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/types"
)

// uint256Value is a decimal (or 0x prefixed hex) cli flag, implements github.com/spf13/pflag/flag.go#Value interface
type uint256Value struct {
	v *uint256.Int
}

func newUint256Value(v *uint256.Int) *uint256Value {
	return &uint256Value{v: v}
}

func (u *uint256Value) String() string {
	if u.v == nil {
		return ""
	}
	return types.FormatUint256(u.v)
}

func (u *uint256Value) Set(s string) error {
	v, err := types.ParseUint256(s)
	if err != nil {
		return err
	}
	u.v = v
	return nil
}

func (u *uint256Value) Type() string {
	return "uint256"
}

// Value returns zero when the flag was not set.
func (u *uint256Value) Value() *uint256.Int {
	return types.CloneOrZero(u.v)
}

// addressValue is a 0x prefixed hex encoded address cli flag
type addressValue struct {
	v types.Address
}

func (a *addressValue) String() string {
	if types.IsZeroAddress(a.v) {
		return ""
	}
	return a.v.Hex()
}

func (a *addressValue) Set(s string) error {
	v, err := types.ParseAddress(s)
	if err != nil {
		return err
	}
	a.v = v
	return nil
}

func (a *addressValue) Type() string {
	return "address"
}

func (a *addressValue) Value() types.Address {
	return a.v
}
