package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ParseUint256 parses a decimal or 0x prefixed hex string into a 256 bit unsigned integer.
// Asset identifiers and amounts share this format.
func ParseUint256(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty value")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := uint256.FromHex(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex value %q: %w", s, err)
		}
		return v, nil
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal value %q", s)
	}
	if b.Sign() < 0 {
		return nil, fmt.Errorf("negative value %q", s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("value %q does not fit into 256 bits", s)
	}
	return v, nil
}

// FormatUint256 returns the decimal representation, "0" for nil.
func FormatUint256(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.ToBig().String()
}

// IsZero returns true for nil and zero values.
func IsZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

// CloneOrZero returns a copy of v or a new zero value when v is nil.
func CloneOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return v.Clone()
}
