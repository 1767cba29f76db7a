package types

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

const (
	AddressLength = common.AddressLength
	// UnitPartLength is the length of the body of asset and swap unit identifiers.
	UnitPartLength = 32
	typePartLength = 1
)

// Unit type parts. The last byte of every UnitID tells which kind of unit it addresses.
var (
	AssetUnitType     = []byte{0x01}
	AccountUnitType   = []byte{0x02}
	AllowanceUnitType = []byte{0x03}
	SwapUnitType      = []byte{0x04}
	NonceUnitType     = []byte{0x05}
	OperatorUnitType  = []byte{0x06}
)

type (
	// Address identifies a holder, a spender or a swap coordinator.
	Address = common.Address

	UnitID []byte
)

// ZeroAddress is the null identity.
var ZeroAddress = Address{}

// NewUnitID creates a new UnitID consisting of a unitPart and a typePart.
func NewUnitID(unitPart []byte, typePart []byte) UnitID {
	unitID := make([]byte, 0, len(unitPart)+len(typePart))
	unitID = append(unitID, unitPart...)
	return append(unitID, typePart...)
}

// NewAssetUnitID returns the state key of the asset with given identifier.
func NewAssetUnitID(assetID *uint256.Int) UnitID {
	b := assetID.Bytes32()
	return NewUnitID(b[:], AssetUnitType)
}

// NewAccountUnitID returns the state key of the ledger account of the holder.
func NewAccountUnitID(holder Address) UnitID {
	return NewUnitID(holder.Bytes(), AccountUnitType)
}

// NewAllowanceUnitID returns the state key of the amount "spender" may move on behalf of "owner".
func NewAllowanceUnitID(owner, spender Address) UnitID {
	return NewUnitID(append(owner.Bytes(), spender.Bytes()...), AllowanceUnitType)
}

// NewOperatorUnitID returns the state key of the registry-wide operator approval.
func NewOperatorUnitID(holder, operator Address) UnitID {
	return NewUnitID(append(holder.Bytes(), operator.Bytes()...), OperatorUnitType)
}

// NewSwapUnitID returns the state key of the swap instance deployed at given address.
func NewSwapUnitID(coordinator Address) UnitID {
	return NewUnitID(coordinator.Bytes(), SwapUnitType)
}

// NewNonceUnitID returns the state key of the transaction counter of the caller.
func NewNonceUnitID(caller Address) UnitID {
	return NewUnitID(caller.Bytes(), NonceUnitType)
}

func (uid UnitID) Compare(key UnitID) int {
	return bytes.Compare(uid, key)
}

func (uid UnitID) String() string {
	return fmt.Sprintf("%X", []byte(uid))
}

func (uid UnitID) Eq(id UnitID) bool {
	return bytes.Equal(uid, id)
}

func (uid UnitID) HasType(typePart []byte) bool {
	return len(uid) > len(typePart) && bytes.HasSuffix(uid, typePart)
}

// TypePart returns the unit type part of the identifier, nil for an empty identifier.
func (uid UnitID) TypePart() []byte {
	if len(uid) < typePartLength {
		return nil
	}
	return uid[len(uid)-typePartLength:]
}

func (uid UnitID) MarshalText() ([]byte, error) {
	return []byte(hexutil.Encode(uid)), nil
}

func (uid *UnitID) UnmarshalText(src []byte) error {
	res, err := hexutil.Decode(string(src))
	if err == nil {
		*uid = res
	}
	return err
}

// ParseAddress parses a 0x prefixed hex encoded address.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return ZeroAddress, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// BytesToAddress returns the address with value b, b is cropped from the left if it is too long.
func BytesToAddress(b []byte) Address {
	return common.BytesToAddress(b)
}

// IsZeroAddress returns true for the null identity.
func IsZeroAddress(a Address) bool {
	return a == ZeroAddress
}
