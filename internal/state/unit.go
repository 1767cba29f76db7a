package state

import (
	"fmt"

	"github.com/alphabill-org/assetswap/internal/types"
)

type (
	// Unit is an entry of the state: an owner and the data of the unit.
	Unit struct {
		owner types.Address
		data  UnitData
	}

	// UnitData is a generic data type for the unit state.
	UnitData interface {
		Copy() UnitData
	}

	// unitRecord is the persisted form of a Unit.
	unitRecord struct {
		_     struct{} `cbor:",toarray"`
		Owner types.Address
		Data  types.RawCBOR
	}
)

func NewUnit(owner types.Address, data UnitData) *Unit {
	return &Unit{
		owner: owner,
		data:  copyData(data),
	}
}

func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	return &Unit{
		owner: u.owner,
		data:  copyData(u.data),
	}
}

func (u *Unit) Owner() types.Address {
	return u.owner
}

// Data returns a copy of the unit data, changing it does not change the state.
func (u *Unit) Data() UnitData {
	return copyData(u.data)
}

func (u *Unit) String() string {
	return fmt.Sprintf("owner=%s, data=%T", u.owner, u.data)
}

func copyData(data UnitData) UnitData {
	if data == nil {
		return nil
	}
	return data.Copy()
}
