package tokens

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/state"
	"github.com/alphabill-org/assetswap/internal/types"
)

type (
	// assetData is the unit data of an asset, the holder is the owner of the unit.
	assetData struct {
		_       struct{} `cbor:",toarray"`
		AssetID *uint256.Int
		URI     string
		// Approved is the controller allowed to transfer this asset, zero if none.
		Approved types.Address
	}

	// operatorData marks the operator as approved to transfer all assets of the holder.
	operatorData struct {
		_        struct{} `cbor:",toarray"`
		Operator types.Address
	}
)

func (a *assetData) Copy() state.UnitData {
	return &assetData{
		AssetID:  types.CloneOrZero(a.AssetID),
		URI:      a.URI,
		Approved: a.Approved,
	}
}

func (o *operatorData) Copy() state.UnitData {
	return &operatorData{Operator: o.Operator}
}

// NewUnitData creates an empty unit data structure for the registry units, used when loading the state from disk.
func NewUnitData(id types.UnitID) (state.UnitData, error) {
	switch {
	case id.HasType(types.AssetUnitType):
		return &assetData{}, nil
	case id.HasType(types.OperatorUnitType):
		return &operatorData{}, nil
	}
	return nil, fmt.Errorf("unknown registry unit type in %s", id)
}
