package node

import (
	"fmt"

	"github.com/alphabill-org/assetswap/internal/state"
	"github.com/alphabill-org/assetswap/internal/swap"
	"github.com/alphabill-org/assetswap/internal/txsystem/money"
	"github.com/alphabill-org/assetswap/internal/txsystem/tokens"
	"github.com/alphabill-org/assetswap/internal/types"
)

// nonceData counts the transactions executed on behalf of an address.
type nonceData struct {
	_       struct{} `cbor:",toarray"`
	Counter uint64
}

func (n *nonceData) Copy() state.UnitData {
	return &nonceData{Counter: n.Counter}
}

// NewUnitData creates an empty unit data structure for any unit kept by the node.
func NewUnitData(id types.UnitID) (state.UnitData, error) {
	switch {
	case id.HasType(types.AssetUnitType), id.HasType(types.OperatorUnitType):
		return tokens.NewUnitData(id)
	case id.HasType(types.AccountUnitType), id.HasType(types.AllowanceUnitType):
		return money.NewUnitData(id)
	case id.HasType(types.SwapUnitType):
		return swap.NewUnitData(id)
	case id.HasType(types.NonceUnitType):
		return &nonceData{}, nil
	}
	return nil, fmt.Errorf("unknown unit type in %s", id)
}

func incrementNonce(caller types.Address) state.Action {
	return state.AddOrUpdateUnit(types.NewNonceUnitID(caller), caller, func(data state.UnitData) (state.UnitData, error) {
		if data == nil {
			return &nonceData{Counter: 1}, nil
		}
		n, ok := data.(*nonceData)
		if !ok {
			return nil, fmt.Errorf("unit of %s is not a nonce", caller)
		}
		n.Counter++
		return n, nil
	})
}
