package money

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/state"
	"github.com/alphabill-org/assetswap/internal/types"
)

type (
	accountData struct {
		_       struct{} `cbor:",toarray"`
		Balance *uint256.Int
	}

	// allowanceData is the amount the spender may transfer on behalf of the unit owner.
	allowanceData struct {
		_       struct{} `cbor:",toarray"`
		Spender types.Address
		Amount  *uint256.Int
	}
)

func (a *accountData) Copy() state.UnitData {
	return &accountData{Balance: types.CloneOrZero(a.Balance)}
}

func (a *allowanceData) Copy() state.UnitData {
	return &allowanceData{Spender: a.Spender, Amount: types.CloneOrZero(a.Amount)}
}

// NewUnitData creates an empty unit data structure for the ledger units, used when loading the state from disk.
func NewUnitData(id types.UnitID) (state.UnitData, error) {
	switch {
	case id.HasType(types.AccountUnitType):
		return &accountData{}, nil
	case id.HasType(types.AllowanceUnitType):
		return &allowanceData{}, nil
	}
	return nil, fmt.Errorf("unknown ledger unit type in %s", id)
}
