package tokens

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/assetswap/internal/keyvaluedb/memorydb"
	"github.com/alphabill-org/assetswap/internal/state"
	"github.com/alphabill-org/assetswap/internal/types"
)

var (
	admin    = types.Address{0xad}
	holderA  = types.Address{0xa}
	holderB  = types.Address{0xb}
	operator = types.Address{0xc}
	asset1   = uint256.NewInt(1)
	asset2   = uint256.NewInt(2)
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(state.NewEmptyState(), admin)
	require.NoError(t, r.AssignToken(admin, asset1, "ipfs://house/1", holderA))
	return r
}

func TestAssignToken(t *testing.T) {
	r := newTestRegistry(t)
	owner, err := r.OwnerOf(asset1)
	require.NoError(t, err)
	require.Equal(t, holderA, owner)
	uri, err := r.TokenURI(asset1)
	require.NoError(t, err)
	require.Equal(t, "ipfs://house/1", uri)

	require.ErrorIs(t, r.AssignToken(holderA, asset2, "", holderA), ErrNotAdministrator)
	require.ErrorIs(t, r.AssignToken(admin, uint256.NewInt(0), "", holderA), ErrInvalidAssetID)
	require.ErrorIs(t, r.AssignToken(admin, nil, "", holderA), ErrInvalidAssetID)
	require.ErrorIs(t, r.AssignToken(admin, asset2, "", types.ZeroAddress), ErrInvalidAddress)
	require.ErrorIs(t, r.AssignToken(admin, asset1, "", holderB), ErrAssetExists)
}

func TestOwnerOf_UnknownAsset(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.OwnerOf(asset2)
	require.ErrorIs(t, err, ErrAssetNotFound)
	_, err = r.OwnerOf(uint256.NewInt(0))
	require.ErrorIs(t, err, ErrInvalidAssetID)
	_, err = r.GetApproved(asset2)
	require.ErrorIs(t, err, ErrAssetNotFound)
}

func TestTransferCustody_ByHolder(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.TransferCustody(holderA, asset1, holderA, holderB))
	owner, err := r.OwnerOf(asset1)
	require.NoError(t, err)
	require.Equal(t, holderB, owner)
}

func TestTransferCustody_NotApproved(t *testing.T) {
	r := newTestRegistry(t)
	require.ErrorIs(t, r.TransferCustody(operator, asset1, holderA, holderB), ErrNotApproved)
	require.ErrorIs(t, r.TransferCustody(holderA, asset1, holderB, holderA), ErrHolderMismatch)
	require.ErrorIs(t, r.TransferCustody(holderA, asset1, holderA, types.ZeroAddress), ErrInvalidAddress)
	require.ErrorIs(t, r.TransferCustody(holderA, asset2, holderA, holderB), ErrAssetNotFound)
	owner, err := r.OwnerOf(asset1)
	require.NoError(t, err)
	require.Equal(t, holderA, owner)
}

func TestApprove_ControllerTransfersOnce(t *testing.T) {
	r := newTestRegistry(t)
	require.ErrorIs(t, r.Approve(holderB, asset1, operator), ErrNotOwner)
	require.ErrorIs(t, r.Approve(holderA, asset1, holderA), ErrApprovalToHolder)
	require.NoError(t, r.Approve(holderA, asset1, operator))
	approved, err := r.GetApproved(asset1)
	require.NoError(t, err)
	require.Equal(t, operator, approved)

	require.NoError(t, r.TransferCustody(operator, asset1, holderA, holderB))
	// approval is cleared by the transfer
	approved, err = r.GetApproved(asset1)
	require.NoError(t, err)
	require.Equal(t, types.ZeroAddress, approved)
	require.ErrorIs(t, r.TransferCustody(operator, asset1, holderB, holderA), ErrNotApproved)
}

func TestSetApprovalForAll(t *testing.T) {
	r := newTestRegistry(t)
	require.ErrorIs(t, r.SetApprovalForAll(holderA, holderA, true), ErrApprovalToCaller)
	require.ErrorIs(t, r.SetApprovalForAll(holderA, types.ZeroAddress, true), ErrInvalidAddress)

	require.NoError(t, r.SetApprovalForAll(holderA, operator, true))
	require.True(t, r.IsApprovedForAll(holderA, operator))
	require.False(t, r.IsApprovedForAll(operator, holderA))
	// setting the same value again is a no-op
	require.NoError(t, r.SetApprovalForAll(holderA, operator, true))

	// operator may approve others and transfer
	require.NoError(t, r.Approve(operator, asset1, holderB))
	require.NoError(t, r.TransferCustody(operator, asset1, holderA, holderB))

	require.NoError(t, r.SetApprovalForAll(holderA, operator, false))
	require.False(t, r.IsApprovedForAll(holderA, operator))
}

func TestRegistry_PersistAndRecover(t *testing.T) {
	s := state.NewEmptyState()
	r := NewRegistry(s, admin)
	require.NoError(t, r.AssignToken(admin, asset1, "uri", holderA))
	require.NoError(t, r.SetApprovalForAll(holderA, operator, true))
	require.NoError(t, r.Approve(holderA, asset1, holderB))

	db := memorydb.New()
	require.NoError(t, s.Commit(db))

	recovered, err := state.NewRecoveredState(db, NewUnitData)
	require.NoError(t, err)
	r2 := NewRegistry(recovered, admin)
	owner, err := r2.OwnerOf(asset1)
	require.NoError(t, err)
	require.Equal(t, holderA, owner)
	approved, err := r2.GetApproved(asset1)
	require.NoError(t, err)
	require.Equal(t, holderB, approved)
	require.True(t, r2.IsApprovedForAll(holderA, operator))
}

func TestNewUnitData_UnknownType(t *testing.T) {
	_, err := NewUnitData(types.NewAccountUnitID(holderA))
	require.ErrorContains(t, err, "unknown registry unit type")
}
