package tokens

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/logger"
	"github.com/alphabill-org/assetswap/internal/state"
	"github.com/alphabill-org/assetswap/internal/types"
)

var log = logger.CreateForPackage()

var (
	ErrNotApproved      = errors.New("controller is not approved to transfer the asset")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrAssetExists      = errors.New("asset already exists")
	ErrNotOwner         = errors.New("caller is not the holder or an operator of the asset")
	ErrNotAdministrator = errors.New("caller is not the registry administrator")
	ErrInvalidAssetID   = errors.New("invalid asset identifier")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrHolderMismatch   = errors.New("asset is not held by the sender")
	ErrApprovalToHolder = errors.New("approval to current holder")
	ErrApprovalToCaller = errors.New("operator approval to caller")
)

// Registry keeps the unique assets and their holders. Assets are assigned by the administrator and
// transferred either by the holder or by a controller the holder has approved.
type Registry struct {
	state         *state.State
	administrator types.Address
}

func NewRegistry(s *state.State, administrator types.Address) *Registry {
	return &Registry{state: s, administrator: administrator}
}

// AssignToken creates a new asset and makes "to" its holder.
func (r *Registry) AssignToken(caller types.Address, assetID *uint256.Int, uri string, to types.Address) error {
	if caller != r.administrator {
		return ErrNotAdministrator
	}
	if types.IsZero(assetID) {
		return ErrInvalidAssetID
	}
	if types.IsZeroAddress(to) {
		return fmt.Errorf("%w: asset recipient is zero", ErrInvalidAddress)
	}
	id := types.NewAssetUnitID(assetID)
	if _, err := r.state.GetUnit(id); err == nil {
		return fmt.Errorf("%w: %s", ErrAssetExists, types.FormatUint256(assetID))
	}
	if err := r.state.Apply(state.AddUnit(id, to, &assetData{AssetID: assetID.Clone(), URI: uri})); err != nil {
		return fmt.Errorf("assigning asset %s: %w", types.FormatUint256(assetID), err)
	}
	log.Debug("asset %s assigned to %s", types.FormatUint256(assetID), to)
	return nil
}

// OwnerOf returns the current holder of the asset.
func (r *Registry) OwnerOf(assetID *uint256.Int) (types.Address, error) {
	u, _, err := r.getAsset(assetID)
	if err != nil {
		return types.ZeroAddress, err
	}
	return u.Owner(), nil
}

func (r *Registry) TokenURI(assetID *uint256.Int) (string, error) {
	_, data, err := r.getAsset(assetID)
	if err != nil {
		return "", err
	}
	return data.URI, nil
}

// GetApproved returns the controller approved for the asset, zero address if none.
func (r *Registry) GetApproved(assetID *uint256.Int) (types.Address, error) {
	_, data, err := r.getAsset(assetID)
	if err != nil {
		return types.ZeroAddress, err
	}
	return data.Approved, nil
}

// IsApprovedForAll returns true if the operator may transfer all assets of the holder.
func (r *Registry) IsApprovedForAll(holder, operator types.Address) bool {
	_, err := r.state.GetUnit(types.NewOperatorUnitID(holder, operator))
	return err == nil
}

// Approve sets the controller of the asset. Zero controller clears the approval.
func (r *Registry) Approve(caller types.Address, assetID *uint256.Int, controller types.Address) error {
	u, _, err := r.getAsset(assetID)
	if err != nil {
		return err
	}
	holder := u.Owner()
	if controller == holder {
		return ErrApprovalToHolder
	}
	if caller != holder && !r.IsApprovedForAll(holder, caller) {
		return ErrNotOwner
	}
	return r.state.Apply(state.UpdateUnitData(types.NewAssetUnitID(assetID), setApproved(controller)))
}

// SetApprovalForAll allows or disallows the operator to transfer all assets of the caller.
func (r *Registry) SetApprovalForAll(caller, operator types.Address, approved bool) error {
	if types.IsZeroAddress(operator) {
		return fmt.Errorf("%w: operator is zero", ErrInvalidAddress)
	}
	if caller == operator {
		return ErrApprovalToCaller
	}
	id := types.NewOperatorUnitID(caller, operator)
	exists := r.IsApprovedForAll(caller, operator)
	switch {
	case approved && !exists:
		return r.state.Apply(state.AddUnit(id, caller, &operatorData{Operator: operator}))
	case !approved && exists:
		return r.state.Apply(state.DeleteUnit(id))
	}
	return nil
}

// TransferCustody moves the asset from its current holder to "to". The controller must be the holder, the
// controller approved for the asset or an operator of the holder. The per-asset approval is cleared.
func (r *Registry) TransferCustody(controller types.Address, assetID *uint256.Int, from, to types.Address) error {
	u, data, err := r.getAsset(assetID)
	if err != nil {
		return err
	}
	holder := u.Owner()
	if holder != from {
		return fmt.Errorf("%w: asset %s", ErrHolderMismatch, types.FormatUint256(assetID))
	}
	if types.IsZeroAddress(to) {
		return fmt.Errorf("%w: recipient is zero", ErrInvalidAddress)
	}
	if controller != holder && controller != data.Approved && !r.IsApprovedForAll(holder, controller) {
		return fmt.Errorf("%w: asset %s, controller %s", ErrNotApproved, types.FormatUint256(assetID), controller)
	}
	id := types.NewAssetUnitID(assetID)
	if err := r.state.Apply(
		state.SetOwner(id, to),
		state.UpdateUnitData(id, setApproved(types.ZeroAddress)),
	); err != nil {
		return fmt.Errorf("transferring asset %s: %w", types.FormatUint256(assetID), err)
	}
	log.Debug("asset %s transferred from %s to %s", types.FormatUint256(assetID), from, to)
	return nil
}

func (r *Registry) getAsset(assetID *uint256.Int) (*state.Unit, *assetData, error) {
	if types.IsZero(assetID) {
		return nil, nil, ErrInvalidAssetID
	}
	u, err := r.state.GetUnit(types.NewAssetUnitID(assetID))
	if err != nil {
		if errors.Is(err, state.ErrUnitNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrAssetNotFound, types.FormatUint256(assetID))
		}
		return nil, nil, err
	}
	data, ok := u.Data().(*assetData)
	if !ok {
		return nil, nil, fmt.Errorf("unit %s is not an asset", types.NewAssetUnitID(assetID))
	}
	return u, data, nil
}

func setApproved(controller types.Address) state.UpdateFunction {
	return func(data state.UnitData) (state.UnitData, error) {
		d, ok := data.(*assetData)
		if !ok {
			return nil, fmt.Errorf("invalid unit data type %T", data)
		}
		d.Approved = controller
		return d, nil
	}
}
