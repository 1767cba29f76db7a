package state

import (
	"errors"
	"fmt"

	"github.com/alphabill-org/assetswap/internal/types"
)

type (
	UnitStore interface {
		Add(id types.UnitID, u *Unit) error
		Get(id types.UnitID) (*Unit, error)
		Update(id types.UnitID, u *Unit) error
		Delete(id types.UnitID) error
	}

	Action func(s UnitStore) error

	// UpdateFunction is a function for updating the data of an item. Takes in previous UnitData and returns new UnitData.
	UpdateFunction func(data UnitData) (newData UnitData, err error)
)

// AddUnit adds a new unit with given identifier, owner and unit data.
func AddUnit(id types.UnitID, owner types.Address, data UnitData) Action {
	return func(s UnitStore) error {
		if id == nil {
			return errors.New("id is nil")
		}
		if err := s.Add(id, NewUnit(owner, data)); err != nil {
			return fmt.Errorf("unable to add unit: %w", err)
		}
		return nil
	}
}

// AddOrUpdateUnit adds the unit when it does not exist, otherwise applies f to the data of the existing unit.
// f receives nil for a new unit.
func AddOrUpdateUnit(id types.UnitID, owner types.Address, f UpdateFunction) Action {
	return func(s UnitStore) error {
		if f == nil {
			return errors.New("update function is nil")
		}
		u, err := s.Get(id)
		if err != nil && !errors.Is(err, ErrUnitNotFound) {
			return err
		}
		if u == nil {
			data, err := f(nil)
			if err != nil {
				return fmt.Errorf("unable to create unit data: %w", err)
			}
			return AddUnit(id, owner, data)(s)
		}
		return UpdateUnitData(id, f)(s)
	}
}

// UpdateUnitData changes the data of the item, leaves owner as is.
func UpdateUnitData(id types.UnitID, f UpdateFunction) Action {
	return func(s UnitStore) error {
		if f == nil {
			return errors.New("update function is nil")
		}
		u, err := s.Get(id)
		if err != nil {
			return fmt.Errorf("failed to get unit: %w", err)
		}
		cloned := u.Clone()
		newData, err := f(cloned.data)
		if err != nil {
			return fmt.Errorf("unable to update unit data: %w", err)
		}
		cloned.data = newData
		if err = s.Update(id, cloned); err != nil {
			return fmt.Errorf("unable to update unit: %w", err)
		}
		return nil
	}
}

// SetOwner changes the owner of the item, leaves data as is.
func SetOwner(id types.UnitID, owner types.Address) Action {
	return func(s UnitStore) error {
		if id == nil {
			return errors.New("id is nil")
		}
		u, err := s.Get(id)
		if err != nil {
			return fmt.Errorf("failed to find unit: %w", err)
		}
		cloned := u.Clone()
		cloned.owner = owner
		if err = s.Update(id, cloned); err != nil {
			return fmt.Errorf("unable to update unit: %w", err)
		}
		return nil
	}
}

// DeleteUnit removes the unit from the state with given identifier.
func DeleteUnit(id types.UnitID) Action {
	return func(s UnitStore) error {
		if id == nil {
			return errors.New("id is nil")
		}
		if err := s.Delete(id); err != nil {
			return fmt.Errorf("unable to delete unit: %w", err)
		}
		return nil
	}
}
