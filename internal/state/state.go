package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/alphabill-org/assetswap/internal/keyvaluedb"
	"github.com/alphabill-org/assetswap/internal/types"
)

var (
	ErrUnitNotFound      = errors.New("unit not found")
	ErrUnitAlreadyExists = errors.New("unit already exists")
	ErrOpenSavepoints    = errors.New("state has open savepoints")
)

type (
	// State keeps the units of the node.
	//
	// State can be changed by calling Apply function with one or more Action function. Savepoint method can be used
	// to add a special marker to the state that allows all actions that are executed after savepoint was established
	// to be rolled back. In the other words, savepoint lets you roll back part of the state changes instead of the
	// entire state. Calling a Commit method writes all changes made since the previous commit to the database
	// transaction and makes them irreversible.
	State struct {
		mutex sync.RWMutex
		units map[string]*Unit
		// journal of changes since the last commit, reverted in reverse order
		journal []change
		// savepoints hold the length of the journal at the time the savepoint was created
		savepoints []int
		// units changed since the last commit
		dirty map[string]struct{}
	}

	change struct {
		id   string
		prev *Unit
	}

	// UnitDataConstructor is a function that constructs an empty UnitData structure based on UnitID
	UnitDataConstructor func(types.UnitID) (UnitData, error)
)

func NewEmptyState() *State {
	return &State{
		units: make(map[string]*Unit),
		dirty: make(map[string]struct{}),
	}
}

// NewRecoveredState loads all units stored in the db. Unit data is decoded into the
// structure returned by the constructor for the unit ID.
func NewRecoveredState(db keyvaluedb.KeyValueDB, constructor UnitDataConstructor) (s *State, err error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if constructor == nil {
		return nil, errors.New("missing unit data constructor")
	}
	s = NewEmptyState()
	it := db.First()
	defer func() { err = errors.Join(err, it.Close()) }()
	for ; it.Valid(); it.Next() {
		id := types.UnitID(it.Key())
		var rec unitRecord
		if err := it.Value(&rec); err != nil {
			return nil, fmt.Errorf("unable to decode unit %s record: %w", id, err)
		}
		data, err := constructor(id)
		if err != nil {
			return nil, fmt.Errorf("unable to construct unit data: %w", err)
		}
		if err := types.Cbor.Unmarshal(rec.Data, data); err != nil {
			return nil, fmt.Errorf("unable to decode unit %s data: %w", id, err)
		}
		s.units[string(id)] = &Unit{owner: rec.Owner, data: data}
	}
	return s, nil
}

// GetUnit returns a copy of the unit with given id.
func (s *State) GetUnit(id types.UnitID) (*Unit, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	u, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

// Size returns the number of units in the state.
func (s *State) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.units)
}

// Apply applies given actions to the state. All Action functions are executed together as a single atomic operation. If
// any of the Action functions returns an error all previous state changes made by any of the action function will be
// reverted.
func (s *State) Apply(actions ...Action) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	id := s.createSavepoint()
	for _, action := range actions {
		if err := action(s); err != nil {
			s.rollbackToSavepoint(id)
			return err
		}
	}
	s.releaseToSavepoint(id)
	return nil
}

// Atomically runs f inside a savepoint. Changes made by f are rolled back when f returns an error.
func (s *State) Atomically(f func() error) error {
	id := s.Savepoint()
	if err := f(); err != nil {
		s.RollbackToSavepoint(id)
		return err
	}
	s.ReleaseToSavepoint(id)
	return nil
}

// Savepoint creates a new savepoint and returns an id of the savepoint. Use RollbackToSavepoint to roll back all
// changes made after calling Savepoint method. Use ReleaseToSavepoint to keep all changes made to the state.
func (s *State) Savepoint() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.createSavepoint()
}

// RollbackToSavepoint destroys savepoints without keeping the changes in the state. All actions that were executed
// after the savepoint was established are rolled back, restoring the state to what it was at the time of the savepoint.
func (s *State) RollbackToSavepoint(id int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rollbackToSavepoint(id)
}

// ReleaseToSavepoint destroys all savepoints starting from id, keeping all state changes after it was created. If a
// savepoint with given id does not exist then this method does nothing.
func (s *State) ReleaseToSavepoint(id int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.releaseToSavepoint(id)
}

// Revert rolls back all changes made to the state since the last commit.
func (s *State) Revert() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.revertJournal(0)
	s.savepoints = nil
	s.dirty = make(map[string]struct{})
}

// IsCommitted returns true if there are no uncommitted changes.
func (s *State) IsCommitted() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.journal) == 0 && len(s.savepoints) == 0
}

// Commit writes all units changed since the previous commit to the database in one transaction. On error
// the database transaction is rolled back and the changes are kept in the state, they can be reverted using Revert.
func (s *State) Commit(db keyvaluedb.DBTx) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.savepoints) > 0 {
		return ErrOpenSavepoints
	}
	tx, err := db.StartTx()
	if err != nil {
		return fmt.Errorf("unable to start db transaction: %w", err)
	}
	if err := s.writeDirty(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit db transaction: %w", err)
	}
	s.journal = nil
	s.dirty = make(map[string]struct{})
	return nil
}

func (s *State) writeDirty(tx keyvaluedb.Writer) error {
	for key := range s.dirty {
		u, ok := s.units[key]
		if !ok {
			if err := tx.Delete([]byte(key)); err != nil {
				return fmt.Errorf("unable to delete unit %s: %w", types.UnitID(key), err)
			}
			continue
		}
		data, err := types.Cbor.Marshal(u.data)
		if err != nil {
			return fmt.Errorf("unable to encode unit %s data: %w", types.UnitID(key), err)
		}
		if err := tx.Write([]byte(key), &unitRecord{Owner: u.owner, Data: data}); err != nil {
			return fmt.Errorf("unable to write unit %s: %w", types.UnitID(key), err)
		}
	}
	return nil
}

// Add, Get, Update and Delete implement UnitStore for the actions, callers hold the lock.

func (s *State) Add(id types.UnitID, u *Unit) error {
	if _, found := s.units[string(id)]; found {
		return fmt.Errorf("%w: %s", ErrUnitAlreadyExists, id)
	}
	s.set(string(id), u)
	return nil
}

func (s *State) Get(id types.UnitID) (*Unit, error) {
	return s.get(id)
}

func (s *State) Update(id types.UnitID, u *Unit) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	s.set(string(id), u)
	return nil
}

func (s *State) Delete(id types.UnitID) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	s.set(string(id), nil)
	return nil
}

func (s *State) get(id types.UnitID) (*Unit, error) {
	u, found := s.units[string(id)]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	return u, nil
}

func (s *State) set(key string, u *Unit) {
	s.journal = append(s.journal, change{id: key, prev: s.units[key]})
	s.dirty[key] = struct{}{}
	if u == nil {
		delete(s.units, key)
		return
	}
	s.units[key] = u
}

func (s *State) createSavepoint() int {
	s.savepoints = append(s.savepoints, len(s.journal))
	return len(s.savepoints) - 1
}

func (s *State) rollbackToSavepoint(id int) {
	if id < 0 || id >= len(s.savepoints) {
		return
	}
	s.revertJournal(s.savepoints[id])
	s.savepoints = s.savepoints[:id]
}

func (s *State) releaseToSavepoint(id int) {
	if id < 0 || id >= len(s.savepoints) {
		return
	}
	s.savepoints = s.savepoints[:id]
}

func (s *State) revertJournal(length int) {
	for i := len(s.journal) - 1; i >= length; i-- {
		c := s.journal[i]
		if c.prev == nil {
			delete(s.units, c.id)
		} else {
			s.units[c.id] = c.prev
		}
	}
	s.journal = s.journal[:length]
}
