package money

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
	ErrInsufficientAuthorization = errors.New("insufficient authorization")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrOverflow                  = errors.New("amount overflow")
	ErrNotAdministrator          = errors.New("caller is not the ledger administrator")
	ErrInvalidAddress            = errors.New("invalid address")
)

// Ledger is the fungible unit of account. Holders may preauthorize spenders to move
// funds on their behalf, the preauthorized amount is consumed by conditional transfers.
type Ledger struct {
	state         *state.State
	administrator types.Address
}

func NewLedger(s *state.State, administrator types.Address) *Ledger {
	return &Ledger{state: s, administrator: administrator}
}

// Mint creates new funds on the account of "to".
func (l *Ledger) Mint(caller, to types.Address, amount *uint256.Int) error {
	if caller != l.administrator {
		return ErrNotAdministrator
	}
	if types.IsZeroAddress(to) {
		return fmt.Errorf("%w: mint recipient is zero", ErrInvalidAddress)
	}
	if types.IsZero(amount) {
		return nil
	}
	if err := l.state.Apply(credit(to, amount)); err != nil {
		return fmt.Errorf("minting %s to %s: %w", types.FormatUint256(amount), to, err)
	}
	log.Debug("minted %s to %s", types.FormatUint256(amount), to)
	return nil
}

// BalanceOf returns the balance of the holder, zero for unknown holders.
func (l *Ledger) BalanceOf(holder types.Address) *uint256.Int {
	u, err := l.state.GetUnit(types.NewAccountUnitID(holder))
	if err != nil {
		return uint256.NewInt(0)
	}
	if d, ok := u.Data().(*accountData); ok {
		return types.CloneOrZero(d.Balance)
	}
	return uint256.NewInt(0)
}

// Allowance returns the amount the spender may still transfer on behalf of the owner.
func (l *Ledger) Allowance(owner, spender types.Address) *uint256.Int {
	u, err := l.state.GetUnit(types.NewAllowanceUnitID(owner, spender))
	if err != nil {
		return uint256.NewInt(0)
	}
	if d, ok := u.Data().(*allowanceData); ok {
		return types.CloneOrZero(d.Amount)
	}
	return uint256.NewInt(0)
}

// Preauthorize sets (does not add to) the amount the spender may transfer on behalf of the owner.
func (l *Ledger) Preauthorize(owner, spender types.Address, amount *uint256.Int) error {
	if types.IsZeroAddress(owner) || types.IsZeroAddress(spender) {
		return fmt.Errorf("%w: owner and spender must not be zero", ErrInvalidAddress)
	}
	id := types.NewAllowanceUnitID(owner, spender)
	_, err := l.state.GetUnit(id)
	exists := err == nil
	switch {
	case types.IsZero(amount) && exists:
		return l.state.Apply(state.DeleteUnit(id))
	case types.IsZero(amount):
		return nil
	}
	return l.state.Apply(state.AddOrUpdateUnit(id, owner, func(data state.UnitData) (state.UnitData, error) {
		return &allowanceData{Spender: spender, Amount: amount.Clone()}, nil
	}))
}

// Transfer moves funds from the account of "from" to the account of "to".
func (l *Ledger) Transfer(from, to types.Address, amount *uint256.Int) error {
	if types.IsZeroAddress(to) {
		return fmt.Errorf("%w: recipient is zero", ErrInvalidAddress)
	}
	if types.IsZero(amount) {
		return nil
	}
	if err := l.state.Apply(debit(from, amount), credit(to, amount)); err != nil {
		return fmt.Errorf("transfer of %s from %s: %w", types.FormatUint256(amount), from, err)
	}
	return nil
}

// TransferConditional moves funds on behalf of "from", the transfer succeeds only if "from" has
// preauthorized the spender for at least the amount. The allowance is reduced by the amount.
func (l *Ledger) TransferConditional(spender, from, to types.Address, amount *uint256.Int) error {
	if types.IsZeroAddress(to) {
		return fmt.Errorf("%w: recipient is zero", ErrInvalidAddress)
	}
	if types.IsZero(amount) {
		return nil
	}
	if allowance := l.Allowance(from, spender); allowance.Lt(amount) {
		return fmt.Errorf("%w: spender %s is allowed %s, requested %s",
			ErrInsufficientAuthorization, spender, types.FormatUint256(allowance), types.FormatUint256(amount))
	}
	if balance := l.BalanceOf(from); balance.Lt(amount) {
		return fmt.Errorf("%w: balance of %s is %s, requested %s",
			ErrInsufficientBalance, from, types.FormatUint256(balance), types.FormatUint256(amount))
	}
	if err := l.state.Apply(
		state.UpdateUnitData(types.NewAllowanceUnitID(from, spender), consumeAllowance(amount)),
		debit(from, amount),
		credit(to, amount),
	); err != nil {
		return fmt.Errorf("conditional transfer of %s from %s: %w", types.FormatUint256(amount), from, err)
	}
	log.Debug("spender %s transferred %s from %s to %s", spender, types.FormatUint256(amount), from, to)
	return nil
}

func credit(holder types.Address, amount *uint256.Int) state.Action {
	return state.AddOrUpdateUnit(types.NewAccountUnitID(holder), holder, func(data state.UnitData) (state.UnitData, error) {
		if data == nil {
			return &accountData{Balance: amount.Clone()}, nil
		}
		d, ok := data.(*accountData)
		if !ok {
			return nil, fmt.Errorf("invalid unit data type %T", data)
		}
		sum, overflow := new(uint256.Int).AddOverflow(types.CloneOrZero(d.Balance), amount)
		if overflow {
			return nil, ErrOverflow
		}
		d.Balance = sum
		return d, nil
	})
}

func debit(holder types.Address, amount *uint256.Int) state.Action {
	id := types.NewAccountUnitID(holder)
	return func(s state.UnitStore) error {
		if _, err := s.Get(id); errors.Is(err, state.ErrUnitNotFound) {
			return fmt.Errorf("%w: %s has no funds", ErrInsufficientBalance, holder)
		}
		return state.UpdateUnitData(id, func(data state.UnitData) (state.UnitData, error) {
			d, ok := data.(*accountData)
			if !ok {
				return nil, fmt.Errorf("invalid unit data type %T", data)
			}
			if types.CloneOrZero(d.Balance).Lt(amount) {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientBalance, holder)
			}
			d.Balance = new(uint256.Int).Sub(d.Balance, amount)
			return d, nil
		})(s)
	}
}

func consumeAllowance(amount *uint256.Int) state.UpdateFunction {
	return func(data state.UnitData) (state.UnitData, error) {
		d, ok := data.(*allowanceData)
		if !ok {
			return nil, fmt.Errorf("invalid unit data type %T", data)
		}
		if types.CloneOrZero(d.Amount).Lt(amount) {
			return nil, ErrInsufficientAuthorization
		}
		d.Amount = new(uint256.Int).Sub(d.Amount, amount)
		return d, nil
	}
}
