package swap

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/logger"
	"github.com/alphabill-org/assetswap/internal/state"
	"github.com/alphabill-org/assetswap/internal/types"
)

var log = logger.CreateForPackage()

type (
	// AssetRegistry owns the assets and their holders.
	AssetRegistry interface {
		OwnerOf(assetID *uint256.Int) (types.Address, error)
		// TransferCustody must fail if the controller is not approved to move the asset.
		TransferCustody(controller types.Address, assetID *uint256.Int, from, to types.Address) error
	}

	// Ledger is the unit of account the balancing payment is made in.
	Ledger interface {
		// TransferConditional must fail unless "from" has preauthorized the spender for at least the amount.
		TransferConditional(spender, from, to types.Address, amount *uint256.Int) error
	}

	// UnitState stores the swap instances. Atomically must roll back every change made by
	// the function (including changes made through the registry and the ledger) when it fails.
	UnitState interface {
		GetUnit(id types.UnitID) (*state.Unit, error)
		Apply(actions ...state.Action) error
		Atomically(f func() error) error
	}

	Environment struct {
		State    UnitState
		Registry AssetRegistry
		Ledger   Ledger
		// Events receives the notifications of successful operations, may be nil.
		Events func(e *Event)
	}

	// Coordinator mediates a single swap instance. Every operation either applies all of its
	// effects or none of them.
	Coordinator struct {
		env     *Environment
		address types.Address
	}
)

// Address returns the address a swap deployed by the administrator with given nonce gets.
func Address(administrator types.Address, nonce uint64) types.Address {
	return crypto.CreateAddress(administrator, nonce)
}

// Deploy creates a new swap instance for the origin asset, the current holder of the asset becomes the
// origin holder. The address of the instance is derived from the administrator and the nonce.
func Deploy(env *Environment, administrator types.Address, nonce uint64, originAsset *uint256.Int) (*Coordinator, error) {
	if types.IsZeroAddress(administrator) {
		return nil, fmt.Errorf("%w: administrator is zero", ErrInvalidCaller)
	}
	if types.IsZero(originAsset) {
		return nil, fmt.Errorf("%w: origin asset is zero", ErrInvalidAsset)
	}
	holder, err := env.Registry.OwnerOf(originAsset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}
	address := Address(administrator, nonce)
	if _, err := env.State.GetUnit(types.NewSwapUnitID(address)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSwapExists, address)
	}
	instance := &Instance{
		Address:                address,
		Administrator:          administrator,
		OriginAsset:            originAsset.Clone(),
		OriginHolder:           holder,
		Status:                 StatusOpen,
		AmountOriginOwesTarget: uint256.NewInt(0),
		AmountTargetOwesOrigin: uint256.NewInt(0),
	}
	if err := env.State.Apply(state.AddUnit(types.NewSwapUnitID(address), administrator, instance)); err != nil {
		return nil, fmt.Errorf("storing swap %s: %w", address, err)
	}
	log.Info("swap %s deployed for asset %s held by %s", address, types.FormatUint256(originAsset), holder)
	return &Coordinator{env: env, address: address}, nil
}

// Open returns the coordinator of an existing swap instance.
func Open(env *Environment, address types.Address) (*Coordinator, error) {
	c := &Coordinator{env: env, address: address}
	if _, err := c.Instance(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coordinator) Address() types.Address {
	return c.address
}

// Instance returns a copy of the current swap state.
func (c *Coordinator) Instance() (*Instance, error) {
	u, err := c.env.State.GetUnit(types.NewSwapUnitID(c.address))
	if err != nil {
		if errors.Is(err, state.ErrUnitNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSwapNotFound, c.address)
		}
		return nil, err
	}
	instance, ok := u.Data().(*Instance)
	if !ok {
		return nil, fmt.Errorf("unit of %s is not a swap instance", c.address)
	}
	return instance, nil
}

// Status returns the state of the swap, its ordinal is the 0-3 status code.
func (c *Coordinator) Status() (Status, error) {
	i, err := c.Instance()
	if err != nil {
		return 0, err
	}
	return i.Status, nil
}

func (c *Coordinator) OpenOfferCount() (int, error) {
	i, err := c.Instance()
	if err != nil {
		return 0, err
	}
	return i.OpenOfferCount(), nil
}

// Offers returns copies of the actionable offers ordered by target asset, none once an offer has been accepted.
func (c *Coordinator) Offers() ([]*Offer, error) {
	i, err := c.Instance()
	if err != nil {
		return nil, err
	}
	if i.Status != StatusOpen {
		return nil, nil
	}
	offers := make([]*Offer, len(i.Offers))
	for n, o := range i.Offers {
		offers[n] = o.Clone()
	}
	return offers, nil
}

// AddOffer proposes the target asset held by the caller in exchange for the origin asset.
// An existing offer for the same target asset is replaced.
func (c *Coordinator) AddOffer(caller types.Address, targetAsset, amountOriginOwesTarget, amountTargetOwesOrigin *uint256.Int) error {
	if types.IsZeroAddress(caller) {
		return fmt.Errorf("%w: caller is zero", ErrInvalidCaller)
	}
	var events []*Event
	err := c.update(func(i *Instance) error {
		if types.IsZero(targetAsset) {
			return fmt.Errorf("%w: target asset is zero", ErrInvalidAsset)
		}
		if targetAsset.Eq(i.OriginAsset) {
			return fmt.Errorf("%w: target asset is the origin asset", ErrInvalidAsset)
		}
		if caller == i.OriginHolder {
			return fmt.Errorf("%w: origin holder can not make an offer", ErrInvalidCaller)
		}
		if i.Status != StatusOpen {
			return fmt.Errorf("%w: offers are accepted only while %s, swap is %s", ErrWrongState, StatusOpen, i.Status)
		}
		holder, err := c.env.Registry.OwnerOf(targetAsset)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNotAssetHolder, err)
		}
		if holder != caller {
			return fmt.Errorf("%w: asset %s", ErrNotAssetHolder, types.FormatUint256(targetAsset))
		}
		if !types.IsZero(amountOriginOwesTarget) && !types.IsZero(amountTargetOwesOrigin) {
			return ErrInvalidTerms
		}
		i.putOffer(&Offer{
			TargetAsset:            targetAsset.Clone(),
			Proposer:               caller,
			AmountOriginOwesTarget: types.CloneOrZero(amountOriginOwesTarget),
			AmountTargetOwesOrigin: types.CloneOrZero(amountTargetOwesOrigin),
		})
		events = append(events, &Event{Type: EventNewOffer, Swap: c.address, TargetAsset: targetAsset.Clone(), Proposer: caller})
		return nil
	})
	return c.finish("addOffer", err, events)
}

// DeclineOffer removes the offer for the target asset. The origin holder may decline any offer,
// the proposer may withdraw its own.
func (c *Coordinator) DeclineOffer(caller types.Address, targetAsset *uint256.Int) error {
	var events []*Event
	err := c.update(func(i *Instance) error {
		if i.Status != StatusOpen {
			return fmt.Errorf("%w: swap is %s", ErrWrongState, i.Status)
		}
		offer, found := i.Offer(targetAsset)
		if !found {
			return fmt.Errorf("%w: target asset %s", ErrUnknownOffer, types.FormatUint256(targetAsset))
		}
		if caller != i.OriginHolder && offer.Proposer != caller {
			return fmt.Errorf("%w: only the origin holder or the proposer may decline an offer", ErrUnauthorized)
		}
		i.removeOffer(targetAsset)
		events = append(events, &Event{Type: EventOfferDeclined, Swap: c.address, TargetAsset: offer.TargetAsset.Clone(), Proposer: offer.Proposer})
		return nil
	})
	return c.finish("declineOffer", err, events)
}

// AcceptOffer fixes the terms of the offer for the target asset. Negotiation ends, remaining offers
// can no longer be acted on.
func (c *Coordinator) AcceptOffer(caller types.Address, targetAsset *uint256.Int) error {
	var events []*Event
	err := c.update(func(i *Instance) error {
		if i.Status != StatusOpen {
			return fmt.Errorf("%w: swap is %s", ErrWrongState, i.Status)
		}
		if caller != i.OriginHolder {
			return fmt.Errorf("%w: only the origin holder may accept an offer", ErrUnauthorized)
		}
		offer, found := i.Offer(targetAsset)
		if !found {
			return fmt.Errorf("%w: target asset %s", ErrUnknownOffer, types.FormatUint256(targetAsset))
		}
		i.AcceptedOffer = offer.Clone()
		i.AmountOriginOwesTarget = types.CloneOrZero(offer.AmountOriginOwesTarget)
		i.AmountTargetOwesOrigin = types.CloneOrZero(offer.AmountTargetOwesOrigin)
		if offer.RequiresPayment() {
			i.Status = StatusAwaitingPayment
		} else {
			i.PaymentSettled = true
			i.Status = StatusReady
		}
		events = append(events, &Event{Type: EventOfferAccepted, Swap: c.address, TargetAsset: offer.TargetAsset.Clone(), Proposer: offer.Proposer, Status: i.Status})
		return nil
	})
	return c.finish("acceptOffer", err, events)
}

// PayFromOriginToTarget settles the amount the origin holder owes the proposer.
func (c *Coordinator) PayFromOriginToTarget(caller types.Address) error {
	return c.pay(caller, true)
}

// PayFromTargetToOrigin settles the amount the proposer owes the origin holder.
func (c *Coordinator) PayFromTargetToOrigin(caller types.Address) error {
	return c.pay(caller, false)
}

func (c *Coordinator) pay(caller types.Address, originPays bool) error {
	var events []*Event
	err := c.update(func(i *Instance) error {
		if i.Status != StatusAwaitingPayment {
			return fmt.Errorf("%w: swap is %s", ErrWrongState, i.Status)
		}
		payer, payee, amount := i.obligation(originPays)
		if types.IsZero(amount) || caller != payer {
			return ErrNotObligatedParty
		}
		if err := c.env.Ledger.TransferConditional(c.address, payer, payee, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrPaymentFailed, err)
		}
		i.PaymentSettled = true
		i.Status = StatusReady
		events = append(events, &Event{Type: EventPaymentSettled, Swap: c.address, Payer: payer, Payee: payee, Amount: amount.Clone()})
		return nil
	})
	return c.finish("payment", err, events)
}

// PerformSwap exchanges the custody of the two assets. Both holders must have approved the
// coordinator address in the registry. If either transfer fails neither asset moves.
func (c *Coordinator) PerformSwap(caller types.Address) error {
	var events []*Event
	err := c.update(func(i *Instance) error {
		if i.Status != StatusReady {
			return fmt.Errorf("%w: swap is %s", ErrWrongState, i.Status)
		}
		proposer := i.AcceptedOffer.Proposer
		if caller != i.OriginHolder && caller != proposer && caller != i.Administrator {
			return fmt.Errorf("%w: only the holders or the administrator may perform the swap", ErrUnauthorized)
		}
		targetAsset := i.AcceptedOffer.TargetAsset
		if err := c.env.Registry.TransferCustody(c.address, i.OriginAsset, i.OriginHolder, proposer); err != nil {
			return fmt.Errorf("%w: origin asset: %w", ErrSwapFailed, err)
		}
		if err := c.env.Registry.TransferCustody(c.address, targetAsset, proposer, i.OriginHolder); err != nil {
			return fmt.Errorf("%w: target asset: %w", ErrSwapFailed, err)
		}
		i.Status = StatusSettled
		events = append(events, &Event{Type: EventSwapSettled, Swap: c.address, OriginAsset: i.OriginAsset.Clone(), TargetAsset: targetAsset.Clone()})
		return nil
	})
	return c.finish("performSwap", err, events)
}

// update runs f on a copy of the instance and stores the result, all inside one atomic section.
func (c *Coordinator) update(f func(i *Instance) error) error {
	return c.env.State.Atomically(func() error {
		instance, err := c.Instance()
		if err != nil {
			return err
		}
		if err := f(instance); err != nil {
			return err
		}
		return c.env.State.Apply(state.UpdateUnitData(types.NewSwapUnitID(c.address), func(state.UnitData) (state.UnitData, error) {
			return instance, nil
		}))
	})
}

func (c *Coordinator) finish(op string, err error, events []*Event) error {
	if err != nil {
		log.Debug("swap %s: %s failed: %v", c.address, op, err)
		return err
	}
	log.Debug("swap %s: %s done", c.address, op)
	if c.env.Events != nil {
		for _, e := range events {
			c.env.Events(e)
		}
	}
	return nil
}
