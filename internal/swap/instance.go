package swap

import (
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"

	"github.com/alphabill-org/assetswap/internal/state"
	"github.com/alphabill-org/assetswap/internal/types"
)

type (
	// Offer pairs a counter asset with payment terms. At most one of the amounts is non-zero.
	Offer struct {
		_                      struct{} `cbor:",toarray"`
		TargetAsset            *uint256.Int
		Proposer               types.Address
		AmountOriginOwesTarget *uint256.Int
		AmountTargetOwesOrigin *uint256.Int
	}

	// Instance is the state of one swap negotiation, stored as the data of the swap unit.
	Instance struct {
		_             struct{} `cbor:",toarray"`
		Address       types.Address
		Administrator types.Address
		OriginAsset   *uint256.Int
		OriginHolder  types.Address
		Status        Status
		// AcceptedOffer is set when the status leaves OPEN and never changes afterwards.
		AcceptedOffer          *Offer
		AmountOriginOwesTarget *uint256.Int
		AmountTargetOwesOrigin *uint256.Int
		PaymentSettled         bool
		// Offers are kept sorted by target asset. Offers left here after acceptance are not actionable.
		Offers []*Offer
	}
)

// NewUnitData creates an empty swap instance, used when loading the state from disk.
func NewUnitData(id types.UnitID) (state.UnitData, error) {
	if !id.HasType(types.SwapUnitType) {
		return nil, fmt.Errorf("unknown swap unit type in %s", id)
	}
	return &Instance{}, nil
}

func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	return &Offer{
		TargetAsset:            types.CloneOrZero(o.TargetAsset),
		Proposer:               o.Proposer,
		AmountOriginOwesTarget: types.CloneOrZero(o.AmountOriginOwesTarget),
		AmountTargetOwesOrigin: types.CloneOrZero(o.AmountTargetOwesOrigin),
	}
}

// RequiresPayment returns true if either party owes the other.
func (o *Offer) RequiresPayment() bool {
	return !types.IsZero(o.AmountOriginOwesTarget) || !types.IsZero(o.AmountTargetOwesOrigin)
}

func (i *Instance) Copy() state.UnitData {
	offers := make([]*Offer, len(i.Offers))
	for n, o := range i.Offers {
		offers[n] = o.Clone()
	}
	return &Instance{
		Address:                i.Address,
		Administrator:          i.Administrator,
		OriginAsset:            types.CloneOrZero(i.OriginAsset),
		OriginHolder:           i.OriginHolder,
		Status:                 i.Status,
		AcceptedOffer:          i.AcceptedOffer.Clone(),
		AmountOriginOwesTarget: types.CloneOrZero(i.AmountOriginOwesTarget),
		AmountTargetOwesOrigin: types.CloneOrZero(i.AmountTargetOwesOrigin),
		PaymentSettled:         i.PaymentSettled,
		Offers:                 offers,
	}
}

// OpenOfferCount returns the number of actionable offers, zero once an offer has been accepted.
func (i *Instance) OpenOfferCount() int {
	if i.Status != StatusOpen {
		return 0
	}
	return len(i.Offers)
}

// Offer returns the pending offer for the target asset.
func (i *Instance) Offer(targetAsset *uint256.Int) (*Offer, bool) {
	idx, found := i.findOffer(targetAsset)
	if !found {
		return nil, false
	}
	return i.Offers[idx], true
}

func (i *Instance) findOffer(targetAsset *uint256.Int) (int, bool) {
	if targetAsset == nil {
		return 0, false
	}
	return slices.BinarySearchFunc(i.Offers, targetAsset, func(o *Offer, target *uint256.Int) int {
		return o.TargetAsset.Cmp(target)
	})
}

func (i *Instance) putOffer(o *Offer) {
	idx, found := i.findOffer(o.TargetAsset)
	if found {
		i.Offers[idx] = o
		return
	}
	i.Offers = slices.Insert(i.Offers, idx, o)
}

func (i *Instance) removeOffer(targetAsset *uint256.Int) bool {
	idx, found := i.findOffer(targetAsset)
	if !found {
		return false
	}
	i.Offers = slices.Delete(i.Offers, idx, idx+1)
	return true
}

// obligation returns the payer, payee and amount of the accepted payment terms in given direction.
func (i *Instance) obligation(originPays bool) (payer, payee types.Address, amount *uint256.Int) {
	if originPays {
		return i.OriginHolder, i.AcceptedOffer.Proposer, i.AmountOriginOwesTarget
	}
	return i.AcceptedOffer.Proposer, i.OriginHolder, i.AmountTargetOwesOrigin
}
