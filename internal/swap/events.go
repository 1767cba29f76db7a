package swap

import (
	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/types"
)

type EventType string

const (
	EventNewOffer       EventType = "NewOffer"
	EventOfferDeclined  EventType = "OfferDeclined"
	EventOfferAccepted  EventType = "OfferAccepted"
	EventPaymentSettled EventType = "PaymentSettled"
	EventSwapSettled    EventType = "SwapSettled"
)

// Event is a notification about a successful swap operation. Only the fields relevant
// to the event type are set.
type Event struct {
	Type        EventType
	Swap        types.Address
	OriginAsset *uint256.Int
	TargetAsset *uint256.Int
	Proposer    types.Address
	Payer       types.Address
	Payee       types.Address
	Amount      *uint256.Int
	// Status after an accepted offer
	Status Status
}

// IsSettlement returns true for the events about payments and custody exchange.
func (e *Event) IsSettlement() bool {
	return e.Type == EventPaymentSettled || e.Type == EventSwapSettled
}
