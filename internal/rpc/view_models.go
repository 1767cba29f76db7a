package rpc

import (
	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/node"
	"github.com/alphabill-org/assetswap/internal/swap"
	"github.com/alphabill-org/assetswap/internal/types"
)

// Amounts and asset identifiers are encoded as decimal strings.
type (
	OfferResponse struct {
		TargetAsset            string        `json:"targetAsset"`
		Proposer               types.Address `json:"proposer"`
		AmountOriginOwesTarget string        `json:"amountOriginOwesTarget"`
		AmountTargetOwesOrigin string        `json:"amountTargetOwesOrigin"`
	}

	SwapResponse struct {
		Address                types.Address  `json:"address"`
		Administrator          types.Address  `json:"administrator"`
		OriginAsset            string         `json:"originAsset"`
		OriginHolder           types.Address  `json:"originHolder"`
		Status                 uint8          `json:"status"`
		StatusName             string         `json:"statusName"`
		AcceptedOffer          *OfferResponse `json:"acceptedOffer,omitempty"`
		AmountOriginOwesTarget string         `json:"amountOriginOwesTarget"`
		AmountTargetOwesOrigin string         `json:"amountTargetOwesOrigin"`
		PaymentSettled         bool           `json:"paymentSettled"`
		OpenOfferCount         int            `json:"openOfferCount"`
	}

	StatusResponse struct {
		Status uint8  `json:"status"`
		Name   string `json:"name"`
	}

	OffersResponse struct {
		OpenOfferCount int              `json:"openOfferCount"`
		Offers         []*OfferResponse `json:"offers"`
	}

	AssetResponse struct {
		ID       string        `json:"id"`
		URI      string        `json:"uri"`
		Holder   types.Address `json:"holder"`
		Approved types.Address `json:"approved"`
	}

	BalanceResponse struct {
		Balance string `json:"balance"`
	}

	AllowanceResponse struct {
		Allowance string `json:"allowance"`
	}

	NonceResponse struct {
		Nonce uint64 `json:"nonce,string"`
	}

	OperatorResponse struct {
		Approved bool `json:"approved"`
	}

	EventResponse struct {
		Seq         uint64         `json:"seq,omitempty"`
		Type        string         `json:"type"`
		Swap        types.Address  `json:"swap"`
		OriginAsset string         `json:"originAsset,omitempty"`
		TargetAsset string         `json:"targetAsset,omitempty"`
		Proposer    *types.Address `json:"proposer,omitempty"`
		Payer       *types.Address `json:"payer,omitempty"`
		Payee       *types.Address `json:"payee,omitempty"`
		Amount      string         `json:"amount,omitempty"`
		Status      string         `json:"status,omitempty"`
	}

	EventsResponse struct {
		Events []*EventResponse `json:"events"`
	}

	TxResponse struct {
		Caller types.Address    `json:"caller"`
		Type   string           `json:"type"`
		Nonce  uint64           `json:"nonce,string"`
		Swap   *types.Address   `json:"swap,omitempty"`
		Events []*EventResponse `json:"events"`
	}
)

func newOfferResponse(o *swap.Offer) *OfferResponse {
	if o == nil {
		return nil
	}
	return &OfferResponse{
		TargetAsset:            types.FormatUint256(o.TargetAsset),
		Proposer:               o.Proposer,
		AmountOriginOwesTarget: types.FormatUint256(o.AmountOriginOwesTarget),
		AmountTargetOwesOrigin: types.FormatUint256(o.AmountTargetOwesOrigin),
	}
}

func newSwapResponse(i *swap.Instance) *SwapResponse {
	return &SwapResponse{
		Address:                i.Address,
		Administrator:          i.Administrator,
		OriginAsset:            types.FormatUint256(i.OriginAsset),
		OriginHolder:           i.OriginHolder,
		Status:                 uint8(i.Status),
		StatusName:             i.Status.String(),
		AcceptedOffer:          newOfferResponse(i.AcceptedOffer),
		AmountOriginOwesTarget: types.FormatUint256(i.AmountOriginOwesTarget),
		AmountTargetOwesOrigin: types.FormatUint256(i.AmountTargetOwesOrigin),
		PaymentSettled:         i.PaymentSettled,
		OpenOfferCount:         i.OpenOfferCount(),
	}
}

// newOffersResponse lists the offers that can still be declined or accepted.
func newOffersResponse(i *swap.Instance) *OffersResponse {
	res := &OffersResponse{OpenOfferCount: i.OpenOfferCount(), Offers: []*OfferResponse{}}
	if i.Status != swap.StatusOpen {
		return res
	}
	for _, o := range i.Offers {
		res.Offers = append(res.Offers, newOfferResponse(o))
	}
	return res
}

func newAssetResponse(a *node.AssetInfo) *AssetResponse {
	return &AssetResponse{
		ID:       types.FormatUint256(a.ID),
		URI:      a.URI,
		Holder:   a.Holder,
		Approved: a.Approved,
	}
}

func newEventResponse(seq uint64, e *swap.Event) *EventResponse {
	res := &EventResponse{
		Seq:         seq,
		Type:        string(e.Type),
		Swap:        e.Swap,
		OriginAsset: formatOptional(e.OriginAsset),
		TargetAsset: formatOptional(e.TargetAsset),
		Proposer:    optionalAddress(e.Proposer),
		Payer:       optionalAddress(e.Payer),
		Payee:       optionalAddress(e.Payee),
		Amount:      formatOptional(e.Amount),
	}
	if e.Type == swap.EventOfferAccepted {
		res.Status = e.Status.String()
	}
	return res
}

func newTxResponse(r *node.TxResult) *TxResponse {
	res := &TxResponse{
		Caller: r.Caller,
		Type:   r.Type,
		Nonce:  r.Nonce,
		Swap:   optionalAddress(r.Swap),
		Events: []*EventResponse{},
	}
	for _, e := range r.Events {
		res.Events = append(res.Events, newEventResponse(0, e))
	}
	return res
}

func formatOptional(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return types.FormatUint256(v)
}

func optionalAddress(a types.Address) *types.Address {
	if types.IsZeroAddress(a) {
		return nil
	}
	return &a
}
