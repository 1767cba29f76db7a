package swap

import "errors"

var (
	ErrInvalidCaller     = errors.New("invalid caller")
	ErrInvalidAsset      = errors.New("invalid asset")
	ErrUnknownOffer      = errors.New("unknown offer")
	ErrWrongState        = errors.New("operation not permitted in current swap state")
	ErrNotObligatedParty = errors.New("caller is not obligated to make the payment")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrSwapFailed        = errors.New("swap failed")

	ErrUnauthorized   = errors.New("caller is not authorized")
	ErrNotAssetHolder = errors.New("caller does not hold the asset")
	ErrInvalidTerms   = errors.New("only one party may owe a payment")
	ErrSwapNotFound   = errors.New("swap not found")
	ErrSwapExists     = errors.New("swap already exists")
)
