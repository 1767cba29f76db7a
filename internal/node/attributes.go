package node

import (
	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/types"
)

const (
	PayloadTypeDeploySwap        = "deploySwap"
	PayloadTypeAddOffer          = "addOffer"
	PayloadTypeDeclineOffer      = "declineOffer"
	PayloadTypeAcceptOffer       = "acceptOffer"
	PayloadTypePayOriginToTarget = "payOriginToTarget"
	PayloadTypePayTargetToOrigin = "payTargetToOrigin"
	PayloadTypePerformSwap       = "performSwap"

	PayloadTypeAssignAsset     = "assignAsset"
	PayloadTypeApproveAsset    = "approveAsset"
	PayloadTypeApproveOperator = "approveOperator"
	PayloadTypeTransferAsset   = "transferAsset"

	PayloadTypeMint          = "mint"
	PayloadTypePreauthorize  = "preauthorize"
	PayloadTypeTransferFunds = "transferFunds"
)

type (
	DeploySwapAttributes struct {
		_           struct{} `cbor:",toarray"`
		OriginAsset *uint256.Int
	}

	AddOfferAttributes struct {
		_                      struct{} `cbor:",toarray"`
		TargetAsset            *uint256.Int
		AmountOriginOwesTarget *uint256.Int
		AmountTargetOwesOrigin *uint256.Int
	}

	// OfferAttributes select the offer to decline or accept.
	OfferAttributes struct {
		_           struct{} `cbor:",toarray"`
		TargetAsset *uint256.Int
	}

	AssignAssetAttributes struct {
		_       struct{} `cbor:",toarray"`
		AssetID *uint256.Int
		URI     string
		To      types.Address
	}

	ApproveAssetAttributes struct {
		_          struct{} `cbor:",toarray"`
		AssetID    *uint256.Int
		Controller types.Address
	}

	ApproveOperatorAttributes struct {
		_        struct{} `cbor:",toarray"`
		Operator types.Address
		Approved bool
	}

	TransferAssetAttributes struct {
		_       struct{} `cbor:",toarray"`
		AssetID *uint256.Int
		From    types.Address
		To      types.Address
	}

	MintAttributes struct {
		_      struct{} `cbor:",toarray"`
		To     types.Address
		Amount *uint256.Int
	}

	PreauthorizeAttributes struct {
		_       struct{} `cbor:",toarray"`
		Spender types.Address
		Amount  *uint256.Int
	}

	TransferFundsAttributes struct {
		_      struct{} `cbor:",toarray"`
		To     types.Address
		Amount *uint256.Int
	}
)
