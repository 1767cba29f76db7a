package node

import (
	"fmt"

	"github.com/alphabill-org/assetswap/internal/swap"
	"github.com/alphabill-org/assetswap/internal/types"
)

func (n *Node) txHandlers() map[string]txHandler {
	return map[string]txHandler{
		PayloadTypeDeploySwap: n.handleDeploySwap,
		PayloadTypeAddOffer: n.swapHandler(func(c *swap.Coordinator, caller types.Address, tx *types.TransactionOrder) error {
			attr, err := decode[AddOfferAttributes](tx)
			if err != nil {
				return err
			}
			return c.AddOffer(caller, attr.TargetAsset, attr.AmountOriginOwesTarget, attr.AmountTargetOwesOrigin)
		}),
		PayloadTypeDeclineOffer: n.swapHandler(func(c *swap.Coordinator, caller types.Address, tx *types.TransactionOrder) error {
			attr, err := decode[OfferAttributes](tx)
			if err != nil {
				return err
			}
			return c.DeclineOffer(caller, attr.TargetAsset)
		}),
		PayloadTypeAcceptOffer: n.swapHandler(func(c *swap.Coordinator, caller types.Address, tx *types.TransactionOrder) error {
			attr, err := decode[OfferAttributes](tx)
			if err != nil {
				return err
			}
			return c.AcceptOffer(caller, attr.TargetAsset)
		}),
		PayloadTypePayOriginToTarget: n.swapHandler(func(c *swap.Coordinator, caller types.Address, _ *types.TransactionOrder) error {
			return c.PayFromOriginToTarget(caller)
		}),
		PayloadTypePayTargetToOrigin: n.swapHandler(func(c *swap.Coordinator, caller types.Address, _ *types.TransactionOrder) error {
			return c.PayFromTargetToOrigin(caller)
		}),
		PayloadTypePerformSwap: n.swapHandler(func(c *swap.Coordinator, caller types.Address, _ *types.TransactionOrder) error {
			return c.PerformSwap(caller)
		}),

		PayloadTypeAssignAsset: handler(func(caller types.Address, attr *AssignAssetAttributes) error {
			return n.registry.AssignToken(caller, attr.AssetID, attr.URI, attr.To)
		}),
		PayloadTypeApproveAsset: handler(func(caller types.Address, attr *ApproveAssetAttributes) error {
			return n.registry.Approve(caller, attr.AssetID, attr.Controller)
		}),
		PayloadTypeApproveOperator: handler(func(caller types.Address, attr *ApproveOperatorAttributes) error {
			return n.registry.SetApprovalForAll(caller, attr.Operator, attr.Approved)
		}),
		PayloadTypeTransferAsset: handler(func(caller types.Address, attr *TransferAssetAttributes) error {
			return n.registry.TransferCustody(caller, attr.AssetID, attr.From, attr.To)
		}),

		PayloadTypeMint: handler(func(caller types.Address, attr *MintAttributes) error {
			return n.ledger.Mint(caller, attr.To, attr.Amount)
		}),
		PayloadTypePreauthorize: handler(func(caller types.Address, attr *PreauthorizeAttributes) error {
			return n.ledger.Preauthorize(caller, attr.Spender, attr.Amount)
		}),
		PayloadTypeTransferFunds: handler(func(caller types.Address, attr *TransferFundsAttributes) error {
			return n.ledger.Transfer(caller, attr.To, attr.Amount)
		}),
	}
}

// handleDeploySwap deploys a new swap administered by the caller. The swap address is derived
// from the caller and the nonce of the transaction.
func (n *Node) handleDeploySwap(caller types.Address, tx *types.TransactionOrder) (*TxResult, error) {
	attr, err := decode[DeploySwapAttributes](tx)
	if err != nil {
		return nil, err
	}
	c, err := swap.Deploy(n.env, caller, tx.Nonce(), attr.OriginAsset)
	if err != nil {
		return nil, err
	}
	return &TxResult{Swap: c.Address()}, nil
}

func (n *Node) swapHandler(op func(c *swap.Coordinator, caller types.Address, tx *types.TransactionOrder) error) txHandler {
	return func(caller types.Address, tx *types.TransactionOrder) (*TxResult, error) {
		c, err := swap.Open(n.env, tx.Target())
		if err != nil {
			return nil, err
		}
		if err := op(c, caller, tx); err != nil {
			return nil, err
		}
		return &TxResult{Swap: c.Address()}, nil
	}
}

func handler[T any](op func(caller types.Address, attr *T) error) txHandler {
	return func(caller types.Address, tx *types.TransactionOrder) (*TxResult, error) {
		attr, err := decode[T](tx)
		if err != nil {
			return nil, err
		}
		if err := op(caller, attr); err != nil {
			return nil, err
		}
		return &TxResult{}, nil
	}
}

func decode[T any](tx *types.TransactionOrder) (*T, error) {
	attr := new(T)
	if err := tx.UnmarshalAttributes(attr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAttributes, err)
	}
	return attr, nil
}
