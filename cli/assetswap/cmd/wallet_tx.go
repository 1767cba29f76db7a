package cmd

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/alphabill-org/assetswap/internal/node"
	"github.com/alphabill-org/assetswap/internal/rpc"
	"github.com/alphabill-org/assetswap/internal/types"
	"github.com/alphabill-org/assetswap/pkg/client"
)

const (
	swapCmdFlag       = "swap"
	assetCmdFlagName  = "asset"
	toCmdFlag         = "to"
	fromCmdFlag       = "from"
	amountCmdFlag     = "amount"
	originPaysCmdFlag = "origin-pays"
	targetPaysCmdFlag = "target-pays"
)

// txSender signs transactions with the selected wallet key and submits them to the node.
type txSender struct {
	client  *client.SwapClient
	address types.Address
	key     *ecdsa.PrivateKey
}

func newTxSender(config *walletConfig) (*txSender, error) {
	ak, err := loadAccountKey(config)
	if err != nil {
		return nil, err
	}
	priv, err := ak.PrivateKey()
	if err != nil {
		return nil, err
	}
	c, err := client.New(config.NodeURL)
	if err != nil {
		return nil, err
	}
	return &txSender{client: c, address: ak.Address, key: priv}, nil
}

func (s *txSender) send(ctx context.Context, payloadType string, target types.Address, attr any) (*rpc.TxResponse, error) {
	nonce, err := s.client.GetNonce(ctx, s.address)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}
	tx, err := types.NewTransactionOrder(payloadType, target, attr, nonce)
	if err != nil {
		return nil, err
	}
	if err := tx.Sign(s.key); err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	res, err := s.client.SubmitTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	consoleWriter.Println(fmt.Sprintf("Transaction %s executed, nonce %d", payloadType, res.Nonce))
	return res, nil
}

// txCmd creates a command that sends a single transaction built by "attr".
func txCmd(config *walletConfig, use, short, payloadType string, target *addressValue, attr func() (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := attr()
			if err != nil {
				return err
			}
			s, err := newTxSender(config)
			if err != nil {
				return err
			}
			var t types.Address
			if target != nil {
				t = target.Value()
			}
			_, err = s.send(cmd.Context(), payloadType, t, a)
			return err
		},
	}
}

func requireSwap(cmd *cobra.Command, swap *addressValue) {
	cmd.Flags().Var(swap, swapCmdFlag, "address of the swap coordinator")
	_ = cmd.MarkFlagRequired(swapCmdFlag)
}

func requireAsset(cmd *cobra.Command, asset *uint256Value, usage string) {
	cmd.Flags().Var(asset, assetCmdFlagName, usage)
	_ = cmd.MarkFlagRequired(assetCmdFlagName)
}

func swapCmds(config *walletConfig) []*cobra.Command {
	return []*cobra.Command{
		deploySwapCmd(config),
		addOfferCmd(config),
		offerCmd(config, "decline", "declines (or withdraws) the offer for the target asset", node.PayloadTypeDeclineOffer),
		offerCmd(config, "accept", "accepts the offer for the target asset", node.PayloadTypeAcceptOffer),
		payCmd(config),
		performSwapCmd(config),
		showSwapCmd(config),
		eventsCmd(config),
	}
}

func deploySwapCmd(config *walletConfig) *cobra.Command {
	asset := newUint256Value(nil)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "deploys a new swap for the origin asset, the key becomes the administrator of the swap",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newTxSender(config)
			if err != nil {
				return err
			}
			res, err := s.send(cmd.Context(), node.PayloadTypeDeploySwap, types.ZeroAddress, &node.DeploySwapAttributes{OriginAsset: asset.Value()})
			if err != nil {
				return err
			}
			if res.Swap == nil {
				return errors.New("node did not return the swap address")
			}
			consoleWriter.Println("Swap deployed at " + res.Swap.Hex())
			return nil
		},
	}
	requireAsset(cmd, asset, "origin asset id")
	return cmd
}

func addOfferCmd(config *walletConfig) *cobra.Command {
	swap := &addressValue{}
	asset := newUint256Value(nil)
	originPays := newUint256Value(nil)
	targetPays := newUint256Value(nil)
	cmd := txCmd(config, "offer", "offers the target asset in exchange for the origin asset of the swap", node.PayloadTypeAddOffer, swap,
		func() (any, error) {
			return &node.AddOfferAttributes{
				TargetAsset:            asset.Value(),
				AmountOriginOwesTarget: originPays.Value(),
				AmountTargetOwesOrigin: targetPays.Value(),
			}, nil
		})
	requireSwap(cmd, swap)
	requireAsset(cmd, asset, "target asset id")
	cmd.Flags().Var(originPays, originPaysCmdFlag, "amount the origin holder pays to the proposer")
	cmd.Flags().Var(targetPays, targetPaysCmdFlag, "amount the proposer pays to the origin holder")
	cmd.MarkFlagsMutuallyExclusive(originPaysCmdFlag, targetPaysCmdFlag)
	return cmd
}

func offerCmd(config *walletConfig, use, short, payloadType string) *cobra.Command {
	swap := &addressValue{}
	asset := newUint256Value(nil)
	cmd := txCmd(config, use, short, payloadType, swap, func() (any, error) {
		return &node.OfferAttributes{TargetAsset: asset.Value()}, nil
	})
	requireSwap(cmd, swap)
	requireAsset(cmd, asset, "target asset id of the offer")
	return cmd
}

// payCmd preauthorizes the swap to move the owed amount and settles the payment.
func payCmd(config *walletConfig) *cobra.Command {
	swap := &addressValue{}
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "pays the amount the key owes according to the accepted offer",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newTxSender(config)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			instance, err := s.client.GetSwap(ctx, swap.Value())
			if err != nil {
				return err
			}
			payloadType, amount, err := obligation(instance, s.address)
			if err != nil {
				return err
			}
			if _, err := s.send(ctx, node.PayloadTypePreauthorize, types.ZeroAddress, &node.PreauthorizeAttributes{Spender: swap.Value(), Amount: amount}); err != nil {
				return err
			}
			_, err = s.send(ctx, payloadType, swap.Value(), nil)
			return err
		},
	}
	requireSwap(cmd, swap)
	return cmd
}

func obligation(s *rpc.SwapResponse, caller types.Address) (string, *uint256.Int, error) {
	if s.AcceptedOffer == nil {
		return "", nil, errors.New("swap has no accepted offer")
	}
	payloadType, owed := node.PayloadTypePayTargetToOrigin, s.AmountTargetOwesOrigin
	if caller == s.OriginHolder {
		payloadType, owed = node.PayloadTypePayOriginToTarget, s.AmountOriginOwesTarget
	} else if caller != s.AcceptedOffer.Proposer {
		return "", nil, fmt.Errorf("%s is not a party of the swap", caller.Hex())
	}
	amount, err := types.ParseUint256(owed)
	if err != nil {
		return "", nil, err
	}
	if amount.IsZero() {
		return "", nil, fmt.Errorf("%s owes nothing", caller.Hex())
	}
	return payloadType, amount, nil
}

func performSwapCmd(config *walletConfig) *cobra.Command {
	swap := &addressValue{}
	cmd := txCmd(config, "perform", "exchanges the assets of a swap that is ready", node.PayloadTypePerformSwap, swap, func() (any, error) {
		return nil, nil
	})
	requireSwap(cmd, swap)
	return cmd
}

func showSwapCmd(config *walletConfig) *cobra.Command {
	swap := &addressValue{}
	cmd := &cobra.Command{
		Use:   "show-swap",
		Short: "shows the state and the open offers of a swap",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(config.NodeURL)
			if err != nil {
				return err
			}
			instance, err := c.GetSwap(cmd.Context(), swap.Value())
			if err != nil {
				return err
			}
			offers, err := c.GetOffers(cmd.Context(), swap.Value())
			if err != nil {
				return err
			}
			return printJSON(struct {
				*rpc.SwapResponse
				Offers []*rpc.OfferResponse `json:"offers"`
			}{instance, offers.Offers})
		},
	}
	requireSwap(cmd, swap)
	return cmd
}

func eventsCmd(config *walletConfig) *cobra.Command {
	var since uint64
	cmd := &cobra.Command{
		Use:   "events",
		Short: "lists the recent swap events of the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(config.NodeURL)
			if err != nil {
				return err
			}
			events, err := c.GetEvents(cmd.Context(), since)
			if err != nil {
				return err
			}
			return printJSON(events)
		},
	}
	cmd.Flags().Uint64Var(&since, "since", 0, "list events with greater sequence number")
	return cmd
}

func assetCmds(config *walletConfig) []*cobra.Command {
	return []*cobra.Command{
		assignAssetCmd(config),
		approveAssetCmd(config),
		approveOperatorCmd(config),
		transferAssetCmd(config),
	}
}

func assignAssetCmd(config *walletConfig) *cobra.Command {
	asset := newUint256Value(nil)
	to := &addressValue{}
	var uri string
	cmd := txCmd(config, "assign-asset", "registers a new asset (administrator only)", node.PayloadTypeAssignAsset, nil, func() (any, error) {
		return &node.AssignAssetAttributes{AssetID: asset.Value(), URI: uri, To: to.Value()}, nil
	})
	requireAsset(cmd, asset, "id of the new asset")
	cmd.Flags().Var(to, toCmdFlag, "holder of the new asset")
	cmd.Flags().StringVar(&uri, "uri", "", "asset metadata uri")
	_ = cmd.MarkFlagRequired(toCmdFlag)
	return cmd
}

func approveAssetCmd(config *walletConfig) *cobra.Command {
	asset := newUint256Value(nil)
	controller := &addressValue{}
	cmd := txCmd(config, "approve-asset", "approves the controller (eg a swap) to transfer the asset", node.PayloadTypeApproveAsset, nil, func() (any, error) {
		return &node.ApproveAssetAttributes{AssetID: asset.Value(), Controller: controller.Value()}, nil
	})
	requireAsset(cmd, asset, "asset id")
	cmd.Flags().Var(controller, "controller", "approved address, zero address clears the approval")
	return cmd
}

func approveOperatorCmd(config *walletConfig) *cobra.Command {
	operator := &addressValue{}
	var revoke bool
	cmd := txCmd(config, "approve-operator", "approves the operator to transfer all assets of the key", node.PayloadTypeApproveOperator, nil, func() (any, error) {
		return &node.ApproveOperatorAttributes{Operator: operator.Value(), Approved: !revoke}, nil
	})
	cmd.Flags().Var(operator, "operator", "operator address")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revokes the approval")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

func transferAssetCmd(config *walletConfig) *cobra.Command {
	asset := newUint256Value(nil)
	from := &addressValue{}
	to := &addressValue{}
	cmd := txCmd(config, "transfer-asset", "transfers the custody of an asset", node.PayloadTypeTransferAsset, nil, func() (any, error) {
		return &node.TransferAssetAttributes{AssetID: asset.Value(), From: from.Value(), To: to.Value()}, nil
	})
	requireAsset(cmd, asset, "asset id")
	cmd.Flags().Var(from, fromCmdFlag, "current holder of the asset")
	cmd.Flags().Var(to, toCmdFlag, "new holder of the asset")
	_ = cmd.MarkFlagRequired(fromCmdFlag)
	_ = cmd.MarkFlagRequired(toCmdFlag)
	return cmd
}

func fundsCmds(config *walletConfig) []*cobra.Command {
	return []*cobra.Command{
		amountCmd(config, "mint", "creates new funds (administrator only)", node.PayloadTypeMint, toCmdFlag, func(to types.Address, amount *uint256.Int) any {
			return &node.MintAttributes{To: to, Amount: amount}
		}),
		amountCmd(config, "preauthorize", "sets the amount the spender may transfer on behalf of the key", node.PayloadTypePreauthorize, "spender", func(spender types.Address, amount *uint256.Int) any {
			return &node.PreauthorizeAttributes{Spender: spender, Amount: amount}
		}),
		amountCmd(config, "send", "sends funds to the receiver", node.PayloadTypeTransferFunds, toCmdFlag, func(to types.Address, amount *uint256.Int) any {
			return &node.TransferFundsAttributes{To: to, Amount: amount}
		}),
		balanceCmd(config),
	}
}

func amountCmd(config *walletConfig, use, short, payloadType, addressFlag string, attr func(types.Address, *uint256.Int) any) *cobra.Command {
	address := &addressValue{}
	amount := newUint256Value(nil)
	cmd := txCmd(config, use, short, payloadType, nil, func() (any, error) {
		return attr(address.Value(), amount.Value()), nil
	})
	cmd.Flags().Var(address, addressFlag, addressFlag+" address")
	cmd.Flags().Var(amount, amountCmdFlag, "amount")
	_ = cmd.MarkFlagRequired(addressFlag)
	_ = cmd.MarkFlagRequired(amountCmdFlag)
	return cmd
}

func balanceCmd(config *walletConfig) *cobra.Command {
	address := &addressValue{}
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "shows the balance of the key (or of the given address)",
		RunE: func(cmd *cobra.Command, args []string) error {
			holder := address.Value()
			if types.IsZeroAddress(holder) {
				ak, err := loadAccountKey(config)
				if err != nil {
					return err
				}
				holder = ak.Address
			}
			c, err := client.New(config.NodeURL)
			if err != nil {
				return err
			}
			balance, err := c.GetBalance(cmd.Context(), holder)
			if err != nil {
				return err
			}
			consoleWriter.Println(types.FormatUint256(balance))
			return nil
		},
	}
	cmd.Flags().Var(address, "address", "address to query, defaults to the address of the key")
	return cmd
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	consoleWriter.Println(string(b))
	return nil
}
