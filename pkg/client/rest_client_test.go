package client

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/assetswap/internal/node"
	"github.com/alphabill-org/assetswap/internal/rpc"
	"github.com/alphabill-org/assetswap/internal/swap"
	test "github.com/alphabill-org/assetswap/internal/testutils"
	testsig "github.com/alphabill-org/assetswap/internal/testutils/sig"
	"github.com/alphabill-org/assetswap/internal/types"
)

var (
	originAsset = uint256.NewInt(1)
	targetAsset = uint256.NewInt(2)
)

type party struct {
	key     *ecdsa.PrivateKey
	address types.Address
}

func newParty(t *testing.T) *party {
	key, address := testsig.CreateKey(t)
	return &party{key: key, address: address}
}

func startNode(t *testing.T, admin, holderA, holderB *party) *SwapClient {
	t.Helper()
	n, err := node.New(&node.Genesis{
		Administrator: admin.address.Hex(),
		Assets: []node.GenesisAsset{
			{ID: "1", URI: "https://www.tokenUriOrigin.com", Holder: holderA.address.Hex()},
			{ID: "2", URI: "https://www.tokenUriTarget.com", Holder: holderB.address.Hex()},
		},
		Balances: []node.GenesisBalance{{Address: holderB.address.Hex(), Amount: "2000"}},
	})
	require.NoError(t, err)
	eventLog, err := node.NewEventLog(n.EventBus(), 100)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = eventLog.Run(ctx) }()

	server := httptest.NewServer(rpc.NewRESTServer("", rpc.DefaultMaxBodyBytes, rpc.NodeEndpoints(n, eventLog)).Handler)
	t.Cleanup(server.Close)
	c, err := New(server.URL)
	require.NoError(t, err)
	return c
}

func submit(t *testing.T, c *SwapClient, p *party, payloadType string, target types.Address, attr any) *rpc.TxResponse {
	t.Helper()
	ctx := context.Background()
	nonce, err := c.GetNonce(ctx, p.address)
	require.NoError(t, err)
	res, err := c.SubmitTransaction(ctx, testsig.SignedTx(t, p.key, payloadType, target, attr, nonce))
	require.NoError(t, err)
	return res
}

func TestSwapWithPayment(t *testing.T) {
	admin, holderA, holderB := newParty(t), newParty(t), newParty(t)
	c := startNode(t, admin, holderA, holderB)
	ctx := context.Background()

	res := submit(t, c, admin, node.PayloadTypeDeploySwap, types.ZeroAddress, &node.DeploySwapAttributes{OriginAsset: originAsset})
	require.NotNil(t, res.Swap)
	swapAddr := *res.Swap
	require.Equal(t, swap.Address(admin.address, 0), swapAddr)

	submit(t, c, holderB, node.PayloadTypeAddOffer, swapAddr, &node.AddOfferAttributes{
		TargetAsset:            targetAsset,
		AmountOriginOwesTarget: uint256.NewInt(0),
		AmountTargetOwesOrigin: uint256.NewInt(347),
	})
	offers, err := c.GetOffers(ctx, swapAddr)
	require.NoError(t, err)
	require.Equal(t, 1, offers.OpenOfferCount)
	require.Equal(t, "2", offers.Offers[0].TargetAsset)
	require.Equal(t, holderB.address, offers.Offers[0].Proposer)

	submit(t, c, holderA, node.PayloadTypeAcceptOffer, swapAddr, &node.OfferAttributes{TargetAsset: targetAsset})
	status, err := c.GetSwapStatus(ctx, swapAddr)
	require.NoError(t, err)
	require.EqualValues(t, swap.StatusAwaitingPayment, status.Status)

	submit(t, c, holderB, node.PayloadTypePreauthorize, types.ZeroAddress, &node.PreauthorizeAttributes{Spender: swapAddr, Amount: uint256.NewInt(347)})
	allowance, err := c.GetAllowance(ctx, holderB.address, swapAddr)
	require.NoError(t, err)
	require.EqualValues(t, 347, allowance.Uint64())

	submit(t, c, holderB, node.PayloadTypePayTargetToOrigin, swapAddr, nil)
	submit(t, c, holderA, node.PayloadTypeApproveAsset, types.ZeroAddress, &node.ApproveAssetAttributes{AssetID: originAsset, Controller: swapAddr})
	submit(t, c, holderB, node.PayloadTypeApproveAsset, types.ZeroAddress, &node.ApproveAssetAttributes{AssetID: targetAsset, Controller: swapAddr})
	submit(t, c, admin, node.PayloadTypePerformSwap, swapAddr, nil)

	s, err := c.GetSwap(ctx, swapAddr)
	require.NoError(t, err)
	require.Equal(t, swap.StatusSettled.String(), s.StatusName)
	require.True(t, s.PaymentSettled)
	require.Equal(t, "347", s.AmountTargetOwesOrigin)

	asset, err := c.GetAsset(ctx, originAsset)
	require.NoError(t, err)
	require.Equal(t, holderB.address, asset.Holder)
	asset, err = c.GetAsset(ctx, targetAsset)
	require.NoError(t, err)
	require.Equal(t, holderA.address, asset.Holder)

	balance, err := c.GetBalance(ctx, holderA.address)
	require.NoError(t, err)
	require.EqualValues(t, 347, balance.Uint64())
	balance, err = c.GetBalance(ctx, holderB.address)
	require.NoError(t, err)
	require.EqualValues(t, 1653, balance.Uint64())

	require.Eventually(t, func() bool {
		events, err := c.GetEvents(ctx, 0)
		return err == nil && len(events) == 4 && events[3].Type == string(swap.EventSwapSettled)
	}, test.WaitDuration, test.WaitTick)
}

func TestOperatorQuery(t *testing.T) {
	admin, holderA, holderB := newParty(t), newParty(t), newParty(t)
	c := startNode(t, admin, holderA, holderB)

	approved, err := c.IsOperator(context.Background(), holderA.address, holderB.address)
	require.NoError(t, err)
	require.False(t, approved)

	submit(t, c, holderA, node.PayloadTypeApproveOperator, types.ZeroAddress, &node.ApproveOperatorAttributes{Operator: holderB.address, Approved: true})
	approved, err = c.IsOperator(context.Background(), holderA.address, holderB.address)
	require.NoError(t, err)
	require.True(t, approved)
}

func TestErrors(t *testing.T) {
	admin, holderA, holderB := newParty(t), newParty(t), newParty(t)
	c := startNode(t, admin, holderA, holderB)
	ctx := context.Background()

	_, err := c.GetSwap(ctx, types.Address{1})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = c.GetAsset(ctx, uint256.NewInt(99))
	require.ErrorIs(t, err, ErrNotFound)

	// holder A can not offer for its own swap
	res := submit(t, c, admin, node.PayloadTypeDeploySwap, types.ZeroAddress, &node.DeploySwapAttributes{OriginAsset: originAsset})
	nonce, err := c.GetNonce(ctx, holderA.address)
	require.NoError(t, err)
	tx := testsig.SignedTx(t, holderA.key, node.PayloadTypeAddOffer, *res.Swap, &node.AddOfferAttributes{TargetAsset: targetAsset}, nonce)
	_, err = c.SubmitTransaction(ctx, tx)
	require.ErrorIs(t, err, ErrRejected)
	require.ErrorContains(t, err, "origin holder can not make an offer")
}

func TestDecodeError(t *testing.T) {
	err := decodeError(http.StatusInternalServerError, []byte("boom"))
	require.EqualError(t, err, "unexpected response status code 500: boom")
	err = decodeError(http.StatusConflict, []byte(`{"message":"wrong state"}`))
	require.ErrorIs(t, err, ErrRejected)
	require.ErrorContains(t, err, "wrong state")
}

func TestNew(t *testing.T) {
	c, err := New("localhost:9654")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9654/api/v1/transactions", c.transactionsURL.String())
	require.Equal(t, "http://localhost:9654/api/v1/swaps", c.swapsURL.String())
}
