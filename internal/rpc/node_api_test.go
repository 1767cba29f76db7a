package rpc

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/assetswap/internal/node"
	"github.com/alphabill-org/assetswap/internal/swap"
	testsig "github.com/alphabill-org/assetswap/internal/testutils/sig"
	"github.com/alphabill-org/assetswap/internal/types"
)

var (
	originAsset = uint256.NewInt(1)
	targetAsset = uint256.NewInt(2)
)

type testParty struct {
	key     *ecdsa.PrivateKey
	address types.Address
}

type apiTest struct {
	node     *node.Node
	eventLog *node.EventLog
	handler  http.Handler
	admin    *testParty
	holderA  *testParty
	holderB  *testParty
}

func newParty(t *testing.T) *testParty {
	key, address := testsig.CreateKey(t)
	return &testParty{key: key, address: address}
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	at := &apiTest{admin: newParty(t), holderA: newParty(t), holderB: newParty(t)}
	n, err := node.New(&node.Genesis{
		Administrator: at.admin.address.Hex(),
		Assets: []node.GenesisAsset{
			{ID: "1", URI: "https://www.tokenUriOrigin.com", Holder: at.holderA.address.Hex()},
			{ID: "2", URI: "https://www.tokenUriTarget.com", Holder: at.holderB.address.Hex()},
		},
		Balances: []node.GenesisBalance{{Address: at.holderB.address.Hex(), Amount: "2000"}},
	})
	require.NoError(t, err)
	at.node = n
	at.eventLog, err = node.NewEventLog(n.EventBus(), 100)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = at.eventLog.Run(ctx) }()
	at.handler = NewRESTServer("", DefaultMaxBodyBytes, NodeEndpoints(n, at.eventLog), MetricsEndpoints()).Handler
	return at
}

func (at *apiTest) signedTx(t *testing.T, p *testParty, payloadType string, target types.Address, attr any) []byte {
	t.Helper()
	tx := testsig.SignedTx(t, p.key, payloadType, target, attr, at.node.Nonce(p.address))
	b, err := tx.Bytes()
	require.NoError(t, err)
	return b
}

func (at *apiTest) post(t *testing.T, p *testParty, payloadType string, target types.Address, attr any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(at.signedTx(t, p, payloadType, target, attr)))
	req.Header.Set(headerContentType, applicationCBOR)
	recorder := httptest.NewRecorder()
	at.handler.ServeHTTP(recorder, req)
	return recorder
}

func (at *apiTest) mustPost(t *testing.T, p *testParty, payloadType string, target types.Address, attr any) *TxResponse {
	t.Helper()
	recorder := at.post(t, p, payloadType, target, attr)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	res := &TxResponse{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(res))
	return res
}

func (at *apiTest) get(t *testing.T, path string, response any) int {
	t.Helper()
	recorder := httptest.NewRecorder()
	at.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1"+path, nil))
	if response != nil && recorder.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(response))
	}
	return recorder.Code
}

func TestNodeAPI_SwapWithPayment(t *testing.T) {
	at := newAPITest(t)

	res := at.mustPost(t, at.admin, node.PayloadTypeDeploySwap, types.ZeroAddress, &node.DeploySwapAttributes{OriginAsset: originAsset})
	require.NotNil(t, res.Swap)
	addr := *res.Swap
	require.Equal(t, at.admin.address, res.Caller)
	require.Equal(t, node.PayloadTypeDeploySwap, res.Type)

	swapRes := &SwapResponse{}
	require.Equal(t, http.StatusOK, at.get(t, "/swaps/"+addr.Hex(), swapRes))
	require.Equal(t, at.holderA.address, swapRes.OriginHolder)
	require.Equal(t, "1", swapRes.OriginAsset)
	require.EqualValues(t, 0, swapRes.Status)
	require.Equal(t, "OPEN", swapRes.StatusName)
	require.Nil(t, swapRes.AcceptedOffer)

	res = at.mustPost(t, at.holderB, node.PayloadTypeAddOffer, addr, &node.AddOfferAttributes{TargetAsset: targetAsset, AmountTargetOwesOrigin: uint256.NewInt(1653)})
	require.Len(t, res.Events, 1)
	require.Equal(t, string(swap.EventNewOffer), res.Events[0].Type)
	require.Equal(t, "2", res.Events[0].TargetAsset)
	require.Equal(t, at.holderB.address, *res.Events[0].Proposer)

	offers := &OffersResponse{}
	require.Equal(t, http.StatusOK, at.get(t, "/swaps/"+addr.Hex()+"/offers", offers))
	require.Equal(t, 1, offers.OpenOfferCount)
	require.Len(t, offers.Offers, 1)
	require.Equal(t, "1653", offers.Offers[0].AmountTargetOwesOrigin)

	res = at.mustPost(t, at.holderA, node.PayloadTypeAcceptOffer, addr, &node.OfferAttributes{TargetAsset: targetAsset})
	require.Equal(t, "AWAITING_PAYMENT", res.Events[0].Status)
	status := &StatusResponse{}
	require.Equal(t, http.StatusOK, at.get(t, "/swaps/"+addr.Hex()+"/status", status))
	require.Equal(t, StatusResponse{Status: 1, Name: "AWAITING_PAYMENT"}, *status)
	require.Equal(t, http.StatusOK, at.get(t, "/swaps/"+addr.Hex()+"/offers", offers))
	require.Zero(t, offers.OpenOfferCount)
	require.Empty(t, offers.Offers)

	at.mustPost(t, at.holderB, node.PayloadTypePreauthorize, types.ZeroAddress, &node.PreauthorizeAttributes{Spender: addr, Amount: uint256.NewInt(1653)})
	allowance := &AllowanceResponse{}
	require.Equal(t, http.StatusOK, at.get(t, fmt.Sprintf("/accounts/%s/allowance/%s", at.holderB.address.Hex(), addr.Hex()), allowance))
	require.Equal(t, "1653", allowance.Allowance)

	res = at.mustPost(t, at.holderB, node.PayloadTypePayTargetToOrigin, addr, nil)
	require.Equal(t, string(swap.EventPaymentSettled), res.Events[0].Type)
	require.Equal(t, "1653", res.Events[0].Amount)

	at.mustPost(t, at.holderA, node.PayloadTypeApproveAsset, types.ZeroAddress, &node.ApproveAssetAttributes{AssetID: originAsset, Controller: addr})
	asset := &AssetResponse{}
	require.Equal(t, http.StatusOK, at.get(t, "/assets/1", asset))
	require.Equal(t, addr, asset.Approved)
	at.mustPost(t, at.holderB, node.PayloadTypeApproveOperator, types.ZeroAddress, &node.ApproveOperatorAttributes{Operator: addr, Approved: true})
	operator := &OperatorResponse{}
	require.Equal(t, http.StatusOK, at.get(t, fmt.Sprintf("/accounts/%s/operators/%s", at.holderB.address.Hex(), addr.Hex()), operator))
	require.True(t, operator.Approved)

	res = at.mustPost(t, at.admin, node.PayloadTypePerformSwap, addr, nil)
	require.Equal(t, string(swap.EventSwapSettled), res.Events[0].Type)
	require.Equal(t, "1", res.Events[0].OriginAsset)
	require.Equal(t, "2", res.Events[0].TargetAsset)

	require.Equal(t, http.StatusOK, at.get(t, "/assets/1", asset))
	require.Equal(t, at.holderB.address, asset.Holder)
	require.Equal(t, "https://www.tokenUriOrigin.com", asset.URI)
	require.Equal(t, http.StatusOK, at.get(t, "/assets/0x02", asset))
	require.Equal(t, at.holderA.address, asset.Holder)

	balance := &BalanceResponse{}
	require.Equal(t, http.StatusOK, at.get(t, "/accounts/"+at.holderA.address.Hex()+"/balance", balance))
	require.Equal(t, "1653", balance.Balance)
	require.Equal(t, http.StatusOK, at.get(t, "/accounts/"+at.holderB.address.Hex()+"/balance", balance))
	require.Equal(t, "347", balance.Balance)

	nonce := &NonceResponse{}
	require.Equal(t, http.StatusOK, at.get(t, "/accounts/"+at.admin.address.Hex()+"/nonce", nonce))
	require.EqualValues(t, 2, nonce.Nonce)

	require.Equal(t, http.StatusOK, at.get(t, "/swaps/"+addr.Hex(), swapRes))
	require.Equal(t, "SETTLED", swapRes.StatusName)
	require.True(t, swapRes.PaymentSettled)
	require.Equal(t, at.holderB.address, swapRes.AcceptedOffer.Proposer)
}

func TestNodeAPI_ErrorStatusCodes(t *testing.T) {
	at := newAPITest(t)
	res := at.mustPost(t, at.admin, node.PayloadTypeDeploySwap, types.ZeroAddress, &node.DeploySwapAttributes{OriginAsset: originAsset})
	addr := *res.Swap
	at.mustPost(t, at.holderB, node.PayloadTypeAddOffer, addr, &node.AddOfferAttributes{TargetAsset: targetAsset})

	tests := []struct {
		name        string
		party       *testParty
		payloadType string
		target      types.Address
		attr        any
		code        int
	}{
		{name: "unauthorized accept", party: at.holderB, payloadType: node.PayloadTypeAcceptOffer, target: addr, attr: &node.OfferAttributes{TargetAsset: targetAsset}, code: http.StatusForbidden},
		{name: "unknown offer", party: at.holderA, payloadType: node.PayloadTypeAcceptOffer, target: addr, attr: &node.OfferAttributes{TargetAsset: uint256.NewInt(5)}, code: http.StatusBadRequest},
		{name: "unknown swap", party: at.holderA, payloadType: node.PayloadTypeAcceptOffer, target: types.Address{1}, attr: &node.OfferAttributes{TargetAsset: targetAsset}, code: http.StatusNotFound},
		{name: "wrong state", party: at.holderB, payloadType: node.PayloadTypePerformSwap, target: addr, code: http.StatusConflict},
		{name: "insufficient balance", party: at.holderA, payloadType: node.PayloadTypeTransferFunds, attr: &node.TransferFundsAttributes{To: at.holderB.address, Amount: uint256.NewInt(1)}, code: http.StatusUnprocessableEntity},
		{name: "unknown type", party: at.holderA, payloadType: "unknown", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := at.post(t, tt.party, tt.payloadType, tt.target, tt.attr)
			require.Equal(t, tt.code, recorder.Code, recorder.Body.String())
			errRes := &ErrorResponse{}
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(errRes))
			require.NotEmpty(t, errRes.Message)
		})
	}
}

func TestNodeAPI_InvalidRequests(t *testing.T) {
	at := newAPITest(t)

	recorder := httptest.NewRecorder()
	at.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader([]byte{0x00})))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "unable to decode request body as transaction")

	require.Equal(t, http.StatusBadRequest, at.get(t, "/swaps/0x01", nil))
	require.Equal(t, http.StatusNotFound, at.get(t, "/swaps/"+at.holderA.address.Hex(), nil))
	require.Equal(t, http.StatusBadRequest, at.get(t, "/assets/abc", nil))
	require.Equal(t, http.StatusNotFound, at.get(t, "/assets/99", nil))
	require.Equal(t, http.StatusBadRequest, at.get(t, "/accounts/xyz/balance", nil))
	require.Equal(t, http.StatusBadRequest, at.get(t, "/events?since=-1", nil))
	require.Equal(t, http.StatusNotFound, at.get(t, "/unknown", nil))
}
