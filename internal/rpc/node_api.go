package rpc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/node"
	"github.com/alphabill-org/assetswap/internal/swap"
	"github.com/alphabill-org/assetswap/internal/types"
)

type (
	swapNode interface {
		SubmitTx(ctx context.Context, tx *types.TransactionOrder) (*node.TxResult, error)
		Swap(address types.Address) (*swap.Instance, error)
		Asset(assetID *uint256.Int) (*node.AssetInfo, error)
		IsOperator(holder, operator types.Address) bool
		Balance(holder types.Address) *uint256.Int
		Allowance(owner, spender types.Address) *uint256.Int
		Nonce(address types.Address) uint64
	}

	eventSource interface {
		Since(seq uint64) []*node.LoggedEvent
	}

	nodeAPI struct {
		node   swapNode
		events eventSource
		rw     *ResponseWriter
	}
)

// NodeEndpoints registers the transaction and query endpoints of the node. Events endpoint
// is registered only when the event source is not nil.
func NodeEndpoints(n swapNode, events eventSource) RegistrarFunc {
	return func(r *mux.Router) {
		api := &nodeAPI{node: n, events: events, rw: &ResponseWriter{LogErr: func(err error) { log.Error("%v", err) }}}

		// OPTIONS method needs to be explicitly defined for each handler func for the cors filter
		r.HandleFunc("/transactions", api.submitTransaction).Methods(http.MethodPost, http.MethodOptions)
		r.HandleFunc("/swaps/{address}", api.getSwap).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/swaps/{address}/status", api.getSwapStatus).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/swaps/{address}/offers", api.getSwapOffers).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/assets/{id}", api.getAsset).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/accounts/{address}/balance", api.getBalance).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/accounts/{address}/allowance/{spender}", api.getAllowance).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/accounts/{address}/operators/{operator}", api.getOperator).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/accounts/{address}/nonce", api.getNonce).Methods(http.MethodGet, http.MethodOptions)
		if events != nil {
			r.HandleFunc("/events", api.getEvents).Methods(http.MethodGet, http.MethodOptions)
		}
	}
}

func (api *nodeAPI) submitTransaction(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		api.rw.ErrorResponse(w, http.StatusBadRequest, fmt.Errorf("reading request body failed: %w", err))
		return
	}
	tx := &types.TransactionOrder{}
	if err := types.Cbor.Unmarshal(buf, tx); err != nil {
		api.rw.ErrorResponse(w, http.StatusBadRequest, fmt.Errorf("unable to decode request body as transaction: %w", err))
		return
	}
	res, err := api.node.SubmitTx(r.Context(), tx)
	if err != nil {
		api.rw.WriteErrorResponse(w, err)
		return
	}
	api.rw.WriteResponse(w, newTxResponse(res))
}

func (api *nodeAPI) getSwap(w http.ResponseWriter, r *http.Request) {
	instance, ok := api.swapInstance(w, r)
	if !ok {
		return
	}
	api.rw.WriteResponse(w, newSwapResponse(instance))
}

func (api *nodeAPI) getSwapStatus(w http.ResponseWriter, r *http.Request) {
	instance, ok := api.swapInstance(w, r)
	if !ok {
		return
	}
	api.rw.WriteResponse(w, &StatusResponse{Status: uint8(instance.Status), Name: instance.Status.String()})
}

func (api *nodeAPI) getSwapOffers(w http.ResponseWriter, r *http.Request) {
	instance, ok := api.swapInstance(w, r)
	if !ok {
		return
	}
	api.rw.WriteResponse(w, newOffersResponse(instance))
}

func (api *nodeAPI) getAsset(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseUint256(mux.Vars(r)["id"])
	if err != nil {
		api.rw.InvalidParamResponse(w, "id", err)
		return
	}
	asset, err := api.node.Asset(id)
	if err != nil {
		api.rw.WriteErrorResponse(w, err)
		return
	}
	api.rw.WriteResponse(w, newAssetResponse(asset))
}

func (api *nodeAPI) getBalance(w http.ResponseWriter, r *http.Request) {
	address, ok := api.addressParam(w, r, "address")
	if !ok {
		return
	}
	api.rw.WriteResponse(w, &BalanceResponse{Balance: types.FormatUint256(api.node.Balance(address))})
}

func (api *nodeAPI) getAllowance(w http.ResponseWriter, r *http.Request) {
	owner, ok := api.addressParam(w, r, "address")
	if !ok {
		return
	}
	spender, ok := api.addressParam(w, r, "spender")
	if !ok {
		return
	}
	api.rw.WriteResponse(w, &AllowanceResponse{Allowance: types.FormatUint256(api.node.Allowance(owner, spender))})
}

func (api *nodeAPI) getOperator(w http.ResponseWriter, r *http.Request) {
	holder, ok := api.addressParam(w, r, "address")
	if !ok {
		return
	}
	operator, ok := api.addressParam(w, r, "operator")
	if !ok {
		return
	}
	api.rw.WriteResponse(w, &OperatorResponse{Approved: api.node.IsOperator(holder, operator)})
}

func (api *nodeAPI) getNonce(w http.ResponseWriter, r *http.Request) {
	address, ok := api.addressParam(w, r, "address")
	if !ok {
		return
	}
	api.rw.WriteResponse(w, &NonceResponse{Nonce: api.node.Nonce(address)})
}

func (api *nodeAPI) getEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if s := r.URL.Query().Get("since"); s != "" {
		var err error
		if since, err = strconv.ParseUint(s, 10, 64); err != nil {
			api.rw.InvalidParamResponse(w, "since", err)
			return
		}
	}
	res := &EventsResponse{Events: []*EventResponse{}}
	for _, e := range api.events.Since(since) {
		res.Events = append(res.Events, newEventResponse(e.Seq, e.Event))
	}
	api.rw.WriteResponse(w, res)
}

func (api *nodeAPI) swapInstance(w http.ResponseWriter, r *http.Request) (*swap.Instance, bool) {
	address, ok := api.addressParam(w, r, "address")
	if !ok {
		return nil, false
	}
	instance, err := api.node.Swap(address)
	if err != nil {
		api.rw.WriteErrorResponse(w, err)
		return nil, false
	}
	return instance, true
}

func (api *nodeAPI) addressParam(w http.ResponseWriter, r *http.Request, name string) (types.Address, bool) {
	address, err := types.ParseAddress(mux.Vars(r)[name])
	if err != nil {
		api.rw.InvalidParamResponse(w, name, err)
		return types.ZeroAddress, false
	}
	return address, true
}
