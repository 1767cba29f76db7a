package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/rpc"
	"github.com/alphabill-org/assetswap/internal/types"
)

const (
	TransactionsPath = "api/v1/transactions"
	SwapsPath        = "api/v1/swaps"
	AssetsPath       = "api/v1/assets"
	AccountsPath     = "api/v1/accounts"
	EventsPath       = "api/v1/events"

	defaultScheme   = "http://"
	contentType     = "Content-Type"
	applicationJson = "application/json"
	applicationCbor = "application/cbor"

	paramSince = "since"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrRejected is returned when the node refused to execute the transaction.
	ErrRejected = errors.New("transaction rejected")
)

// SwapClient talks to the REST API of an asset swap node.
type SwapClient struct {
	BaseUrl    *url.URL
	HttpClient http.Client

	transactionsURL *url.URL
	swapsURL        *url.URL
	assetsURL       *url.URL
	accountsURL     *url.URL
	eventsURL       *url.URL
}

func New(baseUrl string) (*SwapClient, error) {
	if !strings.HasPrefix(baseUrl, "http://") && !strings.HasPrefix(baseUrl, "https://") {
		baseUrl = defaultScheme + baseUrl
	}
	u, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("error parsing swap node client base URL (%s): %w", baseUrl, err)
	}
	return &SwapClient{
		BaseUrl:         u,
		HttpClient:      http.Client{Timeout: time.Minute},
		transactionsURL: u.JoinPath(TransactionsPath),
		swapsURL:        u.JoinPath(SwapsPath),
		assetsURL:       u.JoinPath(AssetsPath),
		accountsURL:     u.JoinPath(AccountsPath),
		eventsURL:       u.JoinPath(EventsPath),
	}, nil
}

// SubmitTransaction sends the signed transaction to the node, the node executes it before responding.
func (c *SwapClient) SubmitTransaction(ctx context.Context, tx *types.TransactionOrder) (*rpc.TxResponse, error) {
	b, err := types.Cbor.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.transactionsURL.String(), bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to build submit transaction request: %w", err)
	}
	req.Header.Set(contentType, applicationCbor)
	res := &rpc.TxResponse{}
	if err := c.do(req, res); err != nil {
		return nil, fmt.Errorf("submitting %s transaction: %w", tx.PayloadType(), err)
	}
	return res, nil
}

func (c *SwapClient) GetSwap(ctx context.Context, address types.Address) (*rpc.SwapResponse, error) {
	res := &rpc.SwapResponse{}
	return res, c.get(ctx, c.swapsURL.JoinPath(address.Hex()), res)
}

func (c *SwapClient) GetSwapStatus(ctx context.Context, address types.Address) (*rpc.StatusResponse, error) {
	res := &rpc.StatusResponse{}
	return res, c.get(ctx, c.swapsURL.JoinPath(address.Hex(), "status"), res)
}

func (c *SwapClient) GetOffers(ctx context.Context, address types.Address) (*rpc.OffersResponse, error) {
	res := &rpc.OffersResponse{}
	return res, c.get(ctx, c.swapsURL.JoinPath(address.Hex(), "offers"), res)
}

func (c *SwapClient) GetAsset(ctx context.Context, id *uint256.Int) (*rpc.AssetResponse, error) {
	res := &rpc.AssetResponse{}
	return res, c.get(ctx, c.assetsURL.JoinPath(types.FormatUint256(id)), res)
}

func (c *SwapClient) GetBalance(ctx context.Context, holder types.Address) (*uint256.Int, error) {
	res := &rpc.BalanceResponse{}
	if err := c.get(ctx, c.accountsURL.JoinPath(holder.Hex(), "balance"), res); err != nil {
		return nil, err
	}
	return types.ParseUint256(res.Balance)
}

func (c *SwapClient) GetAllowance(ctx context.Context, owner, spender types.Address) (*uint256.Int, error) {
	res := &rpc.AllowanceResponse{}
	if err := c.get(ctx, c.accountsURL.JoinPath(owner.Hex(), "allowance", spender.Hex()), res); err != nil {
		return nil, err
	}
	return types.ParseUint256(res.Allowance)
}

func (c *SwapClient) IsOperator(ctx context.Context, holder, operator types.Address) (bool, error) {
	res := &rpc.OperatorResponse{}
	if err := c.get(ctx, c.accountsURL.JoinPath(holder.Hex(), "operators", operator.Hex()), res); err != nil {
		return false, err
	}
	return res.Approved, nil
}

// GetNonce returns the nonce the next transaction of the caller must carry.
func (c *SwapClient) GetNonce(ctx context.Context, caller types.Address) (uint64, error) {
	res := &rpc.NonceResponse{}
	if err := c.get(ctx, c.accountsURL.JoinPath(caller.Hex(), "nonce"), res); err != nil {
		return 0, err
	}
	return res.Nonce, nil
}

// GetEvents returns the retained events with sequence number greater than "since".
func (c *SwapClient) GetEvents(ctx context.Context, since uint64) ([]*rpc.EventResponse, error) {
	u := *c.eventsURL
	q := u.Query()
	q.Set(paramSince, strconv.FormatUint(since, 10))
	u.RawQuery = q.Encode()
	res := &rpc.EventsResponse{}
	if err := c.get(ctx, &u, res); err != nil {
		return nil, err
	}
	return res.Events, nil
}

func (c *SwapClient) get(ctx context.Context, u *url.URL, response any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(contentType, applicationJson)
	return c.do(req, response)
}

func (c *SwapClient) do(req *http.Request, response any) error {
	rsp, err := c.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", req.URL.Path, err)
	}
	defer rsp.Body.Close()

	responseData, err := io.ReadAll(rsp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if rsp.StatusCode != http.StatusOK {
		return decodeError(rsp.StatusCode, responseData)
	}
	if err := json.Unmarshal(responseData, response); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func decodeError(statusCode int, data []byte) error {
	er := &rpc.ErrorResponse{}
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, er); err == nil && er.Message != "" {
		msg = er.Message
	}
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case statusCode >= 400 && statusCode < 500:
		return fmt.Errorf("%w (status %d): %s", ErrRejected, statusCode, msg)
	default:
		return fmt.Errorf("unexpected response status code %d: %s", statusCode, msg)
	}
}
