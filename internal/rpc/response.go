package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/alphabill-org/assetswap/internal/node"
	"github.com/alphabill-org/assetswap/internal/swap"
	"github.com/alphabill-org/assetswap/internal/txsystem/money"
	"github.com/alphabill-org/assetswap/internal/txsystem/tokens"
	"github.com/alphabill-org/assetswap/internal/types"
)

type (
	ErrorResponse struct {
		Message string `json:"message"`
	}

	ResponseWriter struct {
		LogErr func(err error)
	}
)

func (rw *ResponseWriter) logError(err error) {
	if rw.LogErr != nil {
		rw.LogErr(err)
	}
}

func (rw *ResponseWriter) WriteResponse(w http.ResponseWriter, data any) {
	w.Header().Set(headerContentType, applicationJson)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rw.logError(fmt.Errorf("failed to encode response data as json: %w", err))
	}
}

// WriteErrorResponse responds with the status code matching the error.
func (rw *ResponseWriter) WriteErrorResponse(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		rw.logError(err)
	}
	rw.ErrorResponse(w, code, err)
}

func (rw *ResponseWriter) InvalidParamResponse(w http.ResponseWriter, name string, err error) {
	rw.ErrorResponse(w, http.StatusBadRequest, fmt.Errorf("invalid parameter %q: %w", name, err))
}

func (rw *ResponseWriter) ErrorResponse(w http.ResponseWriter, code int, err error) {
	w.Header().Set(headerContentType, applicationJson)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Message: err.Error()}); err != nil {
		rw.logError(fmt.Errorf("failed to encode error response as json: %w", err))
	}
}

// statusCode maps the error to a HTTP status, authorization errors take precedence over
// the errors they wrap.
func statusCode(err error) int {
	switch {
	case errors.Is(err, swap.ErrUnauthorized),
		errors.Is(err, swap.ErrNotAssetHolder),
		errors.Is(err, swap.ErrNotObligatedParty),
		errors.Is(err, tokens.ErrNotOwner),
		errors.Is(err, tokens.ErrNotAdministrator),
		errors.Is(err, money.ErrNotAdministrator),
		errors.Is(err, types.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, swap.ErrSwapNotFound),
		errors.Is(err, tokens.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, swap.ErrWrongState),
		errors.Is(err, swap.ErrSwapExists),
		errors.Is(err, tokens.ErrAssetExists),
		errors.Is(err, node.ErrInvalidNonce):
		return http.StatusConflict
	case errors.Is(err, swap.ErrPaymentFailed),
		errors.Is(err, swap.ErrSwapFailed),
		errors.Is(err, tokens.ErrNotApproved),
		errors.Is(err, money.ErrInsufficientAuthorization),
		errors.Is(err, money.ErrInsufficientBalance),
		errors.Is(err, money.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, swap.ErrInvalidCaller),
		errors.Is(err, swap.ErrInvalidAsset),
		errors.Is(err, swap.ErrInvalidTerms),
		errors.Is(err, swap.ErrUnknownOffer),
		errors.Is(err, tokens.ErrInvalidAssetID),
		errors.Is(err, tokens.ErrInvalidAddress),
		errors.Is(err, tokens.ErrHolderMismatch),
		errors.Is(err, tokens.ErrApprovalToHolder),
		errors.Is(err, tokens.ErrApprovalToCaller),
		errors.Is(err, money.ErrInvalidAddress),
		errors.Is(err, node.ErrTxIsNil),
		errors.Is(err, node.ErrUnknownPayloadType),
		errors.Is(err, node.ErrInvalidAttributes),
		errors.Is(err, types.ErrMissingPayload):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
