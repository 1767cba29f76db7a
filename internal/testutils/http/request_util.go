package testhttp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/assetswap/internal/types"
)

// DoGet sends a GET request and decodes the JSON response body into response.
func DoGet(t *testing.T, url string, response interface{}) *http.Response {
	t.Helper()
	httpRes, err := http.Get(url) // #nosec G107
	require.NoError(t, err)
	defer func() { _ = httpRes.Body.Close() }()
	resBytes, err := io.ReadAll(httpRes.Body)
	require.NoError(t, err)
	t.Logf("GET %s response: %s", url, resBytes)
	if response != nil {
		require.NoError(t, json.NewDecoder(bytes.NewReader(resBytes)).Decode(response))
	}
	return httpRes
}

// DoPostCBOR posts the CBOR encoding of req and decodes the JSON response body into res.
func DoPostCBOR(t *testing.T, url string, req interface{}, res interface{}) *http.Response {
	t.Helper()
	reqBodyBytes, err := types.Cbor.Marshal(req)
	require.NoError(t, err)
	httpRes, err := http.Post(url, "application/cbor", bytes.NewBuffer(reqBodyBytes)) // #nosec G107
	require.NoError(t, err)
	defer func() { _ = httpRes.Body.Close() }()
	resBytes, err := io.ReadAll(httpRes.Body)
	require.NoError(t, err)
	t.Logf("POST %s response: %s", url, resBytes)
	if res != nil {
		require.NoError(t, json.NewDecoder(bytes.NewReader(resBytes)).Decode(res))
	}
	return httpRes
}
