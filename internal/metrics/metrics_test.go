package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounter_ExportedByPrometheusHandler(t *testing.T) {
	Enable()
	require.True(t, Enabled())

	c := GetOrRegisterCounter("assetswap/test/counter")
	c.Inc(3)
	require.EqualValues(t, 3, c.Count())
	// same name returns the same counter
	require.EqualValues(t, 3, GetOrRegisterCounter("assetswap/test/counter").Count())

	recorder := httptest.NewRecorder()
	PrometheusHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(recorder.Result().Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "assetswap_test_counter")
}
