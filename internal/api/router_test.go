package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/api"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/config"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/metrics"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svcs := testutil.NewTestServices(t, db)
	return api.NewRouter(api.Services{
		System:    svcs.System,
		Sessions:  svcs.Sessions,
		Dashboard: svcs.Dashboard,
	}, config.Defaults(), metrics.New(prometheus.NewRegistry()), logging.NewNop())
}

// TestRouter_EndToEnd drives one session through every route.
func TestRouter_EndToEnd(t *testing.T) {
	router := newTestRouter(t)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "/api/system/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	records := testutil.NewSales("Widget").Days(45).Build()
	w = do(http.MethodPost, "/api/sessions", testutil.CSV(records))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	base := "/api/sessions/" + created.ID

	w = do(http.MethodPost, base+"/mapping", `{"productColumn":"Product Name","dateColumn":"Order Date","salesColumn":"Sales"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(http.MethodGet, base+"/dashboard", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodPost, base+"/forecast", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(http.MethodGet, base+"/forecast", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, base+"/products", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, base+"/chart?product=Widget", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "salescast_http_requests_total")
}

func TestRouter_RejectsInvalidSessionID(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/not-a-uuid/forecast", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
