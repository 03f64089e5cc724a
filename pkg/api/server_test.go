package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudwatch/pkg/model"
	"fraudwatch/pkg/window"
)

type fakeRefresher struct {
	called window.Horizon
	err    error
	fill   []model.Transaction
	store  *window.Store
}

func (f *fakeRefresher) Refresh(ctx context.Context, h window.Horizon) error {
	f.called = h
	if f.err != nil {
		return f.err
	}
	f.store.Replace(h, f.fill)
	return nil
}

func setupServer(t *testing.T) (*Server, *window.Store) {
	t.Helper()
	store := window.NewStore()
	store.Replace(window.LastHour, []model.Transaction{
		{TransactionID: "1", Amount: 50, Fraud: true, MerchantName: "fraud_ShopA", State: "TX"},
		{TransactionID: "2", Amount: 30, Fraud: false, MerchantName: "ShopB", State: "CA"},
	})
	return NewServer(store, nil, DefaultServerConfig()), store
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleWindows(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodGet, "/windows")

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Windows map[string]int `json:"windows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Windows, 5)
	assert.Equal(t, 2, body.Windows["1h"])
	assert.Equal(t, 0, body.Windows["all"])
}

func TestHandleWindow(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodGet, "/windows/1h")

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Window       string              `json:"window"`
		Count        int                 `json:"count"`
		Transactions []model.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1h", body.Window)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Transactions, 2)
	assert.Equal(t, "1", body.Transactions[0].TransactionID)
}

func TestHandleWindowLimit(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodGet, "/windows/1h?limit=1")

	var body struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Transactions, 1)
	// The limit keeps the tail: the newest arrivals.
	assert.Equal(t, "2", body.Transactions[0].TransactionID)
}

func TestHandleWindowUnknownHorizon(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodGet, "/windows/45m")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleStats(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodGet, "/windows/1h/stats")

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Total      int     `json:"totalTransactions"`
		FraudCount int     `json:"fraudCount"`
		FraudRate  float64 `json:"fraudRate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 1, body.FraudCount)
	assert.InDelta(t, 50.0, body.FraudRate, 0.01)
}

func TestHandlePatterns(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodGet, "/windows/1h/patterns")

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TopMerchant struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"topMerchant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ShopA", body.TopMerchant.Name)
	assert.Equal(t, 1, body.TopMerchant.Count)
}

func TestHandleAgeSegments(t *testing.T) {
	s, _ := setupServer(t)

	w := doRequest(t, s, http.MethodGet, "/windows/12h/age-segments")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Segments []struct {
			Age string `json:"age"`
		} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Segments, 6)

	w = doRequest(t, s, http.MethodGet, "/windows/12h/age-segments?banding=four")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Segments, 4)

	w = doRequest(t, s, http.MethodGet, "/windows/12h/age-segments?banding=five")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRefresh(t *testing.T) {
	store := window.NewStore()
	refresher := &fakeRefresher{
		store: store,
		fill:  []model.Transaction{{TransactionID: "fresh"}},
	}
	s := NewServer(store, refresher, DefaultServerConfig())

	w := doRequest(t, s, http.MethodPost, "/windows/30m/refresh")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, window.Last30Minutes, refresher.called)
	assert.Equal(t, 1, store.Len(window.Last30Minutes))
}

func TestHandleRefreshFailure(t *testing.T) {
	store := window.NewStore()
	refresher := &fakeRefresher{store: store, err: errors.New("feed down")}
	s := NewServer(store, refresher, DefaultServerConfig())

	w := doRequest(t, s, http.MethodPost, "/windows/30m/refresh")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleRefreshUnbounded(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodPost, "/windows/all/refresh")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRefreshNoRefresher(t *testing.T) {
	s, _ := setupServer(t)
	w := doRequest(t, s, http.MethodPost, "/windows/1h/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
