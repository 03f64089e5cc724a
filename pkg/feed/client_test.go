package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(Config{BaseURL: server.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return client
}

func TestHTTPClient_MostRecent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/last_transaction" {
			t.Errorf("path = %s, want /last_transaction", r.URL.Path)
		}
		w.Write([]byte(`{
			"transaction": {"trans_num": "tx-1", "amt": "25.50", "merchant": "ShopA"},
			"fraudPrediction": 1
		}`))
	})

	tx, err := client.MostRecent(context.Background())
	if err != nil {
		t.Fatalf("MostRecent: %v", err)
	}
	if tx.TransactionID != "tx-1" || tx.Amount != 25.5 || !tx.Fraud {
		t.Errorf("unexpected record: %+v", tx)
	}
}

func TestHTTPClient_MostRecentMissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction": {"amt": "10"}}`))
	})

	_, err := client.MostRecent(context.Background())
	if !IsMalformed(err) {
		t.Errorf("err = %v, want ErrMalformed for id-less response", err)
	}
}

func TestHTTPClient_MostRecentBrokenJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction": {`))
	})

	_, err := client.MostRecent(context.Background())
	if !IsMalformed(err) {
		t.Errorf("err = %v, want ErrMalformed for broken JSON", err)
	}
}

func TestHTTPClient_WithinMinutes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("minutes"); got != "30" {
			t.Errorf("minutes = %s, want 30", got)
		}
		w.Write([]byte(`{
			"success": true,
			"transactions": [
				{"transaction": {"trans_num": "a"}, "fraudPrediction": "1"},
				{"transaction": {"trans_num": "b"}, "fraudPrediction": 0},
				{"transaction": {"amt": "5"}}
			]
		}`))
	})

	records, err := client.WithinMinutes(context.Background(), 30)
	if err != nil {
		t.Fatalf("WithinMinutes: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2 (id-less entry dropped)", len(records))
	}
	if !records[0].Fraud || records[1].Fraud {
		t.Errorf("fraud flags = %v/%v, want true/false", records[0].Fraud, records[1].Fraud)
	}
}

func TestHTTPClient_WithinMinutesNotSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "transactions": []}`))
	})

	_, err := client.WithinMinutes(context.Background(), 60)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestHTTPClient_WithinMinutesMissingArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	})

	_, err := client.WithinMinutes(context.Background(), 60)
	if !IsMalformed(err) {
		t.Errorf("err = %v, want ErrMalformed for missing array", err)
	}
}

func TestHTTPClient_WithinMinutesEmptyWindow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "transactions": []}`))
	})

	records, err := client.WithinMinutes(context.Background(), 60)
	if err != nil {
		t.Fatalf("WithinMinutes: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len = %d, want 0 (empty window is a valid answer)", len(records))
	}
}

func TestHTTPClient_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.MostRecent(context.Background())
	if !errors.Is(err, ErrStatus) {
		t.Errorf("err = %v, want ErrStatus", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"malformed", ErrMalformed, "malformed"},
		{"status", ErrStatus, "status"},
		{"no data", ErrNoData, "no_data"},
		{"breaker", ErrBreakerOpen, "breaker_open"},
		{"other", errors.New("dial tcp: refused"), "transport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
