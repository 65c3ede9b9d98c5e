package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /finalize", func(w http.ResponseWriter, r *http.Request) {
		var req finalizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.RoomID {
		case "slow":
			time.Sleep(200 * time.Millisecond)
		case "broken":
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(gatewayResponse{Status: "confirmed", TxRef: "tx-" + req.RoomID})
	})
	mux.HandleFunc("GET /finalizations/{room}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("room") != "known" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(gatewayResponse{Status: "confirmed", TxRef: "tx-known"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_Finalize(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(newGateway(t).URL+"/", time.Second)
	r, err := c.Finalize(context.Background(), "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, Confirmed("tx-r1"), r)
}

func TestHTTPClient_Query(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(newGateway(t).URL, time.Second)

	r, err := c.QueryFinalization(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, Confirmed("tx-known"), r)

	r, err = c.QueryFinalization(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, r.Outcome)
}

func TestHTTPClient_Errors(t *testing.T) {
	t.Parallel()

	srv := newGateway(t)

	_, err := NewHTTPClient(srv.URL, time.Second).Finalize(context.Background(), "broken", "alice")
	assert.ErrorContains(t, err, "502")

	_, err = NewHTTPClient(srv.URL, 20*time.Millisecond).Finalize(context.Background(), "slow", "alice")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
