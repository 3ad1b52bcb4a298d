package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxreplay/chart"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/simulation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func newServer(t *testing.T, n int) *Server {
	t.Helper()
	series := make(market.Series, n)
	for i := range series {
		p := 1.1 + float64(i)*0.0001
		series[i] = market.Candle{Time: 1_704_067_200 + int64(i)*3600, Open: p, High: p + 0.0005, Low: p - 0.0005, Close: p}
	}
	canvas := chart.NewCanvas()
	st := simulation.NewState(series, ledger.New(), simulation.Settings{Rand: rand.New(zeroSource{})})
	ctl := simulation.NewController(st, simulation.WithChart(canvas))
	return New(ctl, canvas, nil)
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	w := do(t, newServer(t, 120), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, w)["status"])
}

func TestTradeRoundTrip(t *testing.T) {
	t.Parallel()

	s := newServer(t, 120)

	w := do(t, s, http.MethodPost, "/api/start")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[simulation.Snapshot](t, w)
	assert.Equal(t, "running", snap.Phase)
	assert.Equal(t, 100, snap.Index)

	w = do(t, s, http.MethodPost, "/api/open/long")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap = decode[simulation.Snapshot](t, w)
	require.NotNil(t, snap.Position)
	assert.InDelta(t, 1.11, snap.Position.EntryPrice, 1e-9)

	w = do(t, s, http.MethodPost, "/api/open/sell")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["error"], "already open")

	for i := 0; i < 3; i++ {
		w = do(t, s, http.MethodPost, "/api/advance")
		require.Equal(t, http.StatusOK, w.Code)
	}
	snap = decode[simulation.Snapshot](t, w)
	assert.InDelta(t, 3.0, snap.Floating, 1e-6)

	w = do(t, s, http.MethodPost, "/api/close")
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[simulation.Snapshot](t, w)
	assert.Nil(t, snap.Position)
	assert.InDelta(t, 10003.0, snap.Balance, 1e-6)
	require.Len(t, snap.Recent, 1)

	w = do(t, s, http.MethodGet, "/api/chart?limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[chart.View](t, w)
	assert.Len(t, view.Candles, 10)
	assert.Empty(t, view.Markers)
}

func TestRejectedCommands(t *testing.T) {
	t.Parallel()

	s := newServer(t, 120)

	w := do(t, s, http.MethodPost, "/api/advance")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/open/sideways")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/close")
	assert.Equal(t, http.StatusOK, w.Code, "closing while flat is a no-op")

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/start").Code)
	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodPost, "/api/start").Code)

	w = do(t, s, http.MethodGet, "/api/chart?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestartAndAccounts(t *testing.T) {
	t.Parallel()

	s := newServer(t, 120)
	for _, path := range []string{"/api/start", "/api/open/buy", "/api/advance", "/api/close", "/api/restart"} {
		w := do(t, s, http.MethodPost, path)
		require.Equal(t, http.StatusOK, w.Code, path)
	}

	snap := decode[simulation.Snapshot](t, do(t, s, http.MethodGet, "/api/state"))
	assert.Equal(t, "ready", snap.Phase)
	assert.Equal(t, 2, snap.AccountID)

	w := do(t, s, http.MethodGet, "/api/accounts")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Accounts []ledger.Account        `json:"accounts"`
		Summary  []ledger.AccountSummary `json:"summary"`
		Line     string                  `json:"line"`
	}](t, w)
	require.Len(t, body.Accounts, 1)
	assert.Equal(t, ledger.ReasonManualRestart, body.Accounts[0].Reason)
	assert.Equal(t, "Account 1 +1.00", body.Line)

	w = do(t, s, http.MethodGet, "/api/accounts?format=org")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "* Account 1")
}

func TestEndOfData(t *testing.T) {
	t.Parallel()

	s := newServer(t, 102)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/start").Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/advance").Code)

	w := do(t, s, http.MethodPost, "/api/advance")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[simulation.Snapshot](t, w)
	assert.Equal(t, "ended", snap.Phase)
	assert.Equal(t, ledger.ReasonEndOfData, snap.EndReason)

	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodPost, "/api/advance").Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := newServer(t, 120)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr, time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
