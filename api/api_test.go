// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/api"
	"github.com/vechain/npos/genesis"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/runtime"
	"github.com/vechain/npos/thor"
)

func newServer(t *testing.T) (*runtime.Runtime, *httptest.Server) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := genesis.DevConfig(4, 2)
	rt, err := runtime.New(kv.NewMem(), db, cfg.ChainConfig())
	require.NoError(t, err)
	require.NoError(t, genesis.Build(rt, cfg))

	handler, closeFn := api.New(rt, api.Options{
		AllowedOrigins: "*",
		BacktraceLimit: 100,
		LogsLimit:      100,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeFn()
		ts.Close()
	})
	return rt, ts
}

func httpGet(t *testing.T, url string, v any) int {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.Unmarshal(data, v), string(data))
	}
	return res.StatusCode
}

func TestReadSurface(t *testing.T) {
	_, ts := newServer(t)

	var phase struct {
		Kind  string `json:"kind"`
		Round uint32 `json:"round"`
	}
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/phase", &phase))
	assert.Equal(t, "Off", phase.Kind)
	assert.Equal(t, uint32(0), phase.Round)

	var era struct {
		Index     uint32            `json:"index"`
		ActiveSet []json.RawMessage `json:"activeSet"`
	}
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/staking/era", &era))
	assert.Equal(t, uint32(0), era.Index)
	assert.Len(t, era.ActiveSet, 4)

	var forcing map[string]any
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/staking/force-era", &forcing))
	assert.Contains(t, forcing, "mode")

	var ledger struct {
		Stash  thor.Address `json:"stash"`
		Active *big.Int     `json:"active"`
	}
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/ledgers/"+genesis.DevAccount(0).String(), &ledger))
	assert.Equal(t, genesis.DevAccount(0), ledger.Stash)
	assert.Equal(t, big.NewInt(10_000), ledger.Active)

	stranger := thor.BytesToAddress([]byte("stranger"))
	assert.Equal(t, http.StatusNotFound, httpGet(t, ts.URL+"/ledgers/"+stranger.String(), nil))
	assert.Equal(t, http.StatusBadRequest, httpGet(t, ts.URL+"/ledgers/0xzz", nil))

	var tvl struct {
		TVL        *big.Int `json:"tvl"`
		LastPoolID uint32   `json:"lastPoolId"`
	}
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/pools/tvl", &tvl))
	assert.Equal(t, big.NewInt(2000), tvl.TVL)
	assert.Equal(t, uint32(1), tvl.LastPoolID)

	var pool struct {
		ID     uint32   `json:"id"`
		Bonded *big.Int `json:"bonded"`
	}
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/pools/1", &pool))
	assert.Equal(t, uint32(1), pool.ID)
	assert.Equal(t, big.NewInt(2000), pool.Bonded)
	assert.Equal(t, http.StatusNotFound, httpGet(t, ts.URL+"/pools/2", nil))

	var member struct {
		PoolID  uint32   `json:"poolId"`
		Balance *big.Int `json:"balance"`
	}
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/pools/members/"+genesis.DevAccount(6).String(), &member))
	assert.Equal(t, uint32(1), member.PoolID)
	assert.Equal(t, big.NewInt(2000), member.Balance)
	assert.Equal(t, http.StatusNotFound, httpGet(t, ts.URL+"/pools/members/"+stranger.String(), nil))

	var disabled []json.RawMessage
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/slashing/disabled", &disabled))
	assert.Empty(t, disabled)

	assert.Equal(t, http.StatusNotFound, httpGet(t, ts.URL+"/election/queued", nil))
	assert.Equal(t, http.StatusNotFound, httpGet(t, ts.URL+"/election/snapshot", nil))

	var signed []json.RawMessage
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/election/signed", &signed))
	assert.Empty(t, signed)
}

func TestSubmitOutsideWindow(t *testing.T) {
	_, ts := newServer(t)

	res, err := http.Post(ts.URL+"/election/solutions", "application/json", strings.NewReader("{bad")) //#nosec G107
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	body, err := json.Marshal(map[string]any{"round": 0, "winners": []any{}})
	require.NoError(t, err)
	res, err = http.Post(ts.URL+"/election/solutions", "application/json", bytes.NewReader(body)) //#nosec G107
	require.NoError(t, err)
	res.Body.Close()
	// the phase is off, the module refuses the submission
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSubscribeEvents(t *testing.T) {
	rt, ts := newServer(t)
	who := thor.BytesToAddress([]byte("who"))

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/subscriptions/events?module=balances&account=" + who.String()
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, rt.Call("mint", func(m *runtime.Modules) error {
		return m.Balances.Mint(who, big.NewInt(100))
	}))
	_, err = rt.ProcessBlock()
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev logdb.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, uint32(1), ev.BlockNumber)
	assert.Equal(t, "balances", ev.Module)
	assert.Equal(t, "Minted", ev.Name)
	require.NotNil(t, ev.Account)
	assert.Equal(t, who, *ev.Account)
}

func TestSubscribeBacktraceLimit(t *testing.T) {
	rt, ts := newServer(t)
	for range 3 {
		_, err := rt.ProcessBlock()
		require.NoError(t, err)
	}

	handler, closeFn := api.New(rt, api.Options{BacktraceLimit: 1})
	defer closeFn()
	limited := httptest.NewServer(handler)
	defer limited.Close()

	u := "ws" + strings.TrimPrefix(limited.URL, "http") + "/subscriptions/events?pos=0"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	u = "ws" + strings.TrimPrefix(ts.URL, "http") + "/subscriptions/events?pos=0"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	conn.Close()
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogger(log.JSONHandler(&buf, log.LevelInfo))

	handler := api.RequestLoggerHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"round":1}`, string(data))
		w.WriteHeader(http.StatusTeapot)
	}), logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/election/solutions", strings.NewReader(`{"round":1}`)))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "API Request", line["msg"])
	assert.Equal(t, "/election/solutions", line["uri"])
	assert.Equal(t, `{"round":1}`, line["body"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
}
