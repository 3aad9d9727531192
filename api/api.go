// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the read surface of the runtime over http and streams
// sealed events over websocket.
package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/npos/api/election"
	"github.com/vechain/npos/api/events"
	"github.com/vechain/npos/api/pools"
	"github.com/vechain/npos/api/slashing"
	"github.com/vechain/npos/api/staking"
	"github.com/vechain/npos/api/subscriptions"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	BacktraceLimit  uint32
	LogsLimit       uint64
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
}

// New return api router
func New(rt *runtime.Runtime, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	election.New(rt).
		Mount(router, "")
	staking.New(rt).
		Mount(router, "")
	slashing.New(rt).
		Mount(router, "/slashing")
	pools.New(rt).
		Mount(router, "/pools")

	closeSubs := func() {}
	if db := rt.LogDB(); db != nil {
		events.New(db, opts.LogsLimit).
			Mount(router, "/events")
		subs := subscriptions.New(rt, db, origins, opts.BacktraceLimit)
		subs.Mount(router, "/subscriptions")
		closeSubs = subs.Close
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
		if h := metrics.HTTPHandler(); h != nil {
			router.Path("/metrics").Methods(http.MethodGet).Handler(h)
		}
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP, closeSubs // subscriptions handles hijacked conns, which need to be closed
}
