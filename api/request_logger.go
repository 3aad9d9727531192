// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/vechain/npos/log"
)

// maxLoggedBody bounds the part of a request body copied into the log line.
const maxLoggedBody = 4096

// RequestLoggerHandler logs every request with its body, status and duration.
func RequestLoggerHandler(handler http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			data, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Warn("unexpected body read error", "err", err)
				http.Error(w, "unable to read body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(data))
			body = data[:min(len(data), maxLoggedBody)]
		}

		start := time.Now()
		rw := newMetricsResponseWriter(w)
		handler.ServeHTTP(rw, r)

		logger.Info("API Request",
			"method", r.Method,
			"uri", r.URL.String(),
			"remote", r.RemoteAddr,
			"body", string(body),
			"status", rw.statusCode,
			"elapsed", time.Since(start),
		)
	})
}
