// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/npos/api/utils"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/runtime"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
)

type Subscriptions struct {
	rt             *runtime.Runtime
	db             *logdb.LogDB
	backtraceLimit uint32
	upgrader       *websocket.Upgrader
	done           chan struct{}
	wg             sync.WaitGroup
}

func New(rt *runtime.Runtime, db *logdb.LogDB, allowedOrigins []string, backtraceLimit uint32) *Subscriptions {
	return &Subscriptions{
		rt:             rt,
		db:             db,
		backtraceLimit: backtraceLimit,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// parsePosition returns the first block to stream from, the block after head
// when pos is omitted.
func (s *Subscriptions) parsePosition(posStr string) (uint32, error) {
	head, err := s.rt.Head()
	if err != nil {
		return 0, err
	}
	if posStr == "" {
		return head + 1, nil
	}
	pos, err := strconv.ParseUint(posStr, 10, 32)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "pos"))
	}
	if head > uint32(pos) && head-uint32(pos) > s.backtraceLimit {
		return 0, utils.Forbidden(errors.New("pos: backtrace limit exceeded"))
	}
	return uint32(pos), nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	criteria := &logdb.EventCriteria{Module: q.Get("module"), Name: q.Get("name")}
	if acc := q.Get("account"); acc != "" {
		addr, err := thor.ParseAddress(acc)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "account"))
		}
		criteria.Account = addr
	}
	pos, err := s.parsePosition(q.Get("pos"))
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()

	reader := newEventReader(s.db, s.rt.Head, criteria, pos)
	if err := s.pipe(req.Context(), conn, reader); err != nil {
		logger.Debug("subscription closed", "err", err)
	}
	return nil
}

func (s *Subscriptions) pipe(ctx context.Context, conn *websocket.Conn, reader *eventReader) error {
	defer conn.Close()

	closed := make(chan struct{})
	// the read loop serves pongs and notices the peer going away
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	waiter := s.rt.NewBlockWaiter()
	for {
		evs, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		for _, ev := range evs {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return err
			}
		}
		if len(evs) == readBatch {
			// more pending, keep reading before waiting
			continue
		}

		select {
		case <-s.done:
			return conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "service closed"),
				time.Now().Add(writeWait))
		case <-closed:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-waiter.C():
		}
	}
}

// Close closes every subscription and waits for them to finish.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
