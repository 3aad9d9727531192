// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb persists module events in sqlite and serves filter queries over them.
package logdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/npos/events"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "logdb")

// MaxLimit caps the number of events a single filter returns.
const MaxLimit = 1000

type LogDB struct {
	path          string
	db            *sql.DB
	stmtCache     *stmtCache
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if path == ":memory:" {
		// every connection would otherwise open its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// NewestBlockNumber returns the highest block that has events, zero when empty.
func (db *LogDB) NewestBlockNumber() (uint32, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return sequence(seq.Int64).BlockNumber(), nil
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		filter = &EventFilter{}
	}
	metricsHandleEventsFilter(filter)

	var (
		args []any
		stmt = "SELECT seq, module, name, account, data FROM event WHERE 1"
	)
	if filter.Range != nil {
		stmt += " AND seq >= ?"
		args = append(args, newSequence(filter.Range.From, 0))
		if filter.Range.To >= filter.Range.From {
			stmt += " AND seq <= ?"
			args = append(args, newSequence(filter.Range.To, math.MaxInt32))
		}
	}

	if len(filter.CriteriaSet) > 0 {
		stmt += " AND ("
		for i, c := range filter.CriteriaSet {
			cond, cargs := c.toWhereCondition()
			if i > 0 {
				stmt += " OR "
			}
			stmt += "(" + cond + ")"
			args = append(args, cargs...)
		}
		stmt += ")"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	limit, offset := uint64(MaxLimit), uint64(0)
	if filter.Options != nil {
		offset = filter.Options.Offset
		if filter.Options.Limit > 0 && filter.Options.Limit < limit {
			limit = filter.Options.Limit
		}
	}
	if offset > math.MaxInt64 {
		return nil, errors.New("offset out of range")
	}
	stmt += " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	return db.queryEvents(ctx, stmt, args...)
}

func (c *EventCriteria) toWhereCondition() (cond string, args []any) {
	cond = "1"
	if c.Module != "" {
		cond += " AND module = ?"
		args = append(args, c.Module)
	}
	if c.Name != "" {
		cond += " AND name = ?"
		args = append(args, c.Name)
	}
	if c.Account != nil {
		cond += " AND account = ?"
		args = append(args, c.Account.Bytes())
	}
	return
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []*Event
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			seq     sequence
			module  string
			name    string
			account []byte
			data    []byte
		)
		if err := rows.Scan(&seq, &module, &name, &account, &data); err != nil {
			return nil, err
		}
		ev := &Event{
			BlockNumber: seq.BlockNumber(),
			Index:       seq.Index(),
			Module:      module,
			Name:        name,
			Data:        json.RawMessage(data),
		}
		if len(account) > 0 {
			addr := thor.BytesToAddress(account)
			ev.Account = &addr
		}
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return evs, nil
}

// NewWriter creates a log writer.
func (db *LogDB) NewWriter() *Writer {
	return &Writer{db: db.db}
}

// Writer is the transactional log writer. It is not safe for concurrent use.
type Writer struct {
	db          *sql.DB
	tx          *sql.Tx
	uncommitted int
}

// Write stages the events of a block. Indexes follow the slice order.
func (w *Writer) Write(blockNum uint32, evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}
	return w.exec(func(tx *sql.Tx) error {
		for i, ev := range evs {
			data, err := json.Marshal(ev)
			if err != nil {
				return errors.Wrapf(err, "encode %s.%s", ev.Module(), ev.Name())
			}
			var account []byte
			if a := events.AccountOf(ev); !a.IsZero() {
				account = a.Bytes()
			}
			if _, err := tx.Exec(
				"INSERT OR REPLACE INTO event(seq, blockNumber, eventIndex, module, name, account, data) VALUES(?,?,?,?,?,?,?)",
				newSequence(blockNum, uint32(i)),
				blockNum,
				i,
				ev.Module(),
				ev.Name(),
				account,
				data,
			); err != nil {
				return err
			}
			w.uncommitted++
		}
		return nil
	})
}

// Truncate removes the events of blocks after blockNum.
func (w *Writer) Truncate(blockNum uint32) error {
	return w.exec(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM event WHERE seq >= ?", newSequence(blockNum+1, 0))
		return err
	})
}

// UncommittedCount returns the number of events staged since the last commit.
func (w *Writer) UncommittedCount() int {
	return w.uncommitted
}

// Commit persists the staged events.
func (w *Writer) Commit() error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	if err := tx.Commit(); err != nil {
		logger.Info("commit failed", "error", err)
		return err
	}
	metricWrittenEvents().Add(int64(w.uncommitted))
	w.uncommitted = 0
	return nil
}

// Rollback drops the staged events.
func (w *Writer) Rollback() error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	w.uncommitted = 0
	return tx.Rollback()
}

func (w *Writer) exec(fn func(tx *sql.Tx) error) error {
	if w.tx == nil {
		tx, err := w.db.Begin()
		if err != nil {
			return err
		}
		w.tx = tx
	}
	if err := fn(w.tx); err != nil {
		if rbErr := w.Rollback(); rbErr != nil {
			return fmt.Errorf("%w; rollback: %v", err, rbErr)
		}
		return err
	}
	return nil
}
