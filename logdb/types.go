// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"encoding/json"

	"github.com/vechain/npos/thor"
)

// Event is a module event as stored in the db.
type Event struct {
	BlockNumber uint32          `json:"blockNumber"`
	Index       uint32          `json:"index"`
	Module      string          `json:"module"`
	Name        string          `json:"name"`
	Account     *thor.Address   `json:"account,omitempty"`
	Data        json.RawMessage `json:"data"`
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive block range. A To below From leaves the range open ended.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by their fields. Empty fields match anything.
type EventCriteria struct {
	Module  string
	Name    string
	Account *thor.Address
}

type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
