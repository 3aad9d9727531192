// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"

	"github.com/vechain/npos/logdb"
)

// readBatch is the number of events fetched per query.
const readBatch = 256

type headFunc func() (uint32, error)

// eventReader walks the sealed events matching a criteria from a cursor on.
type eventReader struct {
	db       *logdb.LogDB
	head     headFunc
	criteria *logdb.EventCriteria

	block uint32 // next block to read
	index uint32 // next event index within block
}

func newEventReader(db *logdb.LogDB, head headFunc, criteria *logdb.EventCriteria, from uint32) *eventReader {
	return &eventReader{
		db:       db,
		head:     head,
		criteria: criteria,
		block:    from,
	}
}

// Read returns the next matching events up to the sealed head, at most one batch.
func (r *eventReader) Read(ctx context.Context) ([]*logdb.Event, error) {
	head, err := r.head()
	if err != nil {
		return nil, err
	}
	if r.block > head {
		return nil, nil
	}
	evs, err := r.db.FilterEvents(ctx, &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{r.criteria},
		Range:       &logdb.Range{From: r.block, To: head},
		Options:     &logdb.Options{Limit: readBatch + uint64(r.index)},
	})
	if err != nil {
		return nil, err
	}
	// events of the first block already sent are skipped
	skip := 0
	for skip < len(evs) && evs[skip].BlockNumber == r.block && evs[skip].Index < r.index {
		skip++
	}
	full := len(evs) == readBatch+int(r.index)
	evs = evs[skip:]

	if full && len(evs) > 0 {
		last := evs[len(evs)-1]
		r.block, r.index = last.BlockNumber, last.Index+1
	} else {
		r.block, r.index = head+1, 0
	}
	return evs, nil
}
