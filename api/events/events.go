// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/npos/api/utils"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/thor"
)

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, logsLimit uint64) *Events {
	if logsLimit == 0 || logsLimit > logdb.MaxLimit {
		logsLimit = logdb.MaxLimit
	}
	return &Events{
		db,
		logsLimit,
	}
}

type EventCriteria struct {
	Module  string        `json:"module"`
	Name    string        `json:"name"`
	Account *thor.Address `json:"account"`
}

type Range struct {
	From *uint32 `json:"from"`
	To   *uint32 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

func convertEventFilter(ef *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{Order: ef.Order}
	if ef.Range != nil {
		f.Range = &logdb.Range{From: 0, To: math.MaxUint32}
		if ef.Range.From != nil {
			f.Range.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			f.Range.To = *ef.Range.To
		}
	}
	if ef.Options != nil {
		f.Options = &logdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	for _, c := range ef.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Module:  c.Module,
			Name:    c.Name,
			Account: c.Account,
		})
	}
	return f
}

// Filter query events with option
func (e *Events) filter(ctx context.Context, ef *EventFilter) ([]*logdb.Event, error) {
	evs, err := e.db.FilterEvents(ctx, convertEventFilter(ef))
	if err != nil {
		return nil, err
	}
	if evs == nil {
		evs = []*logdb.Event{}
	}
	return evs, nil
}

func (e *Events) validate(filter *EventFilter) error {
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Options != nil && filter.Options.Offset > math.MaxInt64 {
		return utils.BadRequest(fmt.Errorf("options.offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	if filter.Range != nil && filter.Range.From != nil && filter.Range.To != nil && *filter.Range.From > *filter.Range.To {
		return utils.BadRequest(errors.New("filter.Range.To must be greater than or equal to filter.Range.From"))
	}
	switch filter.Order {
	case "", logdb.ASC, logdb.DESC:
	default:
		return utils.BadRequest(fmt.Errorf("unknown order %q", filter.Order))
	}
	// reject null element in CriteriaSet, {} will be unmarshaled to default value and will be accepted/handled by the filter engine
	for i, criterion := range filter.CriteriaSet {
		if criterion == nil {
			return utils.BadRequest(fmt.Errorf("criteriaSet[%d]: null not allowed", i))
		}
	}
	if filter.Options == nil {
		filter.Options = &Options{Limit: e.limit}
	}
	return nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := e.validate(&filter); err != nil {
		return err
	}
	evs, err := e.filter(req.Context(), &filter)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, evs)
}

func (e *Events) handleQuery(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseQuery(req.URL.Query())
	if err != nil {
		return utils.BadRequest(err)
	}
	if err := e.validate(filter); err != nil {
		return err
	}
	evs, err := e.filter(req.Context(), filter)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, evs)
}

// parseQuery reads a single criteria filter from query parameters.
func parseQuery(q url.Values) (*EventFilter, error) {
	filter := &EventFilter{Order: logdb.Order(q.Get("order"))}

	criteria := &EventCriteria{Module: q.Get("module"), Name: q.Get("name")}
	if s := q.Get("account"); s != "" {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, errors.WithMessage(err, "account")
		}
		criteria.Account = addr
	}
	if criteria.Module != "" || criteria.Name != "" || criteria.Account != nil {
		filter.CriteriaSet = []*EventCriteria{criteria}
	}

	from, err := parseUint(q, "from", 32)
	if err != nil {
		return nil, err
	}
	to, err := parseUint(q, "to", 32)
	if err != nil {
		return nil, err
	}
	if from != nil || to != nil {
		filter.Range = &Range{}
		if from != nil {
			v := uint32(*from)
			filter.Range.From = &v
		}
		if to != nil {
			v := uint32(*to)
			filter.Range.To = &v
		}
	}

	offset, err := parseUint(q, "offset", 64)
	if err != nil {
		return nil, err
	}
	limit, err := parseUint(q, "limit", 64)
	if err != nil {
		return nil, err
	}
	if offset != nil || limit != nil {
		filter.Options = &Options{}
		if offset != nil {
			filter.Options.Offset = *offset
		}
		if limit != nil {
			filter.Options.Limit = *limit
		}
	}
	return filter, nil
}

func parseUint(q url.Values, name string, bits int) (*uint64, error) {
	s := q.Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return &v, nil
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleQuery))
}
