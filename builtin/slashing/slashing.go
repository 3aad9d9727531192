// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slashing turns offence evidence into slashes, a bounded set of
// disabled validators and, past a threshold, a request for an early era.
package slashing

import (
	"cmp"
	"math/big"
	"slices"

	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

var logger = log.WithContext("pkg", "slashing")

var (
	metricDisabledCount = metrics.LazyLoadGauge("slashing_disabled_count")
	metricDroppedCount  = metrics.LazyLoadCounter("slashing_dropped_count")
)

var (
	slotDisabled     = slots.Pos("disabled")
	slotOffenders    = slots.Pos("offenders")
	slotEraStartSize = slots.Pos("era-start-size")
)

// Evidence reports that Offender misbehaved during Era. Fraction is the share
// of its stake to slash and doubles as the severity of the offence.
type Evidence struct {
	Offender thor.Address `json:"offender"`
	Era      uint32       `json:"era"`
	Fraction thor.Perbill `json:"fraction"`
}

// Disabled is an entry of the disabled set: a position in the active set.
type Disabled struct {
	Index    uint32       `json:"index"`
	Fraction thor.Perbill `json:"fraction"`
}

// Staking is what the policy needs from the staking module.
type Staking interface {
	CurrentEra() (uint32, error)
	ActiveValidators() ([]thor.Address, error)
	Slash(stash thor.Address, fraction thor.Perbill) (*big.Int, error)
	Chill(stash thor.Address) error
	ForceEra() (staking.Forcing, error)
	ForceNewEra() error
}

type Slashing struct {
	cfg     thor.Config
	staking Staking
	emitter events.Emitter

	disabled     *slots.Value[[]*Disabled] // in order of addition
	offenders    *slots.Value[[]thor.Address]
	eraStartSize *slots.Value[uint32]
}

func New(addr thor.Address, state *state.State, cfg thor.Config, staking Staking, emitter events.Emitter) *Slashing {
	sctx := slots.NewContext(addr, state)
	return &Slashing{
		cfg:          cfg,
		staking:      staking,
		emitter:      emitter,
		disabled:     slots.NewValue[[]*Disabled](sctx, slotDisabled),
		offenders:    slots.NewValue[[]thor.Address](sctx, slotOffenders),
		eraStartSize: slots.NewValue[uint32](sctx, slotEraStartSize),
	}
}

// DisablingLimit is the most validators that may be disabled in a set of n.
func (s *Slashing) DisablingLimit(n int) int {
	if n <= 1 {
		return 0
	}
	return (n - 1) / int(s.cfg.DisablingFactor)
}

// DisabledValidators returns the disabled active set indices in ascending order.
func (s *Slashing) DisabledValidators() ([]uint32, error) {
	list, err := s.disabled.Get()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(list))
	for _, d := range list {
		out = append(out, d.Index)
	}
	slices.Sort(out)
	return out, nil
}

// Disabled returns the disabled entries ordered by index.
func (s *Slashing) Disabled() ([]*Disabled, error) {
	list, err := s.disabled.Get()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(list, func(a, b *Disabled) int { return cmp.Compare(a.Index, b.Index) })
	return list, nil
}

func (s *Slashing) IsDisabled(index uint32) (bool, error) {
	list, err := s.disabled.Get()
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(list, func(d *Disabled) bool { return d.Index == index }), nil
}

// OffendingCount is the number of distinct offenders reported in the current era.
func (s *Slashing) OffendingCount() (int, error) {
	offenders, err := s.offenders.Get()
	return len(offenders), err
}

func (s *Slashing) EraStartSize() (uint32, error) {
	return s.eraStartSize.Get()
}

// OnEraStart resets the per era records and captures the size of the new
// active set as the forcing denominator.
func (s *Slashing) OnEraStart(activeSetSize uint32) error {
	s.disabled.Delete()
	s.offenders.Delete()
	metricDisabledCount().Set(0)
	return s.eraStartSize.Set(activeSetSize)
}

// ReportOffences processes evidence in order. Stale or unknown offenders are
// skipped and disabling past the limit is dropped, neither is an error.
func (s *Slashing) ReportOffences(evidences []*Evidence) error {
	era, err := s.staking.CurrentEra()
	if err != nil {
		return err
	}
	active, err := s.staking.ActiveValidators()
	if err != nil {
		return err
	}

	for _, ev := range evidences {
		if ev.Era != era {
			logger.Debug("stale offence skipped", "offender", ev.Offender, "era", ev.Era, "current", era)
			continue
		}
		index := slices.Index(active, ev.Offender)
		if index < 0 {
			logger.Debug("offender not active", "offender", ev.Offender)
			continue
		}
		fresh, err := s.recordOffender(ev.Offender)
		if err != nil {
			return err
		}
		// one slash per offender and era, repeated reports only raise the severity
		if fresh {
			if err := s.punish(ev); err != nil {
				return err
			}
		}
		if err := s.disable(uint32(index), ev.Fraction, len(active)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Slashing) punish(ev *Evidence) error {
	if _, err := s.staking.Slash(ev.Offender, ev.Fraction); err != nil {
		if !reverts.IsRevertErr(err) {
			return err
		}
		logger.Debug("offender has no ledger", "offender", ev.Offender, "error", err)
		return nil
	}
	if err := s.staking.Chill(ev.Offender); err != nil && !reverts.IsRevertErr(err) {
		return err
	}
	s.emitter.Emit(&Offence{Offender: ev.Offender, Era: ev.Era, Fraction: ev.Fraction})
	return nil
}

// recordOffender counts a new distinct offender and forces a new era once
// the offenders exceed the threshold of the era start set size.
func (s *Slashing) recordOffender(offender thor.Address) (bool, error) {
	offenders, err := s.offenders.Get()
	if err != nil {
		return false, err
	}
	if slices.Contains(offenders, offender) {
		return false, nil
	}
	offenders = append(offenders, offender)
	if err := s.offenders.Set(offenders); err != nil {
		return false, err
	}

	size, err := s.eraStartSize.Get()
	if err != nil {
		return false, err
	}
	if !s.cfg.OffendingValidatorsThreshold.Exceeded(uint64(len(offenders)), uint64(size)) {
		return true, nil
	}
	forcing, err := s.staking.ForceEra()
	if err != nil {
		return false, err
	}
	if forcing != staking.NotForcing {
		return true, nil
	}
	logger.Info("offending threshold crossed, forcing new era", "offenders", len(offenders), "eraStartSize", size)
	return true, s.staking.ForceNewEra()
}

// disable adds index to the disabled set within the limit for a set of n.
// A full set only takes a newcomer whose fraction is strictly greater than
// the lowest disabled fraction; that entry, the latest added on ties, is replaced.
func (s *Slashing) disable(index uint32, fraction thor.Perbill, n int) error {
	list, err := s.disabled.Get()
	if err != nil {
		return err
	}
	if i := slices.IndexFunc(list, func(d *Disabled) bool { return d.Index == index }); i >= 0 {
		if fraction > list[i].Fraction {
			list[i].Fraction = fraction
			return s.disabled.Set(list)
		}
		return nil
	}

	limit := s.DisablingLimit(n)
	if len(list) < limit {
		list = append(list, &Disabled{Index: index, Fraction: fraction})
		metricDisabledCount().Set(int64(len(list)))
		s.emitter.Emit(&ValidatorDisabled{Index: index, Fraction: fraction})
		return s.disabled.Set(list)
	}

	lowest := -1
	for i, d := range list {
		if lowest < 0 || d.Fraction <= list[lowest].Fraction {
			lowest = i
		}
	}
	if lowest < 0 || fraction <= list[lowest].Fraction {
		logger.Debug("disabling limit reached, offender not disabled", "index", index, "limit", limit)
		metricDroppedCount().Add(1)
		return nil
	}
	evicted := list[lowest].Index
	list = append(slices.Delete(list, lowest, lowest+1), &Disabled{Index: index, Fraction: fraction})
	s.emitter.Emit(&ValidatorEnabled{Index: evicted})
	s.emitter.Emit(&ValidatorDisabled{Index: index, Fraction: fraction})
	logger.Info("disabled validator replaced", "evicted", evicted, "index", index)
	return s.disabled.Set(list)
}
