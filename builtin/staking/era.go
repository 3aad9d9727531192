// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/thor"
)

func (s *Staking) CurrentEra() (uint32, error) {
	return s.currentEra.Get()
}

// ErasStartSessionIndex returns the session the era started at.
func (s *Staking) ErasStartSessionIndex(era uint32) (uint32, bool, error) {
	return s.eraStart.Lookup(slots.Uint64Key(era))
}

// ActiveSet returns the exposures elected for the current era.
func (s *Staking) ActiveSet() ([]*Exposure, error) {
	return s.activeSet.Get()
}

func (s *Staking) ActiveValidators() ([]thor.Address, error) {
	set, err := s.activeSet.Get()
	if err != nil {
		return nil, err
	}
	out := make([]thor.Address, 0, len(set))
	for _, e := range set {
		out = append(out, e.Validator)
	}
	return out, nil
}

// StartEra records the outcome of an election as the next era starting at
// session. The very first call starts era 0.
func (s *Staking) StartEra(session uint32, exposures []*Exposure) (uint32, error) {
	era, err := s.CurrentEra()
	if err != nil {
		return 0, err
	}
	if _, started, err := s.ErasStartSessionIndex(era); err != nil {
		return 0, err
	} else if started {
		era++
	}
	if err := s.currentEra.Set(era); err != nil {
		return 0, err
	}
	if err := s.eraStart.Set(slots.Uint64Key(era), session); err != nil {
		return 0, err
	}
	if err := s.activeSet.Set(exposures); err != nil {
		return 0, err
	}
	s.emitter.Emit(&EraStarted{Era: era, StartSession: session, Validators: uint32(len(exposures))})
	logger.Info("era started", "era", era, "session", session, "validators", len(exposures))
	return era, nil
}

func (s *Staking) ForceEra() (Forcing, error) {
	return s.forceEra.Get()
}

func (s *Staking) SetForceEra(f Forcing) error {
	current, err := s.ForceEra()
	if err != nil {
		return err
	}
	if current == f {
		return nil
	}
	if err := s.forceEra.Set(f); err != nil {
		return err
	}
	s.emitter.Emit(&ForceEraChanged{Mode: f})
	logger.Info("force era changed", "from", current, "to", f)
	return nil
}

// ForceNewEra requests an early rotation at the next session end.
func (s *Staking) ForceNewEra() error { return s.SetForceEra(ForceNew) }

// ForceNoEras stops era rotation until forcing is changed again.
func (s *Staking) ForceNoEras() error { return s.SetForceEra(ForceNone) }

// ClearForcing drops a pending ForceNew once the rotation happened. ForceNone stays.
func (s *Staking) ClearForcing() error {
	f, err := s.ForceEra()
	if err != nil || f != ForceNew {
		return err
	}
	return s.SetForceEra(NotForcing)
}
