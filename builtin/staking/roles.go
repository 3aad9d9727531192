// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"slices"

	"github.com/vechain/npos/thor"
)

func (s *Staking) setRole(stash thor.Address, role *Role) error {
	if role.Kind == RoleIdle {
		s.roles.Delete(stash)
		return nil
	}
	return s.roles.Set(stash, role)
}

func (s *Staking) leave(stash thor.Address, kind RoleKind) error {
	var err error
	switch kind {
	case RoleValidator:
		_, err = s.validators.Remove(stash)
	case RoleNominator:
		_, err = s.nominators.Remove(stash)
	}
	return err
}

// chill drops the role without any check.
func (s *Staking) chill(stash thor.Address, role *Role) error {
	if err := s.leave(stash, role.Kind); err != nil {
		return err
	}
	if err := s.setRole(stash, &Role{}); err != nil {
		return err
	}
	s.emitter.Emit(&Chilled{Stash: stash})
	logger.Info("stash chilled", "stash", stash, "was", role.Kind)
	return nil
}

// Chill stops stash from validating or nominating. Chilling an idle stash is a no-op.
func (s *Staking) Chill(stash thor.Address) error {
	logger.Debug("chill", "stash", stash)

	if bonded, err := s.IsBonded(stash); err != nil {
		return err
	} else if !bonded {
		logger.Info("chill failed", "stash", stash, "error", ErrNotStash)
		return ErrNotStash
	}
	role, err := s.Role(stash)
	if err != nil {
		return err
	}
	if !role.IsActive() {
		return nil
	}
	return s.chill(stash, role)
}

// Validate declares stash a validator candidate.
func (s *Staking) Validate(stash thor.Address, prefs ValidatorPrefs) error {
	logger.Debug("validate", "stash", stash, "commission", prefs.Commission)

	l, err := s.Ledger(stash)
	if err != nil {
		return err
	}
	if prefs.Commission > thor.PerbillOne {
		return ErrCommissionTooHigh
	}
	floor, err := s.MinBond(RoleValidator)
	if err != nil {
		return err
	}
	if l.Active.Cmp(floor) < 0 {
		logger.Info("validate failed", "stash", stash, "active", l.Active, "error", ErrInsufficientBond)
		return ErrInsufficientBond
	}
	role, err := s.Role(stash)
	if err != nil {
		return err
	}
	if role.Kind == RoleNominator {
		if err := s.leave(stash, RoleNominator); err != nil {
			return err
		}
	}
	if _, err := s.validators.Add(stash); err != nil {
		return err
	}
	if err := s.setRole(stash, &Role{Kind: RoleValidator, Prefs: prefs}); err != nil {
		return err
	}
	s.emitter.Emit(&ValidatorPrefsSet{Stash: stash, Prefs: prefs})
	return nil
}

// Nominate declares stash a nominator of targets. Duplicate targets are collapsed.
func (s *Staking) Nominate(stash thor.Address, targets []thor.Address) error {
	logger.Debug("nominate", "stash", stash, "targets", len(targets))

	l, err := s.Ledger(stash)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return ErrEmptyTargets
	}
	if uint32(len(targets)) > s.cfg.MaxNominations {
		return ErrTooManyTargets
	}
	unique := make([]thor.Address, 0, len(targets))
	for _, t := range targets {
		if slices.Contains(unique, t) {
			continue
		}
		ok, err := s.validators.Contains(t)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("nominate failed", "stash", stash, "target", t, "error", ErrBadTarget)
			return ErrBadTarget
		}
		if t != stash {
			tr, err := s.Role(t)
			if err != nil {
				return err
			}
			if tr.Prefs.Blocked {
				return ErrBadTarget
			}
		}
		unique = append(unique, t)
	}
	floor, err := s.MinBond(RoleNominator)
	if err != nil {
		return err
	}
	if l.Active.Cmp(floor) < 0 {
		logger.Info("nominate failed", "stash", stash, "active", l.Active, "error", ErrInsufficientBond)
		return ErrInsufficientBond
	}
	era, err := s.CurrentEra()
	if err != nil {
		return err
	}

	role, err := s.Role(stash)
	if err != nil {
		return err
	}
	if role.Kind == RoleValidator {
		if err := s.leave(stash, RoleValidator); err != nil {
			return err
		}
	}
	if _, err := s.nominators.Add(stash); err != nil {
		return err
	}
	role = &Role{Kind: RoleNominator, Nominations: Nominations{Targets: unique, SubmittedIn: era}}
	if err := s.setRole(stash, role); err != nil {
		return err
	}
	s.emitter.Emit(&Nominated{Stash: stash, Targets: unique})
	return nil
}
