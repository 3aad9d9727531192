// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/npos/builtin/balances"
	"github.com/vechain/npos/builtin/params"
	"github.com/vechain/npos/builtin/reverts"
	"github.com/vechain/npos/builtin/slots"
	"github.com/vechain/npos/builtin/staking/ledger"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/thor"
)

// LockID is the balance lock held on every stash for its ledger total.
const LockID = "staking"

var logger = log.WithContext("pkg", "staking")

var (
	ErrNotStash          = reverts.New("not a stash")
	ErrAlreadyBonded     = reverts.New("stash already bonded")
	ErrInsufficientBond  = reverts.New("insufficient bond")
	ErrFundedTarget      = reverts.New("target is funded above existential deposit")
	ErrEmptyTargets      = reverts.New("empty nomination targets")
	ErrTooManyTargets    = reverts.New("too many nomination targets")
	ErrBadTarget         = reverts.New("nomination target is not a validator")
	ErrNoMoreChunks      = ledger.ErrNoMoreChunks
	ErrNoUnlockChunk     = ledger.ErrNoUnlockChunk
	ErrCommissionTooHigh = reverts.New("commission above one")
)

var (
	metricUnbondCount    = metrics.LazyLoadCounter("staking_unbond_count")
	metricWithdrawnTotal = metrics.LazyLoadCounter("staking_withdrawn_total")
)

var (
	slotLedgers      = slots.Pos("ledgers")
	slotRoles        = slots.Pos("roles")
	slotValidators   = slots.Pos("validators")
	slotNominators   = slots.Pos("nominators")
	slotCurrentEra   = slots.Pos("current-era")
	slotEraStart     = slots.Pos("era-start-session")
	slotForceEra     = slots.Pos("force-era")
	slotActiveSet    = slots.Pos("active-set")
	slotTotalStaked  = slots.Pos("total-staked")
	slotTotalLedgers = slots.Pos("ledger-count")
)

// LedgerChange describes a ledger write by its totals before and after.
// A deleted ledger has an After of zero.
type LedgerChange struct {
	Stash  thor.Address
	Before *big.Int
	After  *big.Int
}

// Delta is After minus Before.
func (c *LedgerChange) Delta() *big.Int {
	return new(big.Int).Sub(c.After, c.Before)
}

// LedgerObserver is notified after every ledger write. Observers must not call
// back into Staking.
type LedgerObserver interface {
	OnLedgerChange(change *LedgerChange) error
}

// Staking owns the ledgers, the stash roles and the era bookkeeping.
type Staking struct {
	cfg      thor.Config
	params   *params.Params
	balances *balances.Balances
	emitter  events.Emitter

	ledgers     *slots.Mapping[thor.Address, *ledger.Ledger]
	roles       *slots.Mapping[thor.Address, *Role]
	validators  *slots.AddressSet
	nominators  *slots.AddressSet
	currentEra  *slots.Value[uint32]
	eraStart    *slots.Mapping[slots.Uint64Key, uint32]
	forceEra    *slots.Value[Forcing]
	activeSet   *slots.Value[[]*Exposure]
	totalStaked *slots.Uint256
	ledgerCount *slots.Value[uint64]

	observers []LedgerObserver
}

func New(
	addr thor.Address,
	state *state.State,
	cfg thor.Config,
	params *params.Params,
	balances *balances.Balances,
	emitter events.Emitter,
) *Staking {
	sctx := slots.NewContext(addr, state)
	return &Staking{
		cfg:      cfg,
		params:   params,
		balances: balances,
		emitter:  emitter,

		ledgers:     slots.NewMapping[thor.Address, *ledger.Ledger](sctx, slotLedgers),
		roles:       slots.NewMapping[thor.Address, *Role](sctx, slotRoles),
		validators:  slots.NewAddressSet(sctx, slotValidators),
		nominators:  slots.NewAddressSet(sctx, slotNominators),
		currentEra:  slots.NewValue[uint32](sctx, slotCurrentEra),
		eraStart:    slots.NewMapping[slots.Uint64Key, uint32](sctx, slotEraStart),
		forceEra:    slots.NewValue[Forcing](sctx, slotForceEra),
		activeSet:   slots.NewValue[[]*Exposure](sctx, slotActiveSet),
		totalStaked: slots.NewUint256(sctx, slotTotalStaked),
		ledgerCount: slots.NewValue[uint64](sctx, slotTotalLedgers),
	}
}

// Subscribe registers an observer of ledger writes.
func (s *Staking) Subscribe(o LedgerObserver) {
	s.observers = append(s.observers, o)
}

//
// Getters - no state change
//

// Ledger returns the ledger of stash, ErrNotStash if there is none.
func (s *Staking) Ledger(stash thor.Address) (*ledger.Ledger, error) {
	l, found, err := s.ledgers.Lookup(stash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotStash
	}
	return l, nil
}

// IsBonded reports whether stash has a ledger.
func (s *Staking) IsBonded(stash thor.Address) (bool, error) {
	_, found, err := s.ledgers.Lookup(stash)
	return found, err
}

// Role returns the staking role of stash. Unknown stashes are idle.
func (s *Staking) Role(stash thor.Address) (*Role, error) {
	return s.roles.Get(stash)
}

// Validators lists the validator candidates.
func (s *Staking) Validators() ([]thor.Address, error) {
	return s.validators.All()
}

func (s *Staking) Nominators() ([]thor.Address, error) {
	return s.nominators.All()
}

// TotalStaked is the sum of all ledger totals.
func (s *Staking) TotalStaked() (*big.Int, error) {
	return s.totalStaked.Get()
}

func (s *Staking) LedgerCount() (uint64, error) {
	return s.ledgerCount.Get()
}

func (s *Staking) minBond(key thor.Bytes32) (*big.Int, error) {
	floor, err := s.params.Get(key)
	if err != nil {
		return nil, err
	}
	if ed := s.cfg.ED(); floor.Cmp(ed) < 0 {
		return ed, nil
	}
	return floor, nil
}

// MinBond returns the active bond floor of a role. It is never below the existential deposit.
func (s *Staking) MinBond(kind RoleKind) (*big.Int, error) {
	switch kind {
	case RoleValidator:
		return s.minBond(params.KeyMinValidatorBond)
	case RoleNominator:
		return s.minBond(params.KeyMinNominatorBond)
	default:
		return new(big.Int), nil
	}
}
