// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/builtin/staking"
	"github.com/vechain/npos/events"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/test/datagen"
	"github.com/vechain/npos/thor"
)

type fakeStaking struct {
	era     uint32
	active  []thor.Address
	slashed map[thor.Address]thor.Perbill
	chilled []thor.Address
	forcing staking.Forcing
}

func newFakeStaking(n int) *fakeStaking {
	return &fakeStaking{active: datagen.RandAddresses(n), slashed: make(map[thor.Address]thor.Perbill)}
}

func (f *fakeStaking) CurrentEra() (uint32, error)               { return f.era, nil }
func (f *fakeStaking) ActiveValidators() ([]thor.Address, error) { return f.active, nil }
func (f *fakeStaking) ForceEra() (staking.Forcing, error)        { return f.forcing, nil }
func (f *fakeStaking) ForceNewEra() error                        { f.forcing = staking.ForceNew; return nil }
func (f *fakeStaking) Chill(stash thor.Address) error {
	f.chilled = append(f.chilled, stash)
	return nil
}

func (f *fakeStaking) Slash(stash thor.Address, fraction thor.Perbill) (*big.Int, error) {
	f.slashed[stash] += fraction
	return fraction.MulBig(big.NewInt(1000)), nil
}

func newSlashing(fs *fakeStaking) (*Slashing, *events.Recorder) {
	rec := &events.Recorder{}
	s := New(thor.BytesToAddress([]byte("slashing")), state.New(kv.NewMem()), thor.DefaultConfig(), fs, rec)
	return s, rec
}

func evidence(who thor.Address, era uint32, percent uint32) *Evidence {
	return &Evidence{Offender: who, Era: era, Fraction: thor.PerbillFromPercent(percent)}
}

func TestReportOffences(t *testing.T) {
	fs := newFakeStaking(10)
	s, rec := newSlashing(fs)
	require.NoError(t, s.OnEraStart(10))

	outsider := datagen.RandAddress()
	require.NoError(t, s.ReportOffences([]*Evidence{
		evidence(fs.active[3], 0, 10),
		evidence(fs.active[3], 0, 20), // repeated, raises severity only
		evidence(fs.active[5], 1, 10), // wrong era
		evidence(outsider, 0, 10),     // not active
	}))

	assert.Equal(t, map[thor.Address]thor.Perbill{fs.active[3]: thor.PerbillFromPercent(10)}, fs.slashed)
	assert.Equal(t, []thor.Address{fs.active[3]}, fs.chilled)
	assert.Equal(t, []string{"Offence", "ValidatorDisabled"}, rec.Names())

	count, err := s.OffendingCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	disabled, err := s.DisabledValidators()
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, disabled)
	ok, err := s.IsDisabled(3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDisablingEviction(t *testing.T) {
	// 7 validators allow (7-1)/3 = 2 disabled
	fs := newFakeStaking(7)
	s, rec := newSlashing(fs)
	require.NoError(t, s.OnEraStart(7))

	require.NoError(t, s.ReportOffences([]*Evidence{
		evidence(fs.active[0], 0, 10),
		evidence(fs.active[1], 0, 10),
		evidence(fs.active[2], 0, 10), // tie with the lowest: dropped
	}))
	disabled, err := s.DisabledValidators()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, disabled)

	rec.Reset()
	require.NoError(t, s.ReportOffences([]*Evidence{evidence(fs.active[4], 0, 50)}))
	disabled, err = s.DisabledValidators()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 4}, disabled, "the latest of the lowest is replaced")
	entries, err := s.Disabled()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, thor.PerbillFromPercent(50), entries[1].Fraction)
	assert.Equal(t, []string{"Offence", "ValidatorEnabled", "ValidatorDisabled"}, rec.Names())
}

func TestSmallActiveSetDisablesNothing(t *testing.T) {
	fs := newFakeStaking(3)
	s, _ := newSlashing(fs)
	require.NoError(t, s.OnEraStart(3))

	require.NoError(t, s.ReportOffences([]*Evidence{evidence(fs.active[0], 0, 100)}))
	disabled, err := s.DisabledValidators()
	require.NoError(t, err)
	assert.Empty(t, disabled)
	assert.Len(t, fs.slashed, 1, "slashing is not bounded by the disabling limit")
}

func TestDisablingBoundHolds(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for range 200 {
		var size, batch uint8
		f.Fuzz(&size)
		f.Fuzz(&batch)
		n := int(size%60) + 1

		fs := newFakeStaking(n)
		s, _ := newSlashing(fs)
		require.NoError(t, s.OnEraStart(uint32(n)))

		evs := make([]*Evidence, 0, int(batch))
		for range int(batch) {
			var pick uint16
			var fraction uint32
			f.Fuzz(&pick)
			f.Fuzz(&fraction)
			who := datagen.RandAddress()
			if int(pick)%4 != 0 {
				who = fs.active[int(pick)%n]
			}
			evs = append(evs, &Evidence{Offender: who, Era: 0, Fraction: thor.Perbill(fraction % (thor.PerbillOne + 1))})
		}
		require.NoError(t, s.ReportOffences(evs))

		disabled, err := s.DisabledValidators()
		require.NoError(t, err)
		assert.LessOrEqual(t, len(disabled), (n-1)/3, "active set %d, batch %d", n, batch)
	}
}

func TestForcingThreshold(t *testing.T) {
	// 17% of 10 is 1.7: the second offender forces
	fs := newFakeStaking(10)
	s, _ := newSlashing(fs)
	require.NoError(t, s.OnEraStart(10))

	require.NoError(t, s.ReportOffences([]*Evidence{evidence(fs.active[0], 0, 1)}))
	assert.Equal(t, staking.NotForcing, fs.forcing)
	require.NoError(t, s.ReportOffences([]*Evidence{evidence(fs.active[1], 0, 1)}))
	assert.Equal(t, staking.ForceNew, fs.forcing)
}

func TestForceNoneIsRespected(t *testing.T) {
	fs := newFakeStaking(4)
	fs.forcing = staking.ForceNone
	s, _ := newSlashing(fs)
	require.NoError(t, s.OnEraStart(4))

	require.NoError(t, s.ReportOffences([]*Evidence{evidence(fs.active[0], 0, 1), evidence(fs.active[1], 0, 1)}))
	assert.Equal(t, staking.ForceNone, fs.forcing)
}

func TestTenPercentPerEraNeverForces(t *testing.T) {
	fs := newFakeStaking(30)
	s, _ := newSlashing(fs)

	for era := uint32(0); len(fs.active)/10 > 0; era++ {
		fs.era = era
		require.NoError(t, s.OnEraStart(uint32(len(fs.active))))

		offenders := fs.active[:len(fs.active)/10]
		var evs []*Evidence
		for _, o := range offenders {
			evs = append(evs, evidence(o, era, 10))
		}
		require.NoError(t, s.ReportOffences(evs))
		assert.Equal(t, staking.NotForcing, fs.forcing, "era %d", era)

		// chilled offenders are not elected again
		fs.active = append([]thor.Address(nil), fs.active[len(offenders):]...)
	}
}

func TestOnEraStartResets(t *testing.T) {
	fs := newFakeStaking(10)
	s, _ := newSlashing(fs)
	require.NoError(t, s.OnEraStart(10))
	require.NoError(t, s.ReportOffences([]*Evidence{evidence(fs.active[0], 0, 5)}))

	require.NoError(t, s.OnEraStart(9))
	disabled, err := s.DisabledValidators()
	require.NoError(t, err)
	assert.Empty(t, disabled)
	count, err := s.OffendingCount()
	require.NoError(t, err)
	assert.Zero(t, count)
	size, err := s.EraStartSize()
	require.NoError(t, err)
	assert.Equal(t, uint32(9), size)
}
