// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"

	"github.com/pkg/errors"
)

// Fallback names the election outcome producer used when no queued solution is available.
type Fallback string

const (
	FallbackNone    Fallback = "none"
	FallbackOnChain Fallback = "onchain"
)

// Config is the set of static chain constants. Most of the parameters have default values,
// for testing purposes or custom networks they can be overridden. Zero values are replaced by defaults.
type Config struct {
	SessionLength  uint32 `json:"sessionLength" yaml:"sessionLength"`   // blocks per session
	SessionsPerEra uint32 `json:"sessionsPerEra" yaml:"sessionsPerEra"` // sessions per era

	BondingDuration    uint32 `json:"bondingDuration" yaml:"bondingDuration"` // eras an unlocking chunk waits
	MaxUnlockingChunks uint32 `json:"maxUnlockingChunks" yaml:"maxUnlockingChunks"`
	ExistentialDeposit uint64 `json:"existentialDeposit" yaml:"existentialDeposit"`
	MaxNominations     uint32 `json:"maxNominations" yaml:"maxNominations"`

	SignedPhase          uint32   `json:"signedPhase" yaml:"signedPhase"`     // blocks, 0 disables the signed window
	UnsignedPhase        uint32   `json:"unsignedPhase" yaml:"unsignedPhase"` // blocks
	MaxSignedSubmissions uint32   `json:"maxSignedSubmissions" yaml:"maxSignedSubmissions"`
	AcceptUnsigned       *bool    `json:"acceptUnsigned,omitempty" yaml:"acceptUnsigned,omitempty"`
	EmergencyThrottling  *bool    `json:"emergencyThrottling,omitempty" yaml:"emergencyThrottling,omitempty"`
	Fallback             Fallback `json:"fallback" yaml:"fallback"`

	OffendingValidatorsThreshold Perbill `json:"offendingValidatorsThreshold" yaml:"offendingValidatorsThreshold"`
	DisablingFactor              uint32  `json:"disablingFactor" yaml:"disablingFactor"`

	MaxPoolUnbonding uint32 `json:"maxPoolUnbonding" yaml:"maxPoolUnbonding"`
}

// DefaultConfig returns the config used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		SessionLength:                10,
		SessionsPerEra:               3,
		BondingDuration:              3,
		MaxUnlockingChunks:           32,
		ExistentialDeposit:           1,
		MaxNominations:               16,
		SignedPhase:                  10,
		UnsignedPhase:                10,
		MaxSignedSubmissions:         16,
		AcceptUnsigned:               ptr(true),
		EmergencyThrottling:          ptr(true),
		Fallback:                     FallbackNone,
		OffendingValidatorsThreshold: PerbillFromPercent(17),
		DisablingFactor:              3,
		MaxPoolUnbonding:             8,
	}
}

// WithDefaults returns a copy of c where zero values are replaced by defaults.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.SessionLength == 0 {
		c.SessionLength = d.SessionLength
	}
	if c.SessionsPerEra == 0 {
		c.SessionsPerEra = d.SessionsPerEra
	}
	if c.BondingDuration == 0 {
		c.BondingDuration = d.BondingDuration
	}
	if c.MaxUnlockingChunks == 0 {
		c.MaxUnlockingChunks = d.MaxUnlockingChunks
	}
	if c.ExistentialDeposit == 0 {
		c.ExistentialDeposit = d.ExistentialDeposit
	}
	if c.MaxNominations == 0 {
		c.MaxNominations = d.MaxNominations
	}
	if c.SignedPhase == 0 && c.UnsignedPhase == 0 {
		c.SignedPhase = d.SignedPhase
		c.UnsignedPhase = d.UnsignedPhase
	}
	if c.MaxSignedSubmissions == 0 {
		c.MaxSignedSubmissions = d.MaxSignedSubmissions
	}
	if c.AcceptUnsigned == nil {
		c.AcceptUnsigned = d.AcceptUnsigned
	}
	if c.EmergencyThrottling == nil {
		c.EmergencyThrottling = d.EmergencyThrottling
	}
	if c.Fallback == "" {
		c.Fallback = d.Fallback
	}
	if c.OffendingValidatorsThreshold == 0 {
		c.OffendingValidatorsThreshold = d.OffendingValidatorsThreshold
	}
	if c.DisablingFactor == 0 {
		c.DisablingFactor = d.DisablingFactor
	}
	if c.MaxPoolUnbonding == 0 {
		c.MaxPoolUnbonding = d.MaxPoolUnbonding
	}
	return c
}

// Validate checks the relations between constants.
func (c Config) Validate() error {
	if c.SessionLength == 0 || c.SessionsPerEra == 0 {
		return errors.New("session length and sessions per era must be positive")
	}
	eraLength := uint64(c.SessionLength) * uint64(c.SessionsPerEra)
	if uint64(c.SignedPhase)+uint64(c.UnsignedPhase) >= eraLength {
		return errors.Errorf("election windows (%d+%d blocks) must fit in an era (%d blocks)",
			c.SignedPhase, c.UnsignedPhase, eraLength)
	}
	if c.UnsignedPhase == 0 && c.SignedPhase == 0 {
		return errors.New("at least one submission window must be enabled")
	}
	if c.MaxUnlockingChunks == 0 {
		return errors.New("max unlocking chunks must be positive")
	}
	if c.DisablingFactor == 0 {
		return errors.New("disabling factor must be positive")
	}
	if c.OffendingValidatorsThreshold > PerbillOne {
		return errors.New("offending validators threshold exceeds one")
	}
	switch c.Fallback {
	case FallbackNone, FallbackOnChain:
	default:
		return errors.Errorf("unknown fallback %q", c.Fallback)
	}
	return nil
}

// EraLength returns the number of blocks of an era without forcing.
func (c Config) EraLength() uint32 {
	return c.SessionLength * c.SessionsPerEra
}

// ED returns the existential deposit as a big number.
func (c Config) ED() *big.Int {
	return new(big.Int).SetUint64(c.ExistentialDeposit)
}

func (c Config) IsUnsignedAccepted() bool {
	return c.AcceptUnsigned == nil || *c.AcceptUnsigned
}

func (c Config) IsEmergencyThrottled() bool {
	return c.EmergencyThrottling == nil || *c.EmergencyThrottling
}

func ptr[T any](v T) *T { return &v }
