// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{BondingDuration: 2, MaxUnlockingChunks: 1}.WithDefaults()

	assert.Equal(t, uint32(2), cfg.BondingDuration)
	assert.Equal(t, uint32(1), cfg.MaxUnlockingChunks)
	assert.Equal(t, DefaultConfig().SessionLength, cfg.SessionLength)
	assert.True(t, cfg.IsUnsignedAccepted())
	assert.True(t, cfg.IsEmergencyThrottled())
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(30), cfg.EraLength())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		ok   bool
	}{
		{"default", func(*Config) {}, true},
		{"windows exceed era", func(c *Config) { c.SignedPhase = 20; c.UnsignedPhase = 10 }, false},
		{"unknown fallback", func(c *Config) { c.Fallback = "magic" }, false},
		{"threshold above one", func(c *Config) { c.OffendingValidatorsThreshold = PerbillOne + 1 }, false},
		{"onchain fallback", func(c *Config) { c.Fallback = FallbackOnChain }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestConfigYAML(t *testing.T) {
	raw := `
sessionLength: 5
sessionsPerEra: 4
emergencyThrottling: false
fallback: onchain
offendingValidatorsThreshold: 100000000
`
	var cfg Config
	assert.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))
	cfg = cfg.WithDefaults()

	assert.Equal(t, uint32(20), cfg.EraLength())
	assert.False(t, cfg.IsEmergencyThrottled())
	assert.Equal(t, FallbackOnChain, cfg.Fallback)
	assert.Equal(t, PerbillFromPercent(10), cfg.OffendingValidatorsThreshold)
}

func TestPerbill(t *testing.T) {
	p := PerbillFromPercent(10)
	assert.Equal(t, uint64(1), p.MulFloor(10))
	assert.Equal(t, uint64(0), p.MulFloor(9))
	assert.Equal(t, Perbill(PerbillOne), PerbillFromPercent(150))

	// 1 of 10 is exactly 10%, not above it.
	assert.False(t, p.Exceeded(1, 10))
	assert.True(t, p.Exceeded(2, 10))
	assert.True(t, PerbillFromPercent(17).Exceeded(1, 5))
	assert.Equal(t, "10.0000000%", p.String())
}

func TestAddress(t *testing.T) {
	addr := BytesToAddress([]byte("stash"))
	parsed, err := ParseAddress(addr.String())
	assert.NoError(t, err)
	assert.Equal(t, addr, *parsed)

	text, err := addr.MarshalText()
	assert.NoError(t, err)
	var back Address
	assert.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, addr, back)

	_, err = ParseAddress("0x1234")
	assert.Error(t, err)
	assert.True(t, Address{}.IsZero())
}

func TestBlake2b(t *testing.T) {
	a := Blake2b([]byte("pools/bonded"), []byte{1})
	b := Blake2b(append([]byte("pools/bonded"), 1))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Blake2b([]byte("pools/bonded"), []byte{2}))
}

func TestBytes32Text(t *testing.T) {
	key := BytesToBytes32([]byte("validator-count"))
	data, err := key.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, key.String(), string(data))

	var back Bytes32
	assert.NoError(t, back.UnmarshalText(data))
	assert.Equal(t, key, back)
	assert.False(t, back.IsZero())
	assert.Error(t, back.UnmarshalText([]byte("0x1234")))
}
