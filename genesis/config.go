// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/npos/thor"
)

// Config is the user customized genesis. It is read from yaml, json works too.
type Config struct {
	Chain                 *thor.Config `json:"chain" yaml:"chain"`
	Accounts              []Account    `json:"accounts" yaml:"accounts"`
	Params                Params       `json:"params" yaml:"params"`
	Validators            []Validator  `json:"validators" yaml:"validators"`
	Nominators            []Nominator  `json:"nominators" yaml:"nominators"`
	Pools                 []Pool       `json:"pools" yaml:"pools"`
	MinimumUntrustedScore *Score       `json:"minimumUntrustedScore" yaml:"minimumUntrustedScore"`
}

// Account is the account will set to the genesis block
type Account struct {
	Address thor.Address     `json:"address" yaml:"address"`
	Balance *HexOrDecimal256 `json:"balance" yaml:"balance"`
}

// Validator bonds and validates from its own balance.
type Validator struct {
	Stash      thor.Address     `json:"stash" yaml:"stash"`
	Bond       *HexOrDecimal256 `json:"bond" yaml:"bond"`
	Commission thor.Perbill     `json:"commission" yaml:"commission"`
}

// Nominator bonds from its own balance and nominates validators of the genesis.
type Nominator struct {
	Stash   thor.Address     `json:"stash" yaml:"stash"`
	Bond    *HexOrDecimal256 `json:"bond" yaml:"bond"`
	Targets []thor.Address   `json:"targets" yaml:"targets"`
}

// Pool is created by Depositor, which becomes its root, and nominates Targets.
type Pool struct {
	Depositor thor.Address     `json:"depositor" yaml:"depositor"`
	Amount    *HexOrDecimal256 `json:"amount" yaml:"amount"`
	Targets   []thor.Address   `json:"targets" yaml:"targets"`
}

// Params means the chain params for params module
type Params struct {
	ValidatorCount   *uint64          `json:"validatorCount" yaml:"validatorCount"`
	MinNominatorBond *HexOrDecimal256 `json:"minNominatorBond" yaml:"minNominatorBond"`
	MinValidatorBond *HexOrDecimal256 `json:"minValidatorBond" yaml:"minValidatorBond"`
	MinJoinBond      *HexOrDecimal256 `json:"minJoinBond" yaml:"minJoinBond"`
	MinCreateBond    *HexOrDecimal256 `json:"minCreateBond" yaml:"minCreateBond"`
}

// Score is the floor untrusted election solutions must reach.
type Score struct {
	MinimalStake    *HexOrDecimal256 `json:"minimalStake" yaml:"minimalStake"`
	SumStake        *HexOrDecimal256 `json:"sumStake" yaml:"sumStake"`
	SumStakeSquared *HexOrDecimal256 `json:"sumStakeSquared" yaml:"sumStakeSquared"`
}

// ChainConfig returns the chain constants with defaults filled in.
func (c *Config) ChainConfig() thor.Config {
	if c.Chain == nil {
		return thor.DefaultConfig()
	}
	return c.Chain.WithDefaults()
}

// Load reads a genesis config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	return &cfg, nil
}

// HexOrDecimal256 marshals big.Int as hex or decimal.
// Copied from go-ethereum/common/math and implement json. Marshaler
type HexOrDecimal256 math.HexOrDecimal256

// NewHexOrDecimal256 wraps a small number.
func NewHexOrDecimal256(v int64) *HexOrDecimal256 {
	return (*HexOrDecimal256)(big.NewInt(v))
}

// Big returns the value, zero for nil.
func (i *HexOrDecimal256) Big() *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(i))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalJSON(input []byte) error {
	var hex string
	if err := json.Unmarshal(input, &hex); err != nil {
		if err = (*big.Int)(i).UnmarshalJSON(input); err != nil {
			return err
		}
		return nil
	}
	return i.UnmarshalText([]byte(hex))
}

// UnmarshalText implements encoding.TextUnmarshaler, used for yaml scalars.
func (i *HexOrDecimal256) UnmarshalText(input []byte) error {
	bigint, ok := math.ParseBig256(string(input))
	if !ok {
		return fmt.Errorf("invalid hex or decimal integer %q", input)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (i HexOrDecimal256) MarshalJSON() ([]byte, error) {
	decimal256 := math.HexOrDecimal256(i)
	text, err := decimal256.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}
