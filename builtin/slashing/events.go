// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import "github.com/vechain/npos/thor"

const module = "slashing"

type Offence struct {
	Offender thor.Address `json:"offender"`
	Era      uint32       `json:"era"`
	Fraction thor.Perbill `json:"fraction"`
}

type ValidatorDisabled struct {
	Index    uint32       `json:"index"`
	Fraction thor.Perbill `json:"fraction"`
}

// ValidatorEnabled is emitted when a disabled validator is replaced by a more severe offender.
type ValidatorEnabled struct {
	Index uint32 `json:"index"`
}

func (*Offence) Module() string          { return module }
func (*Offence) Name() string            { return "Offence" }
func (e *Offence) Account() thor.Address { return e.Offender }

func (*ValidatorDisabled) Module() string { return module }
func (*ValidatorDisabled) Name() string   { return "ValidatorDisabled" }

func (*ValidatorEnabled) Module() string { return module }
func (*ValidatorEnabled) Name() string   { return "ValidatorEnabled" }
