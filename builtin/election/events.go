// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

const module = "election"

type PhaseTransitioned struct {
	From  PhaseKind `json:"from"`
	To    PhaseKind `json:"to"`
	Round uint32    `json:"round"`
}

// SolutionStored is emitted when a submission is accepted into the signed
// queue or as the queued solution.
type SolutionStored struct {
	Round  uint32 `json:"round"`
	Signed bool   `json:"signed"`
	Score  Score  `json:"score"`
}

type ElectionFinalized struct {
	Round   uint32  `json:"round"`
	Compute Compute `json:"compute"`
	Winners int     `json:"winners"`
}

type ElectionFailed struct {
	Round uint32 `json:"round"`
}

func (*PhaseTransitioned) Module() string { return module }
func (*PhaseTransitioned) Name() string   { return "PhaseTransitioned" }

func (*SolutionStored) Module() string { return module }
func (*SolutionStored) Name() string   { return "SolutionStored" }

func (*ElectionFinalized) Module() string { return module }
func (*ElectionFinalized) Name() string   { return "ElectionFinalized" }

func (*ElectionFailed) Module() string { return module }
func (*ElectionFailed) Name() string   { return "ElectionFailed" }
