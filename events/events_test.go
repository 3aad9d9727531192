// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/npos/thor"
)

type ping struct{ Who thor.Address }

func (ping) Module() string          { return "test" }
func (ping) Name() string            { return "Ping" }
func (p ping) Account() thor.Address { return p.Who }

type pong struct{}

func (pong) Module() string { return "test" }
func (pong) Name() string   { return "Pong" }

func TestBufferCheckpoints(t *testing.T) {
	var b Buffer
	b.Emit(ping{})
	cp := b.Checkpoint()
	b.Emit(pong{})
	b.Emit(pong{})
	assert.Len(t, b.Since(cp), 2)

	b.RevertTo(cp)
	assert.Equal(t, 1, b.Len())
	assert.Nil(t, b.Since(cp))

	drained := b.Drain()
	assert.Len(t, drained, 1)
	assert.Zero(t, b.Len())
}

func TestAccountOf(t *testing.T) {
	who := thor.BytesToAddress([]byte("who"))
	assert.Equal(t, who, AccountOf(ping{Who: who}))
	assert.True(t, AccountOf(pong{}).IsZero())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Emit(ping{})
	r.Emit(pong{})
	assert.Equal(t, []string{"Ping", "Pong"}, r.Names())
	r.Reset()
	assert.Empty(t, r.Events)
}
