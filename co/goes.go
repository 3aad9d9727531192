// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Goes tracks a group of goroutines.
type Goes struct {
	wg sync.WaitGroup
}

// Go runs f in a tracked goroutine.
func (g *Goes) Go(f func()) {
	g.wg.Go(f)
}

// Wait blocks until every goroutine started by Go returns.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done returns a channel closed once Wait would return.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}
