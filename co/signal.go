// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Waiter hands out the channel to block on. A received true means Signal, a
// closed channel means Broadcast.
type Waiter interface {
	C() <-chan bool
}

// Signal is a channel based sync.Cond. The zero value is ready to use.
type Signal struct {
	mu sync.Mutex
	ch chan bool
}

func (s *Signal) chanLocked() chan bool {
	if s.ch == nil {
		s.ch = make(chan bool, 1)
	}
	return s.ch
}

// Signal wakes at most one waiter. It never blocks.
func (s *Signal) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.chanLocked() <- true:
	default:
	}
}

// Broadcast wakes every current waiter.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.chanLocked())
	s.ch = make(chan bool, 1)
}

// NewWaiter returns a waiter bound to the current generation. After each C call
// the waiter follows on to the next generation.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	w := &waiter{s: s, ch: s.chanLocked()}
	s.mu.Unlock()
	return w
}

type waiter struct {
	s  *Signal
	ch chan bool
}

func (w *waiter) C() <-chan bool {
	ch := w.ch
	w.s.mu.Lock()
	w.ch = w.s.chanLocked()
	w.s.mu.Unlock()
	return ch
}
