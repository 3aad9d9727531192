// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

// Buffer collects events of the block being processed. Checkpoints mirror the
// state checkpoints so events of a reverted call are dropped with it.
type Buffer struct {
	events []Event
}

func (b *Buffer) Emit(ev Event) {
	b.events = append(b.events, ev)
}

func (b *Buffer) Checkpoint() int {
	return len(b.events)
}

func (b *Buffer) RevertTo(checkpoint int) {
	if checkpoint < 0 {
		checkpoint = 0
	}
	if checkpoint < len(b.events) {
		clear(b.events[checkpoint:])
		b.events = b.events[:checkpoint]
	}
}

func (b *Buffer) Len() int {
	return len(b.events)
}

// Since returns the events emitted after checkpoint.
func (b *Buffer) Since(checkpoint int) []Event {
	if checkpoint >= len(b.events) {
		return nil
	}
	return append([]Event(nil), b.events[checkpoint:]...)
}

// Drain returns all buffered events and empties the buffer.
func (b *Buffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}

// Recorder is an Emitter that keeps everything, handy in tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.Events = append(r.Events, ev)
}

// Names lists the recorded event names in order.
func (r *Recorder) Names() []string {
	names := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		names = append(names, ev.Name())
	}
	return names
}

func (r *Recorder) Reset() {
	r.Events = nil
}
