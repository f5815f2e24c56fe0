// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

// Event is a progress/snapshot payload published every 10 solver steps
// and once more at finalisation. Vx/Vy are f32 deep copies of the
// velocity fields at the moment of publication, never live buffers.
type Event struct {
	Percent uint8
	Step    uint32
	Message string
	Vx, Vy  []float32
}

// subscriberQueueLen bounds each subscriber's backlog; a subscriber that
// falls behind is dropped rather than allowed to block the solver.
const subscriberQueueLen = 8

// Bus is a one-way, non-blocking progress event bus. The solver is the
// sole publisher; subscribers receive copies and must not block it.
// Replaces the cyclic UI<->solver callback with a bounded-queue adapter:
// no back-pointer from the solver to any subscriber object.
type Bus struct {
	subs []chan Event
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new bounded-queue subscriber and returns the
// receive-only channel it should range over.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberQueueLen)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers ev to every subscriber. A subscriber whose queue is
// full is dropped silently rather than allowed to backpressure the
// solver; this is the bus's backpressure policy, not an error.
func (b *Bus) Publish(ev Event) {
	live := b.subs[:0]
	for _, ch := range b.subs {
		select {
		case ch <- ev:
			live = append(live, ch)
		default:
			close(ch)
		}
	}
	b.subs = live
}

// Close closes every live subscriber channel; called once the solver
// finishes publishing.
func (b *Bus) Close() {
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Percent computes the piecewise progress percentage described by the
// spec, clamped to [0, 99].
func Percent(peaked, touched bool, step, maxSteps, postTouch, maxPostSteps int, expectedPreTouchSteps float64) uint8 {
	var p float64
	switch {
	case peaked:
		frac := float64(step) / float64(maxSteps)
		if frac > 1 {
			frac = 1
		}
		p = 80 + 19*frac
	case touched:
		frac := float64(postTouch) / float64(maxPostSteps)
		p = 50 + 29*frac
	default:
		frac := 1.0
		if expectedPreTouchSteps > 0 {
			frac = float64(step) / expectedPreTouchSteps
		}
		if frac > 1 {
			frac = 1
		}
		p = 49 * frac
	}
	if p < 0 {
		p = 0
	}
	if p > 99 {
		p = 99
	}
	return uint8(p)
}
