// Package lifecycle keeps the state of one in-flight call consistent across
// the three independent places that report it: the softphone's device
// events, the realtime change feed on the call record, and the polling
// fallback that re-reads the same record. The three sources race and may
// deliver duplicates or stale values in any order; the coordinator merges
// them into a single monotonically-progressing status stream.
package lifecycle

import (
	"sync"
	"time"

	"crm-platform/internal/calls"
)

// Source identifies which feed produced a candidate. Informational only;
// the merge rule treats all sources identically.
type Source string

const (
	SourceDevice   Source = "device"
	SourceRealtime Source = "realtime"
	SourcePoll     Source = "poll"
)

// Candidate is a status observation pushed in by one source. Message is a
// side channel for user-visible text (device error details); it never
// influences the merge.
type Candidate struct {
	Status  calls.CallStatus
	Source  Source
	Message string
}

// Snapshot is the coordinator's published view of the call.
type Snapshot struct {
	CallID          string
	Status          calls.CallStatus
	EnteredAt       time.Time
	DurationSeconds int
	Message         string
}

// Options tune timing for tests. Zero values pick the production defaults:
// a one-second duration tick and a two-second display grace period after a
// terminal status.
type Options struct {
	TickInterval time.Duration
	GracePeriod  time.Duration
	Clock        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 2 * time.Second
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Coordinator owns the lifecycle state of a single call attempt.
//
// All state is confined to the run goroutine; sources only ever push
// candidates through Submit. The merge is rank-and-advance:
//
//   - candidate rank > current rank: advance and publish
//   - equal rank, non-terminal: duplicate delivery, no-op
//   - equal rank, both terminal: first terminal wins, later ones discarded
//   - candidate rank < current rank: stale, discarded
//
// The coordinator never fails. If no source ever reports a terminal status
// the state simply stays open; surfacing that is the consumer's job.
type Coordinator struct {
	callID string
	opts   Options

	candidates chan Candidate
	updates    chan Snapshot
	done       chan struct{} // closed after terminal + grace period
	closed     chan struct{} // closed by Close (owner disposed us early)

	closeOnce sync.Once
}

// New creates a coordinator for one call attempt and starts its run loop.
// The initial published status is the given one (normally initiated).
func New(callID string, initial calls.CallStatus, opts Options) *Coordinator {
	c := &Coordinator{
		callID:     callID,
		opts:       opts.withDefaults(),
		candidates: make(chan Candidate, 16),
		updates:    make(chan Snapshot, 32),
		done:       make(chan struct{}),
		closed:     make(chan struct{}),
	}
	go c.run(initial)
	return c
}

// Submit offers a status candidate from any source. It never blocks past
// coordinator disposal.
func (c *Coordinator) Submit(cand Candidate) {
	select {
	case c.candidates <- cand:
	case <-c.done:
	case <-c.closed:
	}
}

// Updates streams every published snapshot: status advances, duration ticks
// while connected, and the final terminal snapshot. The channel closes when
// the lifecycle completes or the coordinator is closed.
func (c *Coordinator) Updates() <-chan Snapshot { return c.updates }

// Done is closed once a terminal status has been published and the display
// grace period has elapsed; the owning UI may then dispose the call window.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Close disposes the coordinator before (or after) a terminal status, for
// example when the call window is closed mid-call. Idempotent.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *Coordinator) run(initial calls.CallStatus) {
	defer close(c.updates)

	cur := Snapshot{
		CallID:    c.callID,
		Status:    initial,
		EnteredAt: c.opts.Clock(),
	}
	c.publish(cur)

	var tick *time.Ticker
	var tickC <-chan time.Time
	stopTick := func() {
		if tick != nil {
			tick.Stop()
			tick = nil
			tickC = nil
		}
	}
	defer stopTick()

	for {
		select {
		case cand := <-c.candidates:
			next, advanced := merge(cur, cand)
			if !advanced {
				continue
			}
			cur = next
			cur.EnteredAt = c.opts.Clock()

			if cur.Status == calls.CallStatusInProgress {
				cur.DurationSeconds = 0
				tick = time.NewTicker(c.opts.TickInterval)
				tickC = tick.C
			} else {
				// Leaving in_progress freezes the counter; it never resets.
				stopTick()
			}
			c.publish(cur)

			if cur.Status.IsTerminal() {
				c.finish()
				return
			}

		case <-tickC:
			cur.DurationSeconds++
			c.publish(cur)

		case <-c.closed:
			return
		}
	}
}

// merge applies the rank-and-advance rule. It returns the snapshot to
// publish and whether the candidate advanced the state.
func merge(cur Snapshot, cand Candidate) (Snapshot, bool) {
	cr, nr := cur.Status.Rank(), cand.Status.Rank()
	if nr < 0 {
		// Unknown provider value: never advances anything.
		return cur, false
	}
	if nr < cr {
		// Stale observation, e.g. the poller reading an old row after the
		// device already reported connect.
		return cur, false
	}
	if nr == cr {
		// Duplicate delivery, or a second terminal outcome losing the race.
		return cur, false
	}
	next := cur
	next.Status = cand.Status
	next.Message = cand.Message
	return next, true
}

func (c *Coordinator) finish() {
	grace := time.NewTimer(c.opts.GracePeriod)
	defer grace.Stop()
	for {
		select {
		case <-c.candidates:
			// Terminal state is absorbing; drain and discard.
		case <-grace.C:
			close(c.done)
			return
		case <-c.closed:
			return
		}
	}
}

func (c *Coordinator) publish(s Snapshot) {
	select {
	case c.updates <- s:
	case <-c.closed:
	}
}
