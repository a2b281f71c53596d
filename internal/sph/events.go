package sph

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

type eventKind int

const (
	spawnEvent eventKind = iota
	despawnEvent
)

type event struct {
	kind  eventKind
	count int
	pos   r2.Vec
}

// EventReport summarises the events drained by the last Step.
type EventReport struct {
	Spawned   int
	Despawned int
	Rejected  []error
}

// QueueSpawn requests count new particles near (x, y) at the end of the
// next step.
func (u *Universe) QueueSpawn(count int, x, y float64) error {
	if count < 0 {
		return fmt.Errorf("%w: spawn count %d", ErrInvalidEvent, count)
	}
	if !isFinite(x) || !isFinite(y) {
		return fmt.Errorf("%w: spawn position (%g, %g)", ErrInvalidEvent, x, y)
	}
	u.events = append(u.events, event{kind: spawnEvent, count: count, pos: r2.Vec{X: x, Y: y}})
	return nil
}

// QueueDespawn requests removal of the count fastest particles at the end
// of the next step. A count larger than the population at that point
// rejects the event.
func (u *Universe) QueueDespawn(count int) error {
	if count < 0 {
		return fmt.Errorf("%w: despawn count %d", ErrInvalidEvent, count)
	}
	u.events = append(u.events, event{kind: despawnEvent, count: count})
	return nil
}

// PendingDelta is the net change in particle count queued for the next step.
func (u *Universe) PendingDelta() int {
	d := 0
	for _, ev := range u.events {
		if ev.kind == spawnEvent {
			d += ev.count
		} else {
			d -= ev.count
		}
	}
	return d
}

// LastReport returns what the last Step did with its queued events.
func (u *Universe) LastReport() EventReport { return u.report }

// drainEvents applies every queued event in order and clears the queue.
func (u *Universe) drainEvents() {
	report := EventReport{}

	for _, ev := range u.events {
		switch ev.kind {
		case spawnEvent:
			u.spawn(ev.count, ev.pos)
			report.Spawned += ev.count
		case despawnEvent:
			n := len(u.particles)
			if ev.count > n {
				err := fmt.Errorf("despawn %d of %d particles: %w", ev.count, n, ErrDespawnTooMany)
				report.Rejected = append(report.Rejected, err)
				u.logger.Warn("rejected despawn event", "count", ev.count, "particles", n, "step", u.steps)
				continue
			}
			u.despawn(ev.count)
			report.Despawned += ev.count
		}
	}

	if report.Spawned > 0 || report.Despawned > 0 {
		u.logger.Debug("population changed", "spawned", report.Spawned, "despawned", report.Despawned, "particles", len(u.particles))
	}

	u.events = u.events[:0]
	u.report = report
}

// spawn appends count particles scattered uniformly over a disc of radius
// SpawnJitter around pos, so no two land on the same point.
func (u *Universe) spawn(count int, pos r2.Vec) {
	radius := u.params.SpawnJitter
	for k := 0; k < count; k++ {
		r := radius * math.Sqrt(u.rnd.Float64())
		theta := 2 * math.Pi * u.rnd.Float64()
		p := NewParticle(pos.X+r*math.Cos(theta), pos.Y+r*math.Sin(theta), u.params.SpawnMass)
		u.particles = append(u.particles, p)
	}
}

// despawn removes the count particles with the highest kinetic energy.
// Ties go to the lower index. Survivors keep their relative order.
func (u *Universe) despawn(count int) {
	if count == 0 {
		return
	}

	order := make([]int, len(u.particles))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return u.particles[order[a]].KineticEnergy() > u.particles[order[b]].KineticEnergy()
	})

	remove := make([]bool, len(u.particles))
	for _, i := range order[:count] {
		remove[i] = true
	}

	kept := u.particles[:0]
	for i, p := range u.particles {
		if !remove[i] {
			kept = append(kept, p)
		}
	}
	u.particles = kept
}
