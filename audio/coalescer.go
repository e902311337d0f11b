package audio

import (
	"math"

	"github.com/Lundis/go-spatialaudio/vec"
)

// queueEntry coalesces every request to play one sound within a tick into
// a single position and approach speed. Each emission is weighted by the
// inverse of its squared distance to the listener, so near sources
// dominate the aggregate.
type queueEntry struct {
	sum    vec.Point
	speed  float64
	weight float64
}

func (e *queueEntry) add(position, velocity vec.Point) {
	d := 1. / math.Max(1., position.Dot(position))
	e.sum = e.sum.Add(position.Mul(d))
	e.speed += d * math.Sqrt(d) * position.Dot(velocity)
	e.weight += d
}

func (e *queueEntry) merge(other *queueEntry) {
	e.sum = e.sum.Add(other.sum)
	e.speed += other.speed
	e.weight += other.weight
}

// position returns the weighted centroid of all emissions, relative to
// the listener.
func (e *queueEntry) position() vec.Point {
	if e.weight != 0 {
		return e.sum.Mul(1 / e.weight)
	}
	return e.sum
}

// velocity projects the accumulated approach speed onto the direction of
// the coalesced position, giving one approximate relative velocity for
// Doppler and panning.
func (e *queueEntry) velocity() vec.Point {
	pos := e.position()
	length := pos.Length()
	if length == 0 {
		return pos
	}
	return pos.Mul(e.speed / length)
}
