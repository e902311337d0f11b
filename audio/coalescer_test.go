package audio

import (
	"math"
	"testing"

	"github.com/Lundis/go-spatialaudio/vec"
)

func closeTo(a, b vec.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestCoalescerWeightedCentroid(t *testing.T) {
	positions := []vec.Point{{X: 10, Y: 0}, {X: 0, Y: 20}, {X: -5, Y: -5}, {X: 0.5, Y: 0}}
	var e queueEntry
	var sum vec.Point
	var weight float64
	for _, p := range positions {
		e.add(p, vec.Point{})
		d := 1 / math.Max(1, p.Dot(p))
		sum = sum.Add(p.Mul(d))
		weight += d
	}
	want := sum.Mul(1 / weight)
	if got := e.position(); !closeTo(got, want) {
		t.Fatalf("position: got %v, want %v", got, want)
	}
}

func TestCoalescerZeroEmissions(t *testing.T) {
	var e queueEntry
	if got := e.position(); !got.IsZero() {
		t.Fatalf("empty entry position: got %v, want zero", got)
	}
	if got := e.velocity(); !got.IsZero() {
		t.Fatalf("empty entry velocity: got %v, want zero", got)
	}
}

func TestCoalescerNearbySourceFloor(t *testing.T) {
	// Inside the unit distance the weight is floored at 1, so two
	// emissions at and near the listener average plainly.
	var e queueEntry
	e.add(vec.Point{}, vec.Point{})
	e.add(vec.Point{X: 0.5, Y: 0}, vec.Point{})
	if got := e.position(); !closeTo(got, vec.Point{X: 0.25, Y: 0}) {
		t.Fatalf("position: got %v, want (0.25 0)", got)
	}
}

func TestCoalescerMergeOrderIndependent(t *testing.T) {
	positions := []vec.Point{{X: 3, Y: 4}, {X: -8, Y: 1}, {X: 0, Y: 0.5}, {X: 40, Y: -2}}
	velocities := []vec.Point{{X: 1, Y: 0}, {X: 0, Y: -3}, {X: 2, Y: 2}, {X: -5, Y: 0}}

	var all queueEntry
	for i := range positions {
		all.add(positions[i], velocities[i])
	}

	// Same emissions split over two entries merged in the other order.
	var a, b queueEntry
	a.add(positions[2], velocities[2])
	a.add(positions[0], velocities[0])
	b.add(positions[3], velocities[3])
	b.add(positions[1], velocities[1])
	b.merge(&a)

	if !closeTo(all.position(), b.position()) {
		t.Fatalf("merged position %v differs from sequential %v", b.position(), all.position())
	}
	if !closeTo(all.velocity(), b.velocity()) {
		t.Fatalf("merged velocity %v differs from sequential %v", b.velocity(), all.velocity())
	}
}

func TestCoalescerVelocityProjection(t *testing.T) {
	p := vec.Point{X: 3, Y: 4}
	v := vec.Point{X: 1, Y: 0}
	var e queueEntry
	e.add(p, v)

	// One emission: position is the emission itself, and the velocity is
	// the approach speed projected back onto that direction.
	if got := e.position(); !closeTo(got, p) {
		t.Fatalf("position: got %v, want %v", got, p)
	}
	d := 1 / p.Dot(p)
	speed := d * math.Sqrt(d) * p.Dot(v)
	want := p.Mul(speed / p.Length())
	if got := e.velocity(); !closeTo(got, want) {
		t.Fatalf("velocity: got %v, want %v", got, want)
	}
}
