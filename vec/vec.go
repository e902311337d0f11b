// Package vec provides the 2D vector type used for world positions and
// velocities throughout the mixer.
package vec

import "math"

type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

func (p Point) Mul(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

func (p Point) Length() float64 {
	return math.Sqrt(p.Dot(p))
}

func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}
