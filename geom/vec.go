// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import "math"

// Vec2 is a point or direction in map coordinates.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(u Vec2) Vec2 { return Vec2{v.X + u.X, v.Y + u.Y} }

func (v Vec2) Sub(u Vec2) Vec2 { return Vec2{v.X - u.X, v.Y - u.Y} }

func (v Vec2) Scale(k float64) Vec2 { return Vec2{k * v.X, k * v.Y} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Norm returns the unit vector in v's direction, or the +Y axis if v
// is (near) zero; side plots of degenerate anchors fall back to a
// vertical axis.
func (v Vec2) Norm() Vec2 {
	l := v.Len()
	if l < 1e-9 {
		return Vec2{0, 1}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Perp returns v rotated a quarter turn counterclockwise.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// Angle returns the angle of v from the +X axis, in radians.
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Rotate returns v rotated by theta radians counterclockwise.
func (v Vec2) Rotate(theta float64) Vec2 {
	sin, cos := math.Sincos(theta)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min, Max Vec2
}

// RectAround returns the Rect of the given size centered at c.
func RectAround(c Vec2, w, h float64) Rect {
	half := Vec2{w / 2, h / 2}
	return Rect{Min: c.Sub(half), Max: c.Add(half)}
}

func (r Rect) Center() Vec2 {
	return Vec2{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

func (r Rect) Translate(v Vec2) Rect {
	return Rect{Min: r.Min.Add(v), Max: r.Max.Add(v)}
}

// Overlaps reports whether r and s intersect with positive area.
func (r Rect) Overlaps(s Rect) bool {
	return r.Min.X < s.Max.X && s.Min.X < r.Max.X &&
		r.Min.Y < s.Max.Y && s.Min.Y < r.Max.Y
}

// Union returns the smallest Rect covering both r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		Min: Vec2{math.Min(r.Min.X, s.Min.X), math.Min(r.Min.Y, s.Min.Y)},
		Max: Vec2{math.Max(r.Max.X, s.Max.X), math.Max(r.Max.Y, s.Max.Y)},
	}
}

// BoundsOf returns the bounding Rect of a point set. An empty set
// yields the degenerate Rect at the origin.
func BoundsOf(pts []Vec2) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r = r.Union(Rect{Min: p, Max: p})
	}
	return r
}
