// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package place

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxmap/fluxmap/data"
	"github.com/fluxmap/fluxmap/geom"
)

func TestStoreSeedNeverOverwrites(t *testing.T) {
	s := NewStore()
	k := Key{ID: "PFK", Side: data.Right}

	s.Seed(k, Transform{Offset: geom.Vec2{X: 1}})
	s.Seed(k, Transform{Offset: geom.Vec2{X: 2}})
	tr, ok := s.Get(k)
	require.True(t, ok)
	assert.Equal(t, 1.0, tr.Offset.X)

	s.SetUser(k, Transform{Offset: geom.Vec2{X: 9}})
	s.Seed(k, Transform{Offset: geom.Vec2{X: 3}})
	tr, _ = s.Get(k)
	assert.Equal(t, 9.0, tr.Offset.X)
	assert.True(t, s.IsUser(k))
}

func TestDropSeededKeepsUserTransforms(t *testing.T) {
	s := NewStore()
	s.Seed(Key{ID: "a", Side: data.Right}, Identity())
	s.SetUser(Key{ID: "b", Side: data.Left}, Identity())

	s.DropSeeded()
	assert.False(t, s.Has(Key{ID: "a", Side: data.Right}))
	assert.True(t, s.Has(Key{ID: "b", Side: data.Left}))
	assert.Equal(t, 1, s.Len())
}

func TestTransformBoundsRotated(t *testing.T) {
	tr := Transform{Rotation: math.Pi / 2, Scale: geom.Vec2{X: 1, Y: 1}}
	r := tr.Bounds(geom.Rect{Max: geom.Vec2{X: 100, Y: 50}})
	// A quarter turn swaps the extents.
	assert.InDelta(t, 50, r.Width(), 1e-9)
	assert.InDelta(t, 100, r.Height(), 1e-9)
}

func item(id string, side data.Side, origin geom.Vec2) Item {
	return Item{
		ID:        id,
		Side:      side,
		Origin:    origin,
		Direction: geom.Vec2{X: 1, Y: 0},
		Bounds:    geom.Rect{Max: geom.Vec2{X: 100, Y: 50}},
	}
}

func TestPlaceAdjacentPlotsDoNotOverlap(t *testing.T) {
	items := []Item{
		item("a", data.Right, geom.Vec2{X: 0, Y: 0}),
		item("b", data.Right, geom.Vec2{X: 10, Y: 0}),
	}
	s := NewStore()
	var e Engine
	e.Place(items, s)

	ta, ok := s.Get(items[0].Key())
	require.True(t, ok)
	tb, ok := s.Get(items[1].Key())
	require.True(t, ok)

	ra := ta.Bounds(items[0].Bounds)
	rb := tb.Bounds(items[1].Bounds)
	assert.False(t, ra.Overlaps(rb))
}

func TestPlaceOrderIndependent(t *testing.T) {
	forward := []Item{
		item("a", data.Right, geom.Vec2{}),
		item("b", data.Right, geom.Vec2{X: 10}),
	}
	reversed := []Item{forward[1], forward[0]}

	s1, s2 := NewStore(), NewStore()
	var e Engine
	e.Place(forward, s1)
	e.Place(reversed, s2)

	for _, it := range forward {
		t1, _ := s1.Get(it.Key())
		t2, _ := s2.Get(it.Key())
		assert.Equal(t, t1, t2, "key %v", it.Key())
	}
}

func TestPlaceRespectsExistingTransforms(t *testing.T) {
	it := item("a", data.Right, geom.Vec2{})
	s := NewStore()
	user := Transform{Offset: geom.Vec2{X: 123, Y: 45}, Scale: geom.Vec2{X: 1, Y: 1}}
	s.SetUser(it.Key(), user)

	var e Engine
	e.Place([]Item{it}, s)
	got, _ := s.Get(it.Key())
	assert.Equal(t, user, got)
}

func TestPlaceSidesIndependent(t *testing.T) {
	// A left plot is not an obstacle for a right plot at the same
	// anchor.
	items := []Item{
		item("a", data.Right, geom.Vec2{}),
		item("a", data.Left, geom.Vec2{}),
	}
	s := NewStore()
	var e Engine
	e.Place(items, s)

	right, _ := s.Get(Key{ID: "a", Side: data.Right})
	left, _ := s.Get(Key{ID: "a", Side: data.Left})
	rc := right.Bounds(items[0].Bounds).Center()
	lc := left.Bounds(items[1].Bounds).Center()
	// Both get their default offsets, on opposite sides of the
	// anchor edge.
	assert.InDelta(t, -lc.Y, rc.Y, 1e-9)
	assert.Less(t, rc.Y, 0.0)
}

func TestSnap(t *testing.T) {
	assert.Equal(t, math.Pi/2, Snap(math.Pi/2+0.05, 0.06))
	assert.Equal(t, 0.0, Snap(-0.03, 0.06))
	off := math.Pi/2 + 0.2
	assert.Equal(t, off, Snap(off, 0.06))
	assert.Equal(t, math.Pi, Snap(math.Pi-0.01, 0.06))
}
