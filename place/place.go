// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package place positions side plots on the map.
//
// Every side plot owns a transform keyed by (identifier, side), never
// by entity. Transforms come from three sources, in priority order:
// set by the user through interaction, loaded from a saved map, or
// seeded by the placement engine. User and loaded transforms are
// durable; the engine only fills gaps and never overwrites them.
package place

import (
	"math"
	"sort"

	"github.com/fluxmap/fluxmap/data"
	"github.com/fluxmap/fluxmap/geom"
)

// Key identifies one side plot slot. It survives data reloads, which
// is why it is built from the identifier and not the geom entity.
type Key struct {
	ID   string
	Side data.Side
}

// Transform places a local plot frame on the map.
type Transform struct {
	Offset   geom.Vec2
	Rotation float64
	// Scale applies per axis before rotation.
	Scale geom.Vec2
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{Scale: geom.Vec2{X: 1, Y: 1}}
}

// Apply maps a local-frame point to map coordinates.
func (tr Transform) Apply(p geom.Vec2) geom.Vec2 {
	p = geom.Vec2{X: p.X * tr.Scale.X, Y: p.Y * tr.Scale.Y}
	return p.Rotate(tr.Rotation).Add(tr.Offset)
}

// Bounds returns the map-frame AABB of a local rect under the
// transform.
func (tr Transform) Bounds(r geom.Rect) geom.Rect {
	corners := []geom.Vec2{
		tr.Apply(r.Min),
		tr.Apply(geom.Vec2{X: r.Max.X, Y: r.Min.Y}),
		tr.Apply(r.Max),
		tr.Apply(geom.Vec2{X: r.Min.X, Y: r.Max.Y}),
	}
	return geom.BoundsOf(corners)
}

type entry struct {
	tr   Transform
	user bool
}

// Store holds the placement transforms of a session.
type Store struct {
	m map[Key]entry
}

func NewStore() *Store {
	return &Store{m: map[Key]entry{}}
}

// Get returns the transform for a key.
func (s *Store) Get(k Key) (Transform, bool) {
	e, ok := s.m[k]
	return e.tr, ok
}

// Has reports whether the key is placed.
func (s *Store) Has(k Key) bool {
	_, ok := s.m[k]
	return ok
}

// Seed places a key if and only if it has no transform yet.
func (s *Store) Seed(k Key, tr Transform) {
	if _, ok := s.m[k]; ok {
		return
	}
	s.m[k] = entry{tr: tr}
}

// SetUser records a user-authored transform. It always wins and is
// never reseeded.
func (s *Store) SetUser(k Key, tr Transform) {
	s.m[k] = entry{tr: tr, user: true}
}

// IsUser reports whether the key's transform is user-authored.
func (s *Store) IsUser(k Key) bool {
	return s.m[k].user
}

// Remove drops a key.
func (s *Store) Remove(k Key) {
	delete(s.m, k)
}

// DropSeeded clears engine-seeded transforms, keeping user-authored
// ones. Called on data reload so stale seeds don't pin new plots.
func (s *Store) DropSeeded() {
	for k, e := range s.m {
		if !e.user {
			delete(s.m, k)
		}
	}
}

// Export returns every transform keyed for serialization, in a fresh
// map the caller may mutate.
func (s *Store) Export() map[Key]Transform {
	out := make(map[Key]Transform, len(s.m))
	for k, e := range s.m {
		out[k] = e.tr
	}
	return out
}

// Len returns the number of placed keys.
func (s *Store) Len() int { return len(s.m) }

// Item is one side plot the engine must place: its anchor geometry
// and the local bounds of its composition.
type Item struct {
	ID        string
	Side      data.Side
	Origin    geom.Vec2
	Direction geom.Vec2 // unit direction of the anchor edge
	Bounds    geom.Rect
}

// Key returns the item's placement key.
func (it Item) Key() Key {
	return Key{ID: it.ID, Side: it.Side}
}

// Engine seeds transforms for unplaced side plots, dodging plots
// already on the map.
type Engine struct {
	// Gap is the base distance between the anchor edge and the
	// plot. Zero selects DefaultGap.
	Gap float64
}

// DefaultGap is the base anchor-to-plot distance in map units.
const DefaultGap = 40

func (e *Engine) gap() float64 {
	if e.Gap > 0 {
		return e.Gap
	}
	return DefaultGap
}

// Place seeds a transform for every item whose key has none. Items
// are processed in lexical (identifier, side) order so the result is
// independent of input order. For each item a fixed candidate ladder
// is tried: the default perpendicular offset, slides along the anchor
// direction, wider gaps, and finally the mirrored side; the first
// candidate whose AABB clears every already-placed plot on the same
// map side wins, and the default is kept when all candidates
// collide.
func (e *Engine) Place(items []Item, store *Store) {
	sorted := append([]Item(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Side < b.Side
	})

	// Plots already placed (user, loaded, or earlier in this pass)
	// are obstacles for later seeds.
	occupied := map[data.Side][]geom.Rect{}
	note := func(it Item, tr Transform) {
		if it.Side == data.Hover {
			return
		}
		occupied[it.Side] = append(occupied[it.Side], tr.Bounds(it.Bounds))
	}
	for _, it := range sorted {
		if tr, ok := store.Get(it.Key()); ok {
			note(it, tr)
		}
	}

	for _, it := range sorted {
		if store.Has(it.Key()) {
			continue
		}
		tr := e.seed(it, occupied[it.Side])
		store.Seed(it.Key(), tr)
		note(it, tr)
	}
}

func (e *Engine) seed(it Item, obstacles []geom.Rect) Transform {
	if it.Side == data.Hover {
		// Hover plots sit at a fixed offset above their anchor
		// and dodge nothing.
		return Transform{
			Offset: it.Origin.Add(geom.Vec2{Y: e.gap()}),
			Scale:  geom.Vec2{X: 1, Y: 1},
		}
	}

	dir := it.Direction.Norm()
	perp := dir.Perp()
	if it.Side == data.Right {
		perp = perp.Scale(-1)
	}
	rot := dir.Angle()
	gap := e.gap() + it.Bounds.Height()/2
	slot := it.Bounds.Width() / 2

	at := func(along, out float64) Transform {
		off := it.Origin.
			Add(perp.Scale(out)).
			Add(dir.Scale(along)).
			// Center the local frame on the candidate point.
			Sub(it.Bounds.Center().Rotate(rot))
		return Transform{Offset: off, Rotation: rot, Scale: geom.Vec2{X: 1, Y: 1}}
	}

	candidates := []Transform{
		at(0, gap),
		at(slot, gap),
		at(-slot, gap),
		at(2*slot, gap),
		at(-2*slot, gap),
		at(0, 1.5*gap),
		at(0, 2*gap),
		at(0, -gap), // mirrored as a last resort
	}
	for _, tr := range candidates {
		if !collides(tr.Bounds(it.Bounds), obstacles) {
			return tr
		}
	}
	return candidates[0]
}

func collides(r geom.Rect, obstacles []geom.Rect) bool {
	for _, o := range obstacles {
		if r.Overlaps(o) {
			return true
		}
	}
	return false
}

// Snap nudges a rotation to the nearest quarter turn when it is
// within tol radians of one, steadying hand rotation near the
// cardinal orientations.
func Snap(rotation, tol float64) float64 {
	quarter := math.Pi / 2
	nearest := math.Round(rotation/quarter) * quarter
	if math.Abs(rotation-nearest) < tol {
		return nearest
	}
	return rotation
}
