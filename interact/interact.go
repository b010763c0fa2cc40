// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interact turns pointer gestures into placement transforms.
//
// A Machine is a small two-state automaton (idle, dragging) fed with
// press/move/release events in map coordinates. Dragging edits the
// grabbed plot's transform in the placement store directly, so the
// edit is user-authored from the first motion and survives reloads.
package interact

import (
	"sort"

	"github.com/fluxmap/fluxmap/geom"
	"github.com/fluxmap/fluxmap/place"
)

// Button is a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Mode is what a drag edits.
type Mode int

const (
	ModeNone Mode = iota
	// ModeMove translates the plot.
	ModeMove
	// ModeRotate spins the plot about its origin.
	ModeRotate
	// ModeAxisScale stretches the plot per axis.
	ModeAxisScale
)

// Gesture tuning. Rotation follows vertical motion, axis scaling
// follows both axes.
const (
	// HitRadius2 is the squared pick distance in map units.
	HitRadius2 = 5000

	rotatePerPixel = 0.05
	scalePerPixel  = 0.01
	snapTolerance  = 0.06
)

// Hit is a grabbable plot: its placement key and its current center
// on the map.
type Hit struct {
	Key place.Key
	Pos geom.Vec2
}

// Machine is the drag automaton over one placement store.
type Machine struct {
	store *place.Store

	axisEdit bool

	dragging bool
	mode     Mode
	key      place.Key
	last     geom.Vec2
	cur      place.Transform
}

// New returns an idle machine editing the given store.
func New(store *place.Store) *Machine {
	return &Machine{store: store}
}

// Dragging reports whether a drag is in progress.
func (m *Machine) Dragging() bool { return m.dragging }

// AxisEdit reports whether right drags scale axes instead of
// rotating.
func (m *Machine) AxisEdit() bool { return m.axisEdit }

// ToggleAxisEdit flips the right-drag mode. Mid-drag toggles are
// ignored so a gesture never changes meaning halfway.
func (m *Machine) ToggleAxisEdit() {
	if m.dragging {
		return
	}
	m.axisEdit = !m.axisEdit
}

// Press starts a drag on the nearest hit within the pick radius and
// reports whether one started. Ties at equal distance break
// lexically so picking is deterministic.
func (m *Machine) Press(btn Button, pos geom.Vec2, hits []Hit) bool {
	if m.dragging {
		return false
	}
	mode := m.modeFor(btn)
	if mode == ModeNone {
		return false
	}
	hit, ok := nearest(pos, hits)
	if !ok {
		return false
	}
	tr, ok := m.store.Get(hit.Key)
	if !ok {
		tr = place.Identity()
	}
	m.dragging = true
	m.mode = mode
	m.key = hit.Key
	m.last = pos
	m.cur = tr
	return true
}

func (m *Machine) modeFor(btn Button) Mode {
	switch btn {
	case ButtonMiddle:
		return ModeMove
	case ButtonRight:
		if m.axisEdit {
			return ModeAxisScale
		}
		return ModeRotate
	}
	return ModeNone
}

func nearest(pos geom.Vec2, hits []Hit) (Hit, bool) {
	sorted := append([]Hit(nil), hits...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Key.ID != b.Key.ID {
			return a.Key.ID < b.Key.ID
		}
		return a.Key.Side < b.Key.Side
	})
	best, bestD := Hit{}, float64(HitRadius2)
	found := false
	for _, h := range sorted {
		d := h.Pos.Sub(pos)
		if d2 := d.X*d.X + d.Y*d.Y; d2 < bestD {
			best, bestD = h, d2
			found = true
		}
	}
	return best, found
}

// Move advances the drag to a new pointer position, writing the
// edited transform back to the store. No-op while idle.
func (m *Machine) Move(pos geom.Vec2) {
	if !m.dragging {
		return
	}
	delta := pos.Sub(m.last)
	m.last = pos
	switch m.mode {
	case ModeMove:
		m.cur.Offset = m.cur.Offset.Add(delta)
	case ModeRotate:
		m.cur.Rotation = place.Snap(m.cur.Rotation-delta.Y*rotatePerPixel, snapTolerance)
	case ModeAxisScale:
		m.cur.Scale.X += delta.X * scalePerPixel
		m.cur.Scale.Y += delta.Y * scalePerPixel
	}
	m.store.SetUser(m.key, m.cur)
}

// Release ends the drag. The transform is already committed; this
// just returns the machine to idle.
func (m *Machine) Release() {
	m.dragging = false
	m.mode = ModeNone
}
