// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom composes resolved aesthetic bindings into renderable
// primitives.
//
// Each geom is a tagged variant (arrow, node circle, histogram,
// density curve, box/point summary, column) holding an explicit set
// of typed bindings and a side selector. Composition is a fixed
// pipeline: scales are built from the channel's observed domain and
// external configuration, then each geom is reduced to colors,
// widths, curve points and bar geometry that a renderer or exporter
// can consume without touching the data model.
package geom

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fluxmap/fluxmap/aes"
	"github.com/fluxmap/fluxmap/data"
)

// Kind tags the geom variants.
type Kind int

const (
	// KindArrow styles the anchor reaction's edge itself.
	KindArrow Kind = iota
	// KindMetabolite styles the anchor metabolite's node circle.
	KindMetabolite
	// KindHistogram is a bucketed side plot.
	KindHistogram
	// KindDensity is a kernel density side plot.
	KindDensity
	// KindBoxPoint is a five-number summary side plot.
	KindBoxPoint
	// KindColumn is a bar with optional error whiskers.
	KindColumn
)

var kindNames = [...]string{
	KindArrow:      "arrow",
	KindMetabolite: "metabolite",
	KindHistogram:  "histogram",
	KindDensity:    "density",
	KindBoxPoint:   "box-point",
	KindColumn:     "column",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown geom"
}

// SidePlot reports whether the kind renders as a plot beside its
// anchor, as opposed to restyling the anchor element.
func (k Kind) SidePlot() bool {
	return k != KindArrow && k != KindMetabolite
}

// KindOf maps a data channel to the geom variant that renders it.
func KindOf(ch data.Channel) Kind {
	switch ch.Kind {
	case data.Histogram:
		return KindHistogram
	case data.Density:
		return KindDensity
	case data.BoxPoint:
		return KindBoxPoint
	case data.Column:
		return KindColumn
	}
	if ch.Target == data.Metabolites {
		return KindMetabolite
	}
	return KindArrow
}

// Geom is one visual entity: a variant bound to an anchor
// identifier, a side, and the bindings it owns. Geoms live for one
// map session and are destroyed together on data reload; only their
// placement transforms outlive them, keyed by identifier and side
// elsewhere.
type Geom struct {
	// ID is a transient entity handle. Nothing durable may be
	// keyed by it.
	ID uuid.UUID

	Kind   Kind
	Side   data.Side
	Target data.Target

	// Anchor is the reaction or metabolite identifier the geom
	// attaches to.
	Anchor string

	// Bindings all share Anchor. Arrow and metabolite geoms may
	// own both a color and a size binding; box-point geoms own
	// one binding per category row.
	Bindings []aes.Binding
}

// New creates a geom entity with a fresh transient id.
func New(kind Kind, side data.Side, target data.Target, anchor string) *Geom {
	return &Geom{
		ID:     uuid.New(),
		Kind:   kind,
		Side:   side,
		Target: target,
		Anchor: anchor,
	}
}

// String identifies the geom for listings and diagnostics. The
// entity id distinguishes instances of the same anchor across
// reloads.
func (g *Geom) String() string {
	return fmt.Sprintf("%s %s %s %s", g.ID, g.Kind, g.Anchor, g.Side)
}
