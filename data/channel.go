// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

// Side is the placement slot of a side plot relative to its anchor.
type Side int

const (
	// Right places the plot on the right of the anchor's main
	// direction. Channels without a side prefix map here.
	Right Side = iota
	// Left places the plot on the left of the anchor's main
	// direction.
	Left
	// Hover attaches the plot to a popup shown only while the
	// pointer is over the anchor.
	Hover
)

var sideNames = [...]string{Right: "right", Left: "left", Hover: "hover"}

func (s Side) String() string {
	if int(s) < len(sideNames) {
		return sideNames[s]
	}
	return "unknown side"
}

// Target says which graph elements a channel binds to.
type Target int

const (
	// Reactions binds to directed edges of the base graph.
	Reactions Target = iota
	// Metabolites binds to nodes of the base graph.
	Metabolites
)

func (t Target) String() string {
	if t == Metabolites {
		return "metabolites"
	}
	return "reactions"
}

// Kind is the visual role of a channel.
type Kind int

const (
	// Color maps a scalar through a continuous color scale onto
	// the anchor element itself.
	Color Kind = iota
	// Size maps a scalar through a linear or power scale to a
	// stroke width or radius.
	Size
	// Histogram buckets a distribution into bars.
	Histogram
	// Density smooths a distribution into a kernel density curve.
	Density
	// BoxPoint summarizes a distribution as box, whiskers and
	// optional raw point markers.
	BoxPoint
	// Column renders a scalar as a bar with optional asymmetric
	// error whiskers.
	Column
)

var kindNames = [...]string{
	Color:     "color",
	Size:      "size",
	Histogram: "histogram",
	Density:   "density",
	BoxPoint:  "box-point",
	Column:    "column",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown kind"
}

// Channel identifies one visual data role: what it encodes, where it
// renders, and which elements it anchors to. Channel is comparable
// and is used as a map key throughout (legend entries, memoization).
type Channel struct {
	Kind   Kind
	Side   Side
	Target Target
}

func (c Channel) String() string {
	return c.Target.String() + " " + c.Kind.String() + " " + c.Side.String()
}

// IsPoint reports whether the channel consumes one scalar per
// identifier. Distribution data bound to a point channel is coerced
// to its mean by the resolver.
func (c Channel) IsPoint() bool {
	return c.Kind == Color || c.Kind == Size || c.Kind == Column
}
