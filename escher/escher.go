// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package escher loads metabolic base maps in the Escher JSON schema
// and answers the geometric queries the layout passes need: where a
// reaction or metabolite sits, which way a reaction points, and which
// identifiers exist.
//
// Map coordinates use y growing upward and are centered on the
// metabolite centroid; Escher files store y downward, so loading
// flips it. All queries are by BiGG identifier, the namespace data
// records use.
package escher

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Point is a position or direction in map coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Info is the map header.
type Info struct {
	MapName        string `json:"map_name"`
	MapID          string `json:"map_id"`
	MapDescription string `json:"map_description"`
	Homepage       string `json:"homepage"`
	Schema         string `json:"schema"`
}

// Metabolism is the map body: reactions and nodes keyed by their
// numeric node ids (as decimal strings, following the schema).
type Metabolism struct {
	Reactions map[string]*Reaction `json:"reactions"`
	Nodes     map[string]*Node     `json:"nodes"`
}

// Reaction is one reaction edge: a set of segments between nodes.
type Reaction struct {
	Name             string              `json:"name"`
	BiggID           string              `json:"bigg_id"`
	Reversibility    bool                `json:"reversibility"`
	LabelX           float64             `json:"label_x"`
	LabelY           float64             `json:"label_y"`
	GeneReactionRule string              `json:"gene_reaction_rule"`
	Metabolites      []MetRef            `json:"metabolites"`
	Segments         map[string]*Segment `json:"segments"`

	// HistPosition carries user-saved side plot transforms, keyed
	// by side name. It round-trips through export so hand-tuned
	// layouts survive reloads.
	HistPosition map[string]SavedTransform `json:"hist_position,omitempty"`
}

// MetRef is a stoichiometric participant of a reaction.
type MetRef struct {
	Coefficient float64 `json:"coefficient"`
	BiggID      string  `json:"bigg_id"`
}

// Segment is one edge piece with optional Bezier handles.
type Segment struct {
	FromNodeID string `json:"from_node_id"`
	ToNodeID   string `json:"to_node_id"`
	B1         *Point `json:"b1"`
	B2         *Point `json:"b2"`
}

// Node types in the schema.
const (
	NodeMetabolite  = "metabolite"
	NodeMultimarker = "multimarker"
	NodeMidmarker   = "midmarker"
)

// Node is a map node. Only metabolite nodes carry an identifier and
// label; markers are bare positions along reaction edges.
type Node struct {
	NodeType      string  `json:"node_type"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	LabelX        float64 `json:"label_x,omitempty"`
	LabelY        float64 `json:"label_y,omitempty"`
	Name          string  `json:"name,omitempty"`
	BiggID        string  `json:"bigg_id,omitempty"`
	NodeIsPrimary bool    `json:"node_is_primary,omitempty"`
}

// SavedTransform is a serialized side plot placement.
type SavedTransform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scale_x"`
	ScaleY   float64 `json:"scale_y"`
}

// Map is a parsed base map with its identifier indexes.
type Map struct {
	Info       Info       `json:"info"`
	Metabolism Metabolism `json:"metabolism"`

	// Centroid of the metabolite nodes, subtracted from every
	// coordinate query.
	cx, cy float64

	// First node/reaction key per BiGG id, in lexical key order so
	// duplicated identifiers resolve deterministically.
	metNode  map[string]string
	reacNode map[string]string
}

// Parse decodes a base map. A file that does not decode is rejected
// whole; there is no partial map.
func Parse(b []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parsing escher map: %w", err)
	}
	if len(m.Metabolism.Reactions) == 0 && len(m.Metabolism.Nodes) == 0 {
		return nil, fmt.Errorf("escher map %q has no reactions or nodes", m.Info.MapName)
	}
	m.index()
	return &m, nil
}

func (m *Map) index() {
	m.metNode = map[string]string{}
	m.reacNode = map[string]string{}

	var total Point
	n := 0
	for _, key := range sortedKeys(m.Metabolism.Nodes) {
		node := m.Metabolism.Nodes[key]
		if node.NodeType != NodeMetabolite {
			continue
		}
		total.X += node.X
		total.Y += node.Y
		n++
		if _, ok := m.metNode[node.BiggID]; !ok {
			m.metNode[node.BiggID] = key
		}
	}
	if n > 0 {
		m.cx, m.cy = total.X/float64(n), total.Y/float64(n)
	}
	for _, key := range sortedKeys(m.Metabolism.Reactions) {
		r := m.Metabolism.Reactions[key]
		if _, ok := m.reacNode[r.BiggID]; !ok {
			m.reacNode[r.BiggID] = key
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasReaction reports whether any reaction carries the identifier.
func (m *Map) HasReaction(id string) bool {
	_, ok := m.reacNode[id]
	return ok
}

// HasMetabolite reports whether any metabolite node carries the
// identifier.
func (m *Map) HasMetabolite(id string) bool {
	_, ok := m.metNode[id]
	return ok
}

// ReactionIDs returns all reaction identifiers in lexical order.
func (m *Map) ReactionIDs() []string {
	return sortedKeys(m.reacNode)
}

// MetaboliteIDs returns all metabolite identifiers in lexical order.
func (m *Map) MetaboliteIDs() []string {
	return sortedKeys(m.metNode)
}

// center translates raw Escher coordinates into map coordinates.
func (m *Map) center(x, y float64) Point {
	return Point{X: x - m.cx, Y: -y + m.cy}
}

// nodeCoord returns the raw position of a node by key.
func (m *Map) nodeCoord(key string) (x, y float64, ok bool) {
	node, ok := m.Metabolism.Nodes[key]
	if !ok {
		return 0, 0, false
	}
	return node.X, node.Y, true
}

// MetaboliteCoords returns the map position of a metabolite. When an
// identifier labels several nodes the lexically first node wins.
func (m *Map) MetaboliteCoords(id string) (Point, bool) {
	key, ok := m.metNode[id]
	if !ok {
		return Point{}, false
	}
	x, y, _ := m.nodeCoord(key)
	return m.center(x, y), true
}

// ReactionOrigin returns the map position of a reaction: the center
// of mass of its segment endpoints. Side plots anchor here.
func (m *Map) ReactionOrigin(id string) (Point, bool) {
	key, ok := m.reacNode[id]
	if !ok {
		return Point{}, false
	}
	r := m.Metabolism.Reactions[key]
	var sx, sy float64
	n := 0
	for _, seg := range r.Segments {
		fx, fy, fok := m.nodeCoord(seg.FromNodeID)
		tx, ty, tok := m.nodeCoord(seg.ToNodeID)
		if !fok || !tok {
			continue
		}
		sx += fx + tx
		sy += fy + ty
		n += 2
	}
	if n == 0 {
		return Point{}, false
	}
	return m.center(sx/float64(n), sy/float64(n)), true
}

// ReactionDirection returns the unit direction of a reaction's
// longest span between its primary metabolites, for orienting side
// plots. A reaction with fewer than two primary metabolites points
// along +Y.
func (m *Map) ReactionDirection(id string) Point {
	up := Point{X: 0, Y: 1}
	key, ok := m.reacNode[id]
	if !ok {
		return up
	}
	r := m.Metabolism.Reactions[key]
	var primaries []Point
	for _, segKey := range sortedKeys(r.Segments) {
		seg := r.Segments[segKey]
		for _, nodeKey := range [2]string{seg.FromNodeID, seg.ToNodeID} {
			node, ok := m.Metabolism.Nodes[nodeKey]
			if !ok || node.NodeType != NodeMetabolite || !node.NodeIsPrimary {
				continue
			}
			primaries = append(primaries, m.center(node.X, node.Y))
		}
	}
	var best Point
	bestLen := 1e-5
	for i := 0; i < len(primaries); i++ {
		for j := i + 1; j < len(primaries); j++ {
			d := Point{
				X: primaries[j].X - primaries[i].X,
				Y: primaries[j].Y - primaries[i].Y,
			}
			if l := math.Hypot(d.X, d.Y); l > bestLen {
				best, bestLen = d, l
			}
		}
	}
	if bestLen <= 1e-5 {
		return up
	}
	return Point{X: best.X / bestLen, Y: best.Y / bestLen}
}

// SavedPlacement returns the stored side plot transform of a
// reaction, if the map carries one.
func (m *Map) SavedPlacement(id, side string) (SavedTransform, bool) {
	key, ok := m.reacNode[id]
	if !ok {
		return SavedTransform{}, false
	}
	tr, ok := m.Metabolism.Reactions[key].HistPosition[side]
	return tr, ok
}

// SetPlacement stores a side plot transform on a reaction so Export
// writes it back out. Unknown identifiers are ignored.
func (m *Map) SetPlacement(id, side string, tr SavedTransform) {
	key, ok := m.reacNode[id]
	if !ok {
		return
	}
	r := m.Metabolism.Reactions[key]
	if r.HistPosition == nil {
		r.HistPosition = map[string]SavedTransform{}
	}
	r.HistPosition[side] = tr
}

// Export serializes the map, including any placements stored with
// SetPlacement.
func (m *Map) Export() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
