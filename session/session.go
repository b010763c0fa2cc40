// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session orchestrates the visualization pipeline over one
// base map: resolve bindings, compose geoms, place side plots, and
// serve interaction. Passes run in that fixed order every tick, each
// consuming only its predecessor's output.
package session

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fluxmap/fluxmap/aes"
	"github.com/fluxmap/fluxmap/data"
	"github.com/fluxmap/fluxmap/diag"
	"github.com/fluxmap/fluxmap/escher"
	"github.com/fluxmap/fluxmap/geom"
	"github.com/fluxmap/fluxmap/interact"
	"github.com/fluxmap/fluxmap/legend"
	"github.com/fluxmap/fluxmap/place"
)

// compositionCacheSize bounds the memoized compositions. A large map
// binds a few thousand geoms; one generation fits comfortably.
const compositionCacheSize = 4096

// cacheKey memoizes one geom's composition. The generation counter
// covers everything a composition depends on besides the geom itself
// (record, condition, scale configuration), so stale entries are
// simply never hit again.
type cacheKey struct {
	gen    int
	anchor string
	kind   geom.Kind
	side   data.Side
	target data.Target
	cond   string
}

// Placed pairs a composition with its map transform. Stroke
// compositions restyle their anchor in place and carry the identity
// transform.
type Placed struct {
	*geom.Composition
	Transform place.Transform
}

// Session is the live state of one open map.
type Session struct {
	Map *escher.Map

	rep diag.Reporter

	rec       *data.Record
	condition string
	cfg       map[data.Channel]geom.ScaleConfig

	store   *place.Store
	engine  place.Engine
	machine *interact.Machine

	cache *lru.Cache[cacheKey, *geom.Composition]
	gen   int

	tab      *aes.Table
	composer *geom.Composer
	placed   []Placed
	hovered  string
}

// New opens a session over a parsed base map.
func New(m *escher.Map, rep diag.Reporter) *Session {
	if rep == nil {
		rep = diag.Logger()
	}
	cache, _ := lru.New[cacheKey, *geom.Composition](compositionCacheSize)
	store := place.NewStore()
	return &Session{
		Map:     m,
		rep:     rep,
		store:   store,
		machine: interact.New(store),
		cache:   cache,
	}
}

// LoadData replaces the session's data record. Bindings and geoms of
// the previous record are gone after the next Tick; the active
// condition resets; user-authored placements survive.
func (s *Session) LoadData(b []byte) error {
	rec, err := data.Parse(b)
	if err != nil {
		return err
	}
	s.SetRecord(rec)
	return nil
}

// SetRecord is LoadData for an already-parsed record.
func (s *Session) SetRecord(rec *data.Record) {
	s.rec = rec
	s.condition = ""
	s.store.DropSeeded()
	s.gen++
}

// Conditions returns the distinct condition labels of the current
// record, sorted.
func (s *Session) Conditions() []string {
	if s.rec == nil {
		return nil
	}
	return s.rec.ConditionList()
}

// Condition returns the active condition; empty means all.
func (s *Session) Condition() string { return s.condition }

// SetCondition switches the active condition slice.
func (s *Session) SetCondition(c string) {
	if c == s.condition {
		return
	}
	s.condition = c
	s.gen++
}

// SetScaleConfig overrides one channel's scale configuration.
func (s *Session) SetScaleConfig(ch data.Channel, cfg geom.ScaleConfig) {
	if s.cfg == nil {
		s.cfg = map[data.Channel]geom.ScaleConfig{}
	}
	s.cfg[ch] = cfg
	s.gen++
}

// Machine returns the drag automaton for feeding pointer events.
func (s *Session) Machine() *interact.Machine { return s.machine }

// Hover sets the hovered anchor identifier; empty clears it. Hover
// side plots are visible only while their anchor is hovered.
func (s *Session) Hover(id string) { s.hovered = id }

// Tick runs the pipeline: resolve the record against the map, build
// and compose geoms (memoized per generation), then seed placements
// for side plots that have none. Safe to call with no record loaded.
func (s *Session) Tick() {
	if s.rec == nil {
		s.tab, s.composer, s.placed = nil, nil, nil
		return
	}
	s.tab = aes.Resolve(s.rec, s.Map, s.condition, s.rep)
	s.composer = geom.NewComposer(s.tab, s.cfg, s.rep)

	geoms := geom.BuildGeoms(s.tab)
	comps := make([]*geom.Composition, len(geoms))
	for i, g := range geoms {
		key := cacheKey{s.gen, g.Anchor, g.Kind, g.Side, g.Target, g.Bindings[0].Condition}
		if c, ok := s.cache.Get(key); ok {
			comps[i] = c
			continue
		}
		c := s.composer.Compose(g)
		s.cache.Add(key, c)
		comps[i] = c
	}

	s.placeSidePlots(geoms, comps)

	s.placed = s.placed[:0]
	for _, c := range comps {
		p := Placed{Composition: c, Transform: place.Identity()}
		if c.Geom.Kind.SidePlot() {
			if tr, ok := s.store.Get(plotKey(c.Geom)); ok {
				p.Transform = tr
			}
		}
		s.placed = append(s.placed, p)
	}
}

func plotKey(g *geom.Geom) place.Key {
	return place.Key{ID: g.Anchor, Side: g.Side}
}

// placeSidePlots adopts saved placements from the map, then lets the
// engine seed whatever is still unplaced.
func (s *Session) placeSidePlots(geoms []*geom.Geom, comps []*geom.Composition) {
	var items []place.Item
	seen := map[place.Key]bool{}
	for i, g := range geoms {
		if !g.Kind.SidePlot() || comps[i].Degenerate {
			continue
		}
		k := plotKey(g)
		if seen[k] {
			continue
		}
		seen[k] = true

		it := place.Item{ID: g.Anchor, Side: g.Side, Bounds: comps[i].Bounds()}
		if g.Target == data.Metabolites {
			if p, ok := s.Map.MetaboliteCoords(g.Anchor); ok {
				it.Origin = geom.Vec2{X: p.X, Y: p.Y}
			}
			it.Direction = geom.Vec2{X: 1, Y: 0}
		} else {
			if p, ok := s.Map.ReactionOrigin(g.Anchor); ok {
				it.Origin = geom.Vec2{X: p.X, Y: p.Y}
			}
			d := s.Map.ReactionDirection(g.Anchor)
			it.Direction = geom.Vec2{X: d.X, Y: d.Y}
		}

		if !s.store.Has(k) {
			if saved, ok := s.Map.SavedPlacement(g.Anchor, g.Side.String()); ok {
				s.store.SetUser(k, fromSaved(saved))
			}
		}
		items = append(items, it)
	}
	s.engine.Place(items, s.store)
}

// Placed returns the current compositions with their transforms.
// Hover plots are visible only for the hovered anchor.
func (s *Session) Placed() []Placed {
	out := make([]Placed, len(s.placed))
	for i, p := range s.placed {
		if p.Geom.Side == data.Hover {
			p.Visible = p.Geom.Anchor == s.hovered && !p.Degenerate
		}
		out[i] = p
	}
	return out
}

// Hits returns the grabbable side plots for picking, one per placed
// key.
func (s *Session) Hits() []interact.Hit {
	var hits []interact.Hit
	seen := map[place.Key]bool{}
	for _, p := range s.placed {
		if !p.Geom.Kind.SidePlot() || p.Geom.Side == data.Hover || p.Degenerate {
			continue
		}
		k := plotKey(p.Geom)
		if seen[k] {
			continue
		}
		seen[k] = true
		hits = append(hits, interact.Hit{
			Key: k,
			Pos: p.Transform.Bounds(p.Bounds()).Center(),
		})
	}
	return hits
}

// Legend returns the legend entries for the bound channels.
func (s *Session) Legend() []legend.Entry {
	if s.tab == nil {
		return nil
	}
	return legend.Build(s.tab, s.composer)
}

// ExportPlacements returns the current identifier+side transforms
// for an external exporter. Hover placements are transient and
// excluded.
func (s *Session) ExportPlacements() map[place.Key]place.Transform {
	out := s.store.Export()
	for k := range out {
		if k.Side == data.Hover {
			delete(out, k)
		}
	}
	return out
}

// ExportMap serializes the base map with all current non-hover
// placements stored on their reactions, ready to be reloaded.
func (s *Session) ExportMap() ([]byte, error) {
	for k, tr := range s.ExportPlacements() {
		s.Map.SetPlacement(k.ID, k.Side.String(), toSaved(tr))
	}
	return s.Map.Export()
}

func fromSaved(tr escher.SavedTransform) place.Transform {
	out := place.Transform{
		Offset:   geom.Vec2{X: tr.X, Y: tr.Y},
		Rotation: tr.Rotation,
		Scale:    geom.Vec2{X: tr.ScaleX, Y: tr.ScaleY},
	}
	if out.Scale == (geom.Vec2{}) {
		out.Scale = geom.Vec2{X: 1, Y: 1}
	}
	return out
}

func toSaved(tr place.Transform) escher.SavedTransform {
	return escher.SavedTransform{
		X:        tr.Offset.X,
		Y:        tr.Offset.Y,
		Rotation: tr.Rotation,
		ScaleX:   tr.Scale.X,
		ScaleY:   tr.Scale.Y,
	}
}
