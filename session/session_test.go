// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxmap/fluxmap/data"
	"github.com/fluxmap/fluxmap/diag"
	"github.com/fluxmap/fluxmap/escher"
	"github.com/fluxmap/fluxmap/geom"
	"github.com/fluxmap/fluxmap/interact"
)

const testMap = `{
  "info": {"map_name": "test", "schema": "1-0-0"},
  "metabolism": {
    "nodes": {
      "1": {"node_type": "metabolite", "x": 100, "y": 200, "bigg_id": "glc", "node_is_primary": true},
      "2": {"node_type": "midmarker", "x": 150, "y": 250},
      "3": {"node_type": "metabolite", "x": 200, "y": 300, "bigg_id": "atp", "node_is_primary": true}
    },
    "reactions": {
      "10": {
        "name": "phosphofructokinase",
        "bigg_id": "PFK",
        "metabolites": [{"coefficient": -1, "bigg_id": "glc"}],
        "segments": {
          "1": {"from_node_id": "1", "to_node_id": "2"},
          "2": {"from_node_id": "2", "to_node_id": "3"}
        }
      }
    }
  }
}`

const testData = `{
  "reactions": ["PFK"],
  "colors": [5.0],
  "y": [[1, 2, 3, 4]],
  "metabolites": ["atp"],
  "met_y": [["NaN", 2, 3, 100]]
}`

func newTestSession(t *testing.T) *Session {
	t.Helper()
	m, err := escher.Parse([]byte(testMap))
	require.NoError(t, err)
	s := New(m, diag.Logger())
	require.NoError(t, s.LoadData([]byte(testData)))
	s.Tick()
	return s
}

func findPlaced(ps []Placed, kind geom.Kind) (Placed, bool) {
	for _, p := range ps {
		if p.Geom.Kind == kind {
			return p, true
		}
	}
	return Placed{}, false
}

func TestTickComposesAndPlaces(t *testing.T) {
	s := newTestSession(t)
	ps := s.Placed()
	// Arrow stroke, reaction histogram, metabolite hover histogram.
	require.Len(t, ps, 3)

	arrow, ok := findPlaced(ps, geom.KindArrow)
	require.True(t, ok)
	require.NotNil(t, arrow.Stroke)
	assert.True(t, arrow.Stroke.HasColor)

	hist, ok := findPlaced(ps, geom.KindHistogram)
	require.True(t, ok)
	assert.Equal(t, data.Right, hist.Geom.Side)
	// The seeded transform moved the plot off the identity.
	assert.NotEqual(t, geom.Vec2{}, hist.Transform.Offset)
}

func TestCompositionsMemoizedAcrossTicks(t *testing.T) {
	s := newTestSession(t)
	first, ok := findPlaced(s.Placed(), geom.KindHistogram)
	require.True(t, ok)

	s.Tick()
	second, ok := findPlaced(s.Placed(), geom.KindHistogram)
	require.True(t, ok)
	assert.Same(t, first.Composition, second.Composition)
	// The cached composition keeps its geom entity, so renderers
	// can key retained resources by id across ticks.
	assert.Equal(t, first.Geom.ID, second.Geom.ID)

	// A condition switch invalidates.
	s.SetCondition("x")
	s.Tick()
	third, ok := findPlaced(s.Placed(), geom.KindHistogram)
	if ok {
		assert.NotSame(t, first.Composition, third.Composition)
	}
}

// A BiGG identifier can name both a reaction and a metabolite. Their
// same-kind, same-side geoms must compose independently rather than
// share one memoized composition.
func TestSharedIdentifierAcrossNamespaces(t *testing.T) {
	const sharedMap = `{
	  "info": {"map_name": "shared", "schema": "1-0-0"},
	  "metabolism": {
	    "nodes": {
	      "1": {"node_type": "metabolite", "x": 0, "y": 0, "bigg_id": "pyr", "node_is_primary": true},
	      "2": {"node_type": "metabolite", "x": 50, "y": 0, "bigg_id": "x", "node_is_primary": true}
	    },
	    "reactions": {
	      "10": {
	        "bigg_id": "x",
	        "metabolites": [{"coefficient": -1, "bigg_id": "pyr"}],
	        "segments": {"1": {"from_node_id": "1", "to_node_id": "2"}}
	      }
	    }
	  }
	}`
	m, err := escher.Parse([]byte(sharedMap))
	require.NoError(t, err)
	s := New(m, diag.Logger())
	require.NoError(t, s.LoadData([]byte(`{
	  "reactions": ["x"],
	  "hover_y": [[1, 2, 3, 4]],
	  "metabolites": ["x"],
	  "met_y": [[5, 6]]
	}`)))
	s.Tick()

	var axes []float64
	for _, p := range s.Placed() {
		if p.Geom.Kind == geom.KindHistogram {
			axes = append(axes, p.Axis.Max)
		}
	}
	sort.Float64s(axes)
	assert.Equal(t, []float64{4, 6}, axes)
}

func TestHoverVisibility(t *testing.T) {
	s := newTestSession(t)

	hover := func() Placed {
		for _, p := range s.Placed() {
			if p.Geom.Side == data.Hover {
				return p
			}
		}
		t.Fatal("no hover plot")
		return Placed{}
	}

	assert.False(t, hover().Visible)
	s.Hover("atp")
	assert.True(t, hover().Visible)
	s.Hover("")
	assert.False(t, hover().Visible)
}

func TestUserPlacementSurvivesReload(t *testing.T) {
	s := newTestSession(t)
	hits := s.Hits()
	require.NotEmpty(t, hits)

	// Grab the histogram and drag it.
	m := s.Machine()
	require.True(t, m.Press(interact.ButtonMiddle, hits[0].Pos, hits))
	m.Move(hits[0].Pos.Add(geom.Vec2{X: 5, Y: -3}))
	m.Release()
	s.Tick()
	moved, ok := findPlaced(s.Placed(), geom.KindHistogram)
	require.True(t, ok)

	require.NoError(t, s.LoadData([]byte(testData)))
	s.Tick()
	after, ok := findPlaced(s.Placed(), geom.KindHistogram)
	require.True(t, ok)
	assert.Equal(t, moved.Transform, after.Transform)
}

func TestExportMapRoundTripsPlacements(t *testing.T) {
	s := newTestSession(t)
	out, err := s.ExportMap()
	require.NoError(t, err)

	m2, err := escher.Parse(out)
	require.NoError(t, err)
	saved, ok := m2.SavedPlacement("PFK", "right")
	require.True(t, ok)

	hist, _ := findPlaced(s.Placed(), geom.KindHistogram)
	assert.Equal(t, hist.Transform.Offset.X, saved.X)
	assert.Equal(t, hist.Transform.Offset.Y, saved.Y)

	// Reloading the exported map adopts the placement as-is.
	s2 := New(m2, diag.Logger())
	require.NoError(t, s2.LoadData([]byte(testData)))
	s2.Tick()
	after, ok := findPlaced(s2.Placed(), geom.KindHistogram)
	require.True(t, ok)
	assert.Equal(t, hist.Transform, after.Transform)
}

func TestLegendFollowsBindings(t *testing.T) {
	s := newTestSession(t)
	entries := s.Legend()
	// Color, histogram, and hover histogram channels are bound.
	assert.Len(t, entries, 3)

	require.NoError(t, s.LoadData([]byte(`{"reactions": ["PFK"], "sizes": [2.0]}`)))
	s.Tick()
	entries = s.Legend()
	require.Len(t, entries, 1)
	assert.Equal(t, data.Size, entries[0].Channel.Kind)
}

func TestConditionsList(t *testing.T) {
	s := newTestSession(t)
	assert.Empty(t, s.Conditions())

	require.NoError(t, s.LoadData([]byte(`{
	  "reactions": ["PFK", "PFK"],
	  "conditions": ["b", "a"],
	  "colors": [1, 2]
	}`)))
	assert.Equal(t, []string{"a", "b"}, s.Conditions())
}
