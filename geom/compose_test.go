// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxmap/fluxmap/aes"
	"github.com/fluxmap/fluxmap/data"
	"github.com/fluxmap/fluxmap/diag"
)

type mapStub struct{}

func (mapStub) HasReaction(id string) bool   { return id == "PFK" || id == "ENO" }
func (mapStub) HasMetabolite(id string) bool { return id == "atp" }

func composeAll(t *testing.T, rec *data.Record, rep diag.Reporter) []*Composition {
	t.Helper()
	if rep == nil {
		rep = diag.Logger()
	}
	tab := aes.Resolve(rec, mapStub{}, "", rep)
	comp := NewComposer(tab, nil, rep)
	var out []*Composition
	for _, g := range BuildGeoms(tab) {
		out = append(out, comp.Compose(g))
	}
	return out
}

func TestArrowColorAtDomainTop(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK"},
		Colors:    data.Rows{{5.0}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	require.NotNil(t, cs[0].Stroke)
	assert.True(t, cs[0].Stroke.HasColor)
	// A one-point domain maps everything to the top gradient stop.
	assert.Equal(t, ReactionMaxColor, cs[0].Stroke.Color)
	assert.False(t, cs[0].Stroke.HasWidth)
}

func TestArrowMergesColorAndSize(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK"},
		Colors:    data.Rows{{1}},
		Sizes:     data.Rows{{3}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	assert.Equal(t, KindArrow, cs[0].Geom.Kind)
	assert.True(t, cs[0].Stroke.HasColor)
	assert.True(t, cs[0].Stroke.HasWidth)
}

func TestSizeScaleSpansRange(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK", "ENO"},
		Sizes:     data.Rows{{0}, {10}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 2)
	// Lexical order: ENO first.
	assert.Equal(t, ReactionSizeRange[1], cs[0].Stroke.Width)
	assert.Equal(t, ReactionSizeRange[0], cs[1].Stroke.Width)
}

func TestZeroMidpointGradient(t *testing.T) {
	cfg := ScaleConfig{ZeroMidpoint: true}
	s := NewColorScale(cfg, aes.Domain{Min: -2, Max: 2, N: 2}, false)
	require.Len(t, s.Stops, 3)
	assert.Equal(t, ZeroColor, s.Stops[1])

	// The three stops pin the domain ends and zero exactly.
	assert.Equal(t, ReactionMinColor, s.At(-2))
	assert.Equal(t, ZeroColor, s.At(0))
	assert.Equal(t, ReactionMaxColor, s.At(2))

	// Halfway into each half the color is the midpoint blend of
	// that half's stops: negative values blend min->zero, positive
	// values blend zero->max.
	assert.Equal(t, color.RGBA{195, 143, 151, 255}, s.At(-1))
	assert.Equal(t, color.RGBA{138, 191, 177, 255}, s.At(1))
	assert.NotEqual(t, s.At(1), s.At(2))
}

func TestZeroMidpointAsymmetricDomain(t *testing.T) {
	cfg := ScaleConfig{ZeroMidpoint: true}
	s := NewColorScale(cfg, aes.Domain{Min: -1, Max: 3, N: 2}, false)
	// Zero sits a quarter of the way along the domain.
	assert.Equal(t, ZeroColor, s.At(0))
	assert.Equal(t, ReactionMinColor, s.At(-1))
	assert.Equal(t, ReactionMaxColor, s.At(3))
	// Just above zero the color leaves the midpoint toward the
	// max stop, not toward a flat endpoint.
	lo, hi := s.At(0.5), s.At(2)
	assert.NotEqual(t, lo, hi)
	assert.NotEqual(t, ReactionMaxColor, lo)
}

func TestHoverHistogramBuckets(t *testing.T) {
	rec := &data.Record{
		Metabolites: []string{"atp"},
		MetY:        data.Rows{{1, 2, 3, 100}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	c := cs[0]
	assert.Equal(t, KindHistogram, c.Geom.Kind)
	assert.Equal(t, data.Hover, c.Geom.Side)
	assert.False(t, c.Visible)

	// Sturges' rule gives 3 bins for n=4, clamped to n/2 = 2.
	require.Len(t, c.Bars, 2)
	assert.Equal(t, c.Height, c.Bars[0].Y)
	assert.InDelta(t, c.Height/3, c.Bars[1].Y, 1e-9)
	assert.Equal(t, 1.0, c.Axis.Min)
	assert.Equal(t, 100.0, c.Axis.Max)
}

func TestHistogramSingleObservationSpike(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK"},
		Y:         data.Rows{{7}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	c := cs[0]
	require.Len(t, c.Bars, 1)
	assert.Equal(t, c.Height, c.Bars[0].Y)
	assert.Equal(t, 7.0-spikeHalfWidth, c.Axis.Min)
	assert.Equal(t, 7.0+spikeHalfWidth, c.Axis.Max)
	assert.Less(t, c.Bars[0].X0, c.Bars[0].X1)
}

func TestDensityCurve(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK"},
		KdeY:      data.Rows{{1, 2, 2, 3, 4, 5}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	c := cs[0]
	assert.Equal(t, KindDensity, c.Geom.Kind)
	require.Len(t, c.Curve, densitySamples)
	peak := 0.0
	for _, p := range c.Curve {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, c.Width)
		if p.Y > peak {
			peak = p.Y
		}
	}
	// The curve is normalized to fill the plot height.
	assert.InDelta(t, c.Height, peak, 1e-9)

	// Sampling covers exactly the observed value range, so the
	// axis reports the distribution's own bounds.
	assert.Equal(t, 1.0, c.Axis.Min)
	assert.Equal(t, 5.0, c.Axis.Max)
	assert.Equal(t, 0.0, c.Curve[0].X)
	assert.Equal(t, c.Width, c.Curve[len(c.Curve)-1].X)
}

func TestDensityPointMassSpike(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK"},
		KdeY:      data.Rows{{3, 3, 3}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	c := cs[0]
	require.Len(t, c.Curve, 3)
	assert.Equal(t, 0.0, c.Curve[0].Y)
	assert.Equal(t, c.Height, c.Curve[1].Y)
	assert.Equal(t, 0.0, c.Curve[2].Y)
}

func TestBoxPointCategoriesStack(t *testing.T) {
	rec := &data.Record{
		Reactions:  []string{"PFK", "PFK"},
		BoxY:       data.Rows{{1, 2, 3, 4}, {10, 12, 14, 16}},
		BoxVariant: []string{"b", "a"},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	c := cs[0]
	assert.Equal(t, KindBoxPoint, c.Geom.Kind)
	require.Len(t, c.Boxes, 2)

	// Categories order lexically and center on the plot midline.
	assert.Equal(t, "a", c.Boxes[0].Category)
	assert.Equal(t, "b", c.Boxes[1].Category)
	step := boxSize * boxSpacing
	assert.InDelta(t, c.Width/2-step/2, c.Boxes[0].X, 1e-9)
	assert.InDelta(t, c.Width/2+step/2, c.Boxes[1].X, 1e-9)

	for _, b := range c.Boxes {
		assert.LessOrEqual(t, b.Lo, b.Q1)
		assert.LessOrEqual(t, b.Q1, b.Median)
		assert.LessOrEqual(t, b.Median, b.Q3)
		assert.LessOrEqual(t, b.Q3, b.Hi)
		// Raw observations ride along for point markers.
		assert.Len(t, b.Points, 4)
	}
	// The shared axis spans both categories.
	assert.Equal(t, 1.0, c.Axis.Min)
	assert.Equal(t, 16.0, c.Axis.Max)
}

func TestBoxPointQuartiles(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK"},
		BoxY:      data.Rows{{1, 2, 3, 4, 5}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	c := cs[0]
	require.Len(t, c.Boxes, 1)
	b := c.Boxes[0]

	// The median of an odd-count sample is the middle observation,
	// halfway up the [1, 5] axis; the quartiles interpolate to 5/3
	// and 13/3.
	assert.InDelta(t, c.Height/2, b.Median, 1e-9)
	assert.InDelta(t, c.Height/6, b.Q1, 1e-9)
	assert.InDelta(t, c.Height*5/6, b.Q3, 1e-9)
	assert.Equal(t, 0.0, b.Lo)
	assert.Equal(t, c.Height, b.Hi)
}

func TestGeomEntityIdentity(t *testing.T) {
	a := New(KindHistogram, data.Right, data.Reactions, "PFK")
	b := New(KindHistogram, data.Right, data.Reactions, "PFK")
	// Same anchor, same kind: still distinct entities.
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, strings.Contains(a.String(), a.ID.String()))
	assert.True(t, strings.Contains(a.String(), "PFK"))
}

func TestColumnWhiskers(t *testing.T) {
	rec := &data.Record{
		Reactions:  []string{"PFK", "ENO"},
		ColumnY:    data.Rows{{4}, {4}},
		ColumnYmin: data.Floats{3, math.NaN()},
		ColumnYmax: data.Floats{5, 5},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 2)

	// ENO sorts first; its low whisker is suppressed.
	eno, pfk := cs[0], cs[1]
	require.Len(t, eno.Bars, 1)
	assert.True(t, math.IsNaN(eno.Bars[0].Ymin))
	assert.False(t, math.IsNaN(eno.Bars[0].Ymax))

	require.Len(t, pfk.Bars, 1)
	// Axis spans [0, 5]; the bar tops out at 4/5 of the height.
	assert.InDelta(t, pfk.Height*4/5, pfk.Bars[0].Y, 1e-9)
	assert.InDelta(t, pfk.Height*3/5, pfk.Bars[0].Ymin, 1e-9)
	assert.InDelta(t, pfk.Height, pfk.Bars[0].Ymax, 1e-9)
}

func TestAllNonFiniteDistributionIsDegenerate(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK"},
		Y:         data.Rows{{math.NaN(), math.Inf(1)}},
	}
	var col diag.Collector
	cs := composeAll(t, rec, &col)
	require.Len(t, cs, 1)
	assert.True(t, cs[0].Degenerate)
	assert.Empty(t, cs[0].Bars)
	assert.Equal(t, Rect{}, cs[0].Bounds())
	assert.Equal(t, 1, col.Count(diag.DegenerateDistribution))
}

func TestAxisLabelsFormat(t *testing.T) {
	ax := newAxis(0, 5, 10)
	assert.Equal(t, "+0.000e+00", ax.Labels[0])
	assert.Equal(t, "+5.000e+00", ax.Labels[1])
	assert.Equal(t, "+1.000e+01", ax.Labels[2])
}

func TestCompositionBounds(t *testing.T) {
	rec := &data.Record{
		Reactions: []string{"PFK"},
		LeftY:     data.Rows{{1, 2, 3, 4, 5, 6}},
	}
	cs := composeAll(t, rec, nil)
	require.Len(t, cs, 1)
	c := cs[0]
	assert.Equal(t, data.Left, c.Geom.Side)
	assert.True(t, c.Visible)
	b := c.Bounds()
	assert.Equal(t, DefaultPlotWidth, int(b.Width()))
	assert.Equal(t, DefaultPlotWidth/2, int(b.Height()))
}
