// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"

	"github.com/fluxmap/fluxmap/aes"
	"github.com/fluxmap/fluxmap/data"
	"github.com/fluxmap/fluxmap/diag"
)

// spikeHalfWidth is the half extent, in value units, of the synthetic
// bump drawn for a single-observation distribution.
const spikeHalfWidth = 2

// Box geometry shared by all box-point plots.
const (
	boxSize    = 40
	boxSpacing = 1.2
)

// densitySamples is the number of points a density curve is sampled
// at.
const densitySamples = 80

// StrokeStyle restyles an anchor element in place. Has* distinguish
// "unbound" from a bound zero.
type StrokeStyle struct {
	Color    color.RGBA
	HasColor bool
	Width    float64
	HasWidth bool
}

// Bar is one histogram bucket or column, in local plot coordinates.
// X spans [X0, X1]; the bar rises from y=0 to Y. Ymin/Ymax carry
// column error whiskers and are NaN when absent.
type Bar struct {
	X0, X1     float64
	Y          float64
	Ymin, Ymax float64
}

// Box is one five-number summary, centered at X in local plot
// coordinates with the summary values mapped to y. Points carries
// the raw observations mapped the same way, for jittered markers.
type Box struct {
	Category               string
	X                      float64
	Lo, Q1, Median, Q3, Hi float64
	Points                 []float64
}

// Axis is the decoration of a side plot: the value domain it covers
// and formatted labels at the low end, the mean, and the high end.
type Axis struct {
	Min, Max float64
	Ticks    []float64
	Labels   [3]string
}

// Composition is the render-ready form of one geom. Exactly one of
// Stroke or the plot fields is populated, matching the geom kind.
// Side plot geometry is in a local frame with x in [0, Width] and y
// in [0, Height] growing away from the anchor; a placement transform
// positions the frame on the map.
type Composition struct {
	Geom *Geom

	// Visible is false for hover plots, which render only while
	// the pointer is over the anchor.
	Visible bool

	// Degenerate marks a composition whose distribution had no
	// finite observations. It renders as nothing.
	Degenerate bool

	Stroke *StrokeStyle

	Width, Height float64
	Bars          []Bar
	Curve         []Vec2
	Boxes         []Box
	Axis          *Axis
}

// Bounds returns the local-frame bounding box of the composition.
// Stroke-only and degenerate compositions have no extent.
func (c *Composition) Bounds() Rect {
	if c.Stroke != nil || c.Degenerate {
		return Rect{}
	}
	return Rect{Max: Vec2{c.Width, c.Height}}
}

// Composer turns geoms into compositions using per-channel scale
// configuration and the domains observed in a binding table. Scales
// are shared across all geoms of a channel, so identifiers are
// directly comparable on the map.
type Composer struct {
	tab *aes.Table
	cfg map[data.Channel]ScaleConfig
	rep diag.Reporter

	colors map[data.Channel]ColorScale
	sizes  map[data.Channel]SizeScale
}

// NewComposer builds a composer over one resolved table. cfg may be
// nil; channels without an entry use default scales.
func NewComposer(tab *aes.Table, cfg map[data.Channel]ScaleConfig, rep diag.Reporter) *Composer {
	return &Composer{
		tab:    tab,
		cfg:    cfg,
		rep:    rep,
		colors: map[data.Channel]ColorScale{},
		sizes:  map[data.Channel]SizeScale{},
	}
}

func (c *Composer) config(ch data.Channel) ScaleConfig {
	return c.cfg[ch]
}

// ColorScaleFor returns the shared color scale of a channel,
// constructing it on first use.
func (c *Composer) ColorScaleFor(ch data.Channel) ColorScale {
	if s, ok := c.colors[ch]; ok {
		return s
	}
	d, _ := c.tab.Domain(ch)
	s := NewColorScale(c.config(ch), d, ch.Target == data.Metabolites)
	c.colors[ch] = s
	return s
}

// SizeScaleFor returns the shared size scale of a channel.
func (c *Composer) SizeScaleFor(ch data.Channel) SizeScale {
	if s, ok := c.sizes[ch]; ok {
		return s
	}
	d, _ := c.tab.Domain(ch)
	s := NewSizeScale(c.config(ch), d, ch.Target == data.Metabolites)
	c.sizes[ch] = s
	return s
}

// BuildGeoms groups a table's bindings into geom entities. Bindings
// of one anchor that render as the same variant on the same side and
// condition share a geom: a color and a size binding restyle the same
// arrow, and box-point categories stack in one plot. Output order is
// deterministic (anchors lexical, bindings in resolution order).
func BuildGeoms(tab *aes.Table) []*Geom {
	type key struct {
		anchor string
		kind   Kind
		side   data.Side
		// A reaction and a metabolite may share an identifier;
		// their geoms stay separate.
		target data.Target
		cond   string
	}
	var order []key
	groups := map[key]*Geom{}
	for _, id := range tab.IDs() {
		for _, b := range tab.Bindings(id) {
			k := key{id, KindOf(b.Channel), b.Channel.Side, b.Channel.Target, b.Condition}
			g, ok := groups[k]
			if !ok {
				g = New(k.kind, k.side, b.Channel.Target, id)
				groups[k] = g
				order = append(order, k)
			}
			g.Bindings = append(g.Bindings, b)
		}
	}
	gs := make([]*Geom, len(order))
	for i, k := range order {
		gs[i] = groups[k]
	}
	return gs
}

// Compose reduces one geom to its render-ready composition.
func (c *Composer) Compose(g *Geom) *Composition {
	out := &Composition{Geom: g, Visible: g.Side != data.Hover}
	switch g.Kind {
	case KindArrow, KindMetabolite:
		c.composeStyle(g, out)
	case KindHistogram:
		c.composeHistogram(g, out)
	case KindDensity:
		c.composeDensity(g, out)
	case KindBoxPoint:
		c.composeBoxPoint(g, out)
	case KindColumn:
		c.composeColumn(g, out)
	}
	return out
}

func (c *Composer) composeStyle(g *Geom, out *Composition) {
	st := &StrokeStyle{}
	for _, b := range g.Bindings {
		switch b.Channel.Kind {
		case data.Color:
			st.Color = c.ColorScaleFor(b.Channel).At(b.Value)
			st.HasColor = true
		case data.Size:
			st.Width = c.SizeScaleFor(b.Channel).At(b.Value)
			st.HasWidth = true
		}
	}
	out.Stroke = st
}

// reportSingle flags a distribution that degenerated to one finite
// observation; the composition still renders it as a spike.
func (c *Composer) reportSingle(g *Geom, b aes.Binding, xs []float64) {
	if len(xs) != 1 {
		return
	}
	c.rep.Report(diag.Diagnostic{
		Kind:    diag.DegenerateDistribution,
		Channel: b.Channel.String(),
		ID:      g.Anchor,
		Detail:  "single observation; rendered as a spike",
	})
}

// finiteDist filters a distribution to its finite observations,
// reporting when nothing survives.
func (c *Composer) finiteDist(g *Geom, b aes.Binding) []float64 {
	xs := b.Dist[:0:0]
	for _, x := range b.Dist {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			xs = append(xs, x)
		}
	}
	if len(xs) == 0 {
		c.rep.Report(diag.Diagnostic{
			Kind:    diag.DegenerateDistribution,
			Channel: b.Channel.String(),
			ID:      g.Anchor,
			Detail:  "no finite observations",
		})
	}
	return xs
}

// sturgesBins is Sturges' rule clamped to [1, n/2], so small samples
// never get more buckets than pairs of observations.
func sturgesBins(n int) int {
	bins := int(math.Ceil(math.Log2(float64(n)))) + 1
	if max := n / 2; bins > max {
		bins = max
	}
	if bins < 1 {
		bins = 1
	}
	return bins
}

func (c *Composer) composeHistogram(g *Geom, out *Composition) {
	cfg := c.config(g.Bindings[0].Channel)
	out.Width, out.Height = cfg.plotWidth(), cfg.plotWidth()/2
	xs := c.finiteDist(g, g.Bindings[0])
	if len(xs) == 0 {
		out.Degenerate = true
		return
	}
	min, max := stats.Bounds(xs)
	if len(xs) == 1 || min == max {
		// A point mass has no spread to bucket. Draw a narrow
		// spike so the observation still shows.
		c.reportSingle(g, g.Bindings[0], xs)
		out.Axis = newAxis(min-spikeHalfWidth, min, max+spikeHalfWidth)
		out.Bars = []Bar{{
			X0: out.toX(min-spikeHalfWidth/2, out.Axis), X1: out.toX(min+spikeHalfWidth/2, out.Axis),
			Y: out.Height, Ymin: math.NaN(), Ymax: math.NaN(),
		}}
		return
	}
	bins := cfg.Bins
	if bins <= 0 {
		bins = sturgesBins(len(xs))
	}
	counts := make([]int, bins)
	w := (max - min) / float64(bins)
	for _, x := range xs {
		i := int((x - min) / w)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	peak := 0
	for _, n := range counts {
		if n > peak {
			peak = n
		}
	}
	out.Axis = newAxis(min, stats.Mean(xs), max)
	for i, n := range counts {
		if n == 0 {
			continue
		}
		out.Bars = append(out.Bars, Bar{
			X0:   out.toX(min+float64(i)*w, out.Axis),
			X1:   out.toX(min+float64(i+1)*w, out.Axis),
			Y:    out.Height * float64(n) / float64(peak),
			Ymin: math.NaN(), Ymax: math.NaN(),
		})
	}
}

// silvermanBandwidth is the rule-of-thumb bandwidth
// 0.9·min(sd, IQR/1.34)·n^(-1/5). Zero spread makes it collapse, in
// which case Scott's rule is tried before giving up.
func silvermanBandwidth(s stats.Sample) float64 {
	spread := s.StdDev()
	if iqr := s.IQR() / 1.34; iqr < spread {
		spread = iqr
	}
	bw := 0.9 * spread * math.Pow(s.Weight(), -1.0/5)
	if !(bw > 0) {
		return stats.BandwidthScott(s)
	}
	return bw
}

func (c *Composer) composeDensity(g *Geom, out *Composition) {
	cfg := c.config(g.Bindings[0].Channel)
	out.Width, out.Height = cfg.plotWidth(), cfg.plotWidth()/2
	xs := c.finiteDist(g, g.Bindings[0])
	if len(xs) == 0 {
		out.Degenerate = true
		return
	}
	sample := stats.Sample{Xs: xs}
	bw := cfg.Bandwidth
	if bw <= 0 {
		bw = silvermanBandwidth(sample)
	}
	min, max := sample.Bounds()
	if !(bw > 0) || !(max > min) {
		// Point mass; render a triangular spike instead of a
		// zero-width kernel.
		c.reportSingle(g, g.Bindings[0], xs)
		out.Axis = newAxis(min-spikeHalfWidth, min, max+spikeHalfWidth)
		out.Curve = []Vec2{
			{out.toX(min-spikeHalfWidth, out.Axis), 0},
			{out.toX(min, out.Axis), out.Height},
			{out.toX(min+spikeHalfWidth, out.Axis), 0},
		}
		return
	}
	// The curve is sampled over the observed value range, so the
	// axis labels report the distribution's actual bounds.
	kde := stats.KDE{Sample: sample, Bandwidth: bw}
	ys := vec.Map(kde.PDF, vec.Linspace(min, max, densitySamples))
	peak := 0.0
	for _, y := range ys {
		if y > peak {
			peak = y
		}
	}
	if !(peak > 0) {
		out.Degenerate = true
		return
	}
	out.Axis = newAxis(min, sample.Mean(), max)
	out.Curve = make([]Vec2, densitySamples)
	for i, x := range vec.Linspace(min, max, densitySamples) {
		out.Curve[i] = Vec2{out.toX(x, out.Axis), out.Height * ys[i] / peak}
	}
}

func (c *Composer) composeBoxPoint(g *Geom, out *Composition) {
	cfg := c.config(g.Bindings[0].Channel)
	out.Width, out.Height = cfg.plotWidth(), cfg.plotWidth()/2

	// Categories stack left to right in first-seen order, centered
	// on the plot midline.
	bindings := g.Bindings
	var lo, hi float64 = math.NaN(), math.NaN()
	type summary struct {
		cat                   string
		min, q1, med, q3, max float64
		points                []float64
	}
	var sums []summary
	for _, b := range bindings {
		xs := c.finiteDist(g, b)
		if len(xs) == 0 {
			continue
		}
		c.reportSingle(g, b, xs)
		s := stats.Sample{Xs: xs}
		smin, smax := s.Bounds()
		sums = append(sums, summary{
			cat:    b.Category,
			min:    smin,
			q1:     s.Quantile(0.25),
			med:    s.Quantile(0.5),
			q3:     s.Quantile(0.75),
			max:    smax,
			points: xs,
		})
		if math.IsNaN(lo) || smin < lo {
			lo = smin
		}
		if math.IsNaN(hi) || smax > hi {
			hi = smax
		}
	}
	if len(sums) == 0 {
		out.Degenerate = true
		return
	}
	if lo == hi {
		lo, hi = lo-spikeHalfWidth, hi+spikeHalfWidth
	}
	sort.SliceStable(sums, func(i, j int) bool { return sums[i].cat < sums[j].cat })
	ax := newAxis(lo, (lo+hi)/2, hi)
	out.Axis = ax
	step := boxSize * boxSpacing
	mid := out.Width / 2
	for i, s := range sums {
		x := mid + (float64(i)-float64(len(sums)-1)/2)*step
		box := Box{
			Category: s.cat,
			X:        x,
			Lo:       out.toY(s.min, ax),
			Q1:       out.toY(s.q1, ax),
			Median:   out.toY(s.med, ax),
			Q3:       out.toY(s.q3, ax),
			Hi:       out.toY(s.max, ax),
		}
		for _, p := range s.points {
			box.Points = append(box.Points, out.toY(p, ax))
		}
		out.Boxes = append(out.Boxes, box)
	}
}

func (c *Composer) composeColumn(g *Geom, out *Composition) {
	b := g.Bindings[0]
	cfg := c.config(b.Channel)
	out.Width, out.Height = cfg.plotWidth(), cfg.plotWidth()/2

	// The column's y axis spans the channel domain, whiskers
	// included, so columns of different anchors are comparable.
	d, ok := c.tab.Domain(b.Channel)
	if !ok {
		out.Degenerate = true
		return
	}
	lo, hi := cfg.domain(aes.Domain{Min: math.Min(d.Min, 0), Max: d.Max, N: d.N})
	if lo == hi {
		lo, hi = lo-spikeHalfWidth, hi+spikeHalfWidth
	}
	ax := newAxis(lo, (lo+hi)/2, hi)
	out.Axis = ax
	bar := Bar{
		X0:   out.Width/2 - boxSize/2,
		X1:   out.Width/2 + boxSize/2,
		Y:    out.toY(b.Value, ax),
		Ymin: math.NaN(),
		Ymax: math.NaN(),
	}
	// Each whisker is independent; a NaN bound suppresses just
	// that side.
	if !math.IsNaN(b.Ymin) {
		bar.Ymin = out.toY(b.Ymin, ax)
	}
	if !math.IsNaN(b.Ymax) {
		bar.Ymax = out.toY(b.Ymax, ax)
	}
	out.Bars = []Bar{bar}
}

// newAxis builds an axis over [lo, hi] with labels at the ends and
// at mid, normally the distribution mean.
func newAxis(lo, mid, hi float64) *Axis {
	return &Axis{
		Min:   lo,
		Max:   hi,
		Ticks: niceTicks(lo, hi, 5),
		Labels: [3]string{
			fmt.Sprintf("%+.3e", lo),
			fmt.Sprintf("%+.3e", mid),
			fmt.Sprintf("%+.3e", hi),
		},
	}
}

// toX maps a value to the plot's x extent.
func (c *Composition) toX(v float64, ax *Axis) float64 {
	return c.Width * unitClamp(v, ax.Min, ax.Max)
}

// toY maps a value to the plot's y extent.
func (c *Composition) toY(v float64, ax *Axis) float64 {
	return c.Height * unitClamp(v, ax.Min, ax.Max)
}
