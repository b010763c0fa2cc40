// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"image/color"
	"math"

	"github.com/aclements/go-gg/palette"
	"github.com/aclements/go-moremath/scale"

	"github.com/fluxmap/fluxmap/aes"
)

// Default appearance parameters, matching the stock map style.
var (
	// Reaction color scale endpoints.
	ReactionMinColor = color.RGBA{178, 74, 74, 255}
	ReactionMaxColor = color.RGBA{64, 169, 127, 255}
	// Metabolite color scale endpoints.
	MetaboliteMinColor = color.RGBA{222, 208, 167, 255}
	MetaboliteMaxColor = color.RGBA{189, 143, 120, 255}
	// Midpoint stop inserted at zero in zero-midpoint mode.
	ZeroColor = color.RGBA{212, 212, 227, 255}
)

// Default size (stroke width / radius) ranges.
var (
	ReactionSizeRange   = [2]float64{20, 60}
	MetaboliteSizeRange = [2]float64{15, 50}
)

// DefaultPlotWidth is the x extent of a side plot in map units.
const DefaultPlotWidth = 100

// DomainMode selects how a scale's domain is chosen.
type DomainMode int

const (
	// DomainAuto spans the observed min/max across all bound
	// identifiers of the channel.
	DomainAuto DomainMode = iota
	// DomainFixed uses the configured Min/Max.
	DomainFixed
)

// ScaleConfig carries the externally configurable parameters of one
// channel's scales. The zero value selects all defaults.
type ScaleConfig struct {
	Domain   DomainMode
	Min, Max float64 // used when Domain == DomainFixed

	// GradientStops overrides the color gradient. Stops, when
	// non-nil, positions them on [0, 1]; otherwise they are
	// evenly spaced.
	GradientStops []color.RGBA
	Stops         []float64

	// ZeroMidpoint inserts ZeroColor at value zero when the
	// domain spans zero, turning a two-stop gradient into a
	// three-stop one.
	ZeroMidpoint bool

	// SizeRange overrides the output range of the size scale.
	SizeRange [2]float64

	// Exponent is the power-scale exponent for sizes; 0 or 1 is
	// linear.
	Exponent float64

	// Bins overrides the histogram bin count; 0 uses Sturges'
	// rule.
	Bins int

	// Bandwidth overrides the KDE bandwidth; 0 uses Silverman's
	// rule of thumb.
	Bandwidth float64

	// PlotWidth is the x extent of side plots; 0 uses
	// DefaultPlotWidth.
	PlotWidth float64
}

func (c ScaleConfig) plotWidth() float64 {
	if c.PlotWidth > 0 {
		return c.PlotWidth
	}
	return DefaultPlotWidth
}

// domain resolves the scale domain from config and observation.
func (c ScaleConfig) domain(d aes.Domain) (min, max float64) {
	if c.Domain == DomainFixed {
		return c.Min, c.Max
	}
	return d.Min, d.Max
}

// ColorScale maps a value domain through a continuous gradient.
type ColorScale struct {
	Min, Max float64
	// Stops are the gradient stops actually in use, exposed for
	// the legend contract.
	Stops []color.RGBA
	// positions are the [0, 1] gradient positions of Stops; nil
	// means evenly spaced, mapped through pal.
	positions []float64
	pal       palette.Continuous
}

// NewColorScale builds the color scale for one channel from its
// configuration and observed domain. metabolites selects the
// metabolite default endpoints.
func NewColorScale(cfg ScaleConfig, d aes.Domain, metabolites bool) ColorScale {
	min, max := cfg.domain(d)
	stops := cfg.GradientStops
	if len(stops) < 2 {
		if metabolites {
			stops = []color.RGBA{MetaboliteMinColor, MetaboliteMaxColor}
		} else {
			stops = []color.RGBA{ReactionMinColor, ReactionMaxColor}
		}
	}
	positions := cfg.Stops
	if len(positions) != len(stops) {
		positions = nil
	}
	if cfg.ZeroMidpoint && min < 0 && max > 0 && len(stops) == 2 {
		stops = []color.RGBA{stops[0], ZeroColor, stops[1]}
		positions = []float64{0, -min / (max - min), 1}
	}
	cs := ColorScale{
		Min:       min,
		Max:       max,
		Stops:     stops,
		positions: positions,
	}
	if positions == nil {
		cs.pal = palette.RGBGradient{Colors: stops}
	}
	return cs
}

// At returns the gradient color for v. The domain is clamped, so a
// value at or beyond the domain maximum maps to the top stop and a
// degenerate domain maps everything to the top stop.
func (s ColorScale) At(v float64) color.RGBA {
	t := unitClamp(v, s.Min, s.Max)
	if s.positions != nil {
		return lerpStops(s.Stops, s.positions, t)
	}
	r, g, b, a := s.pal.Map(t).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

// lerpStops interpolates piecewise between gradient stops pinned at
// explicit positions on [0, 1]. t outside the positions clamps to the
// end stops.
func lerpStops(stops []color.RGBA, pos []float64, t float64) color.RGBA {
	if t <= pos[0] {
		return stops[0]
	}
	for i := 0; i+1 < len(pos); i++ {
		if t > pos[i+1] {
			continue
		}
		span := pos[i+1] - pos[i]
		if !(span > 0) {
			return stops[i+1]
		}
		return lerpRGBA(stops[i], stops[i+1], (t-pos[i])/span)
	}
	return stops[len(stops)-1]
}

func lerpRGBA(a, b color.RGBA, f float64) color.RGBA {
	l := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + f*(float64(y)-float64(x))))
	}
	return color.RGBA{l(a.R, b.R), l(a.G, b.G), l(a.B, b.B), l(a.A, b.A)}
}

// SizeScale maps a value domain to a stroke width or radius range
// through a linear or power scale.
type SizeScale struct {
	Min, Max float64
	Range    [2]float64
	Exponent float64
}

// NewSizeScale builds the size scale for one channel. metabolites
// selects the metabolite default range.
func NewSizeScale(cfg ScaleConfig, d aes.Domain, metabolites bool) SizeScale {
	min, max := cfg.domain(d)
	rng := cfg.SizeRange
	if rng == [2]float64{} {
		if metabolites {
			rng = MetaboliteSizeRange
		} else {
			rng = ReactionSizeRange
		}
	}
	exp := cfg.Exponent
	if exp <= 0 {
		exp = 1
	}
	return SizeScale{Min: min, Max: max, Range: rng, Exponent: exp}
}

// At returns the output size for v, clamped to the range.
func (s SizeScale) At(v float64) float64 {
	t := unitClamp(v, s.Min, s.Max)
	if s.Exponent != 1 {
		t = math.Pow(t, s.Exponent)
	}
	return s.Range[0] + t*(s.Range[1]-s.Range[0])
}

// unitClamp maps v from [min, max] to [0, 1], clamping at both ends.
// Clamping keeps tiny domains from exploding, the same guard the
// interactive renderer needs when all observations coincide.
func unitClamp(v, min, max float64) float64 {
	if v >= max {
		return 1
	}
	if v <= min {
		return 0
	}
	return (v - min) / (max - min)
}

// niceTicks returns up to max nice tick values covering [min, max],
// for axis decorations and legend entries. It may return nil for
// degenerate domains.
func niceTicks(min, max float64, maxTicks int) []float64 {
	if !(max > min) {
		return nil
	}
	l := scale.Linear{Min: min, Max: max}
	major, _ := l.Ticks(scale.TickOptions{Max: maxTicks})
	return major
}
