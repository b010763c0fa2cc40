// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package legend derives legend entries from the bound channels of a
// session. The legend is pure output: it has exactly one entry per
// bound channel and holds whatever that channel's scale exposes, so
// an unbound channel simply has no entry.
package legend

import (
	"fmt"
	"image/color"

	"github.com/aclements/go-moremath/scale"

	"github.com/fluxmap/fluxmap/aes"
	"github.com/fluxmap/fluxmap/data"
	"github.com/fluxmap/fluxmap/geom"
)

// Entry describes one bound channel for display.
type Entry struct {
	Channel data.Channel
	Domain  aes.Domain

	// Gradient holds the color stops for color channels, nil
	// otherwise.
	Gradient []color.RGBA

	// SizeRange holds the output range for size channels, zero
	// otherwise.
	SizeRange [2]float64

	// Ticks are nice values covering the domain; Labels are the
	// formatted domain endpoints.
	Ticks              []float64
	MinLabel, MaxLabel string
}

// Build returns one entry per bound channel, in the table's
// deterministic channel order.
func Build(tab *aes.Table, comp *geom.Composer) []Entry {
	var entries []Entry
	for _, ch := range tab.Channels() {
		d, ok := tab.Domain(ch)
		if !ok {
			continue
		}
		e := Entry{
			Channel:  ch,
			Domain:   d,
			Ticks:    ticks(d.Min, d.Max, 5),
			MinLabel: fmt.Sprintf("%+.3e", d.Min),
			MaxLabel: fmt.Sprintf("%+.3e", d.Max),
		}
		switch ch.Kind {
		case data.Color:
			e.Gradient = comp.ColorScaleFor(ch).Stops
		case data.Size:
			e.SizeRange = comp.SizeScaleFor(ch).Range
		}
		entries = append(entries, e)
	}
	return entries
}

func ticks(min, max float64, n int) []float64 {
	if !(max > min) {
		return nil
	}
	l := scale.Linear{Min: min, Max: max}
	major, _ := l.Ticks(scale.TickOptions{Max: n})
	return major
}
