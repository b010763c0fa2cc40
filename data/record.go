// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package data models the sparse per-identifier records that bind
// numbers to a metabolic map.
//
// A record carries optional channels: point vectors (one value per
// identifier), distribution vectors (one multiset of observations
// per identifier) and category vectors (condition labels). Channels
// are independently sparse; the only structural requirement is that
// a present channel is positionally aligned with its identifier
// vector. The record is read-only after load.
package data

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/fluxmap/fluxmap/diag"
)

// Floats is a JSON array of numbers in which the literal string
// "NaN" stands for an IEEE quiet NaN. The interchange format uses
// the string form because JSON has no NaN literal.
type Floats []float64

func (f *Floats) UnmarshalJSON(b []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		x, err := asFloat(v)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = x
	}
	*f = out
	return nil
}

// Rows is a JSON array of number arrays with the same "NaN"
// tolerance as Floats. A scalar element is accepted as a
// single-observation row.
type Rows [][]float64

func (r *Rows) UnmarshalJSON(b []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([][]float64, len(raw))
	for i, v := range raw {
		row, ok := v.([]interface{})
		if !ok {
			x, err := asFloat(v)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			out[i] = []float64{x}
			continue
		}
		fs := make([]float64, len(row))
		for j, rv := range row {
			x, err := asFloat(rv)
			if err != nil {
				return fmt.Errorf("row %d, element %d: %w", i, j, err)
			}
			fs[j] = x
		}
		out[i] = fs
	}
	*r = out
	return nil
}

func asFloat(v interface{}) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case string:
		if v == "NaN" {
			return math.NaN(), nil
		}
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

// Record is one loaded data document. All fields are optional; a
// zero Record binds nothing.
type Record struct {
	// Identifier vectors. Identifiers may repeat, once per
	// condition, when a condition vector is present.
	Reactions   []string `json:"reactions,omitempty"`
	Metabolites []string `json:"metabolites,omitempty"`

	// Condition labels, aligned with the identifier vectors.
	Conditions    []string `json:"conditions,omitempty"`
	MetConditions []string `json:"met_conditions,omitempty"`

	// Point channels on reactions. Rows rather than Floats: the
	// interchange allows a distribution wherever a scalar is
	// expected, and the resolver coerces it to its mean.
	Colors Rows `json:"colors,omitempty"`
	Sizes  Rows `json:"sizes,omitempty"`

	// Point channels on metabolites.
	MetColors Rows `json:"met_colors,omitempty"`
	MetSizes  Rows `json:"met_sizes,omitempty"`

	// Histogram distributions.
	Y      Rows `json:"y,omitempty"`
	LeftY  Rows `json:"left_y,omitempty"`
	HoverY Rows `json:"hover_y,omitempty"`
	MetY   Rows `json:"met_y,omitempty"`

	// Density distributions.
	KdeY      Rows `json:"kde_y,omitempty"`
	KdeLeftY  Rows `json:"kde_left_y,omitempty"`
	KdeHoverY Rows `json:"kde_hover_y,omitempty"`
	KdeMetY   Rows `json:"kde_met_y,omitempty"`

	// Box/point distributions with optional per-row categories
	// that order stacks within one reaction and condition.
	BoxY           Rows     `json:"box_y,omitempty"`
	BoxLeftY       Rows     `json:"box_left_y,omitempty"`
	BoxVariant     []string `json:"box_variant,omitempty"`
	BoxLeftVariant []string `json:"box_left_variant,omitempty"`

	// Column values with optional asymmetric error bounds.
	ColumnY        Rows   `json:"column_y,omitempty"`
	ColumnYmin     Floats `json:"column_ymin,omitempty"`
	ColumnYmax     Floats `json:"column_ymax,omitempty"`
	LeftColumnY    Rows   `json:"left_column_y,omitempty"`
	LeftColumnYmin Floats `json:"left_column_ymin,omitempty"`
	LeftColumnYmax Floats `json:"left_column_ymax,omitempty"`
}

// Parse decodes a data document from JSON bytes. A structurally
// invalid document is a fatal load error: no partial record is
// returned. Per-channel alignment problems are not checked here;
// see Views.
func Parse(b []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parsing data record: %w", err)
	}
	return &r, nil
}

// View is one logical channel of a record, normalized for the
// resolver: Rows holds the primary value vector (rows of length one
// for point channels unless the caller supplied distributions),
// aligned with IDs. Column error bounds and box categories ride
// along with their primary channel.
type View struct {
	Channel Channel
	Name    string // interchange name, for diagnostics

	IDs        []string
	Conditions []string // nil when the record has no conditions

	Rows Rows

	Ymin, Ymax Floats   // Column only; nil when absent
	Variant    []string // BoxPoint only; nil when absent
}

type rawChannel struct {
	ch      Channel
	name    string
	dists   Rows
	ymin    Floats
	ymax    Floats
	variant []string
}

func (r *Record) channels() []rawChannel {
	return []rawChannel{
		{ch: Channel{Color, Right, Reactions}, name: "colors", dists: r.Colors},
		{ch: Channel{Size, Right, Reactions}, name: "sizes", dists: r.Sizes},
		{ch: Channel{Color, Right, Metabolites}, name: "met_colors", dists: r.MetColors},
		{ch: Channel{Size, Right, Metabolites}, name: "met_sizes", dists: r.MetSizes},

		{ch: Channel{Histogram, Right, Reactions}, name: "y", dists: r.Y},
		{ch: Channel{Histogram, Left, Reactions}, name: "left_y", dists: r.LeftY},
		{ch: Channel{Histogram, Hover, Reactions}, name: "hover_y", dists: r.HoverY},
		{ch: Channel{Histogram, Hover, Metabolites}, name: "met_y", dists: r.MetY},

		{ch: Channel{Density, Right, Reactions}, name: "kde_y", dists: r.KdeY},
		{ch: Channel{Density, Left, Reactions}, name: "kde_left_y", dists: r.KdeLeftY},
		{ch: Channel{Density, Hover, Reactions}, name: "kde_hover_y", dists: r.KdeHoverY},
		{ch: Channel{Density, Hover, Metabolites}, name: "kde_met_y", dists: r.KdeMetY},

		{ch: Channel{BoxPoint, Right, Reactions}, name: "box_y", dists: r.BoxY, variant: r.BoxVariant},
		{ch: Channel{BoxPoint, Left, Reactions}, name: "box_left_y", dists: r.BoxLeftY, variant: r.BoxLeftVariant},

		{ch: Channel{Column, Right, Reactions}, name: "column_y", dists: r.ColumnY, ymin: r.ColumnYmin, ymax: r.ColumnYmax},
		{ch: Channel{Column, Left, Reactions}, name: "left_column_y", dists: r.LeftColumnY, ymin: r.LeftColumnYmin, ymax: r.LeftColumnYmax},
	}
}

func (rc *rawChannel) present() bool {
	return len(rc.dists) > 0
}

func (rc *rawChannel) len() int {
	return len(rc.dists)
}

// Views validates every present channel against its identifier
// vector and returns the aligned ones. A channel whose lengths
// disagree (including auxiliary vectors such as column bounds or
// box categories) is dropped with a MisalignedChannel diagnostic;
// the remaining channels are unaffected. A present channel whose
// identifier vector is missing entirely is also misaligned.
func (r *Record) Views(rep diag.Reporter) []View {
	var out []View
	for _, rc := range r.channels() {
		if !rc.present() {
			continue
		}
		ids, conds := r.Reactions, r.Conditions
		if rc.ch.Target == Metabolites {
			ids, conds = r.Metabolites, r.MetConditions
		}
		if err := rc.aligned(ids, conds); err != nil {
			rep.Report(diag.Diagnostic{
				Kind:    diag.MisalignedChannel,
				Channel: rc.name,
				Detail:  err.Error(),
			})
			continue
		}
		out = append(out, View{
			Channel:    rc.ch,
			Name:       rc.name,
			IDs:        ids,
			Conditions: conds,
			Rows:       rc.dists,
			Ymin:       rc.ymin,
			Ymax:       rc.ymax,
			Variant:    rc.variant,
		})
	}
	return out
}

func (rc *rawChannel) aligned(ids, conds []string) error {
	n := rc.len()
	if len(ids) == 0 {
		return fmt.Errorf("%d values but no identifier vector", n)
	}
	if n != len(ids) {
		return fmt.Errorf("%d values for %d identifiers", n, len(ids))
	}
	if conds != nil && len(conds) != len(ids) {
		return fmt.Errorf("%d conditions for %d identifiers", len(conds), len(ids))
	}
	if rc.ymin != nil && len(rc.ymin) != n {
		return fmt.Errorf("%d lower bounds for %d values", len(rc.ymin), n)
	}
	if rc.ymax != nil && len(rc.ymax) != n {
		return fmt.Errorf("%d upper bounds for %d values", len(rc.ymax), n)
	}
	if rc.variant != nil && len(rc.variant) != n {
		return fmt.Errorf("%d categories for %d values", len(rc.variant), n)
	}
	return nil
}

// ConditionList returns the distinct condition labels of the record
// in sorted order. The empty label is omitted.
func (r *Record) ConditionList() []string {
	seen := map[string]bool{}
	for _, c := range r.Conditions {
		seen[c] = true
	}
	for _, c := range r.MetConditions {
		seen[c] = true
	}
	delete(seen, "")
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
