// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aes resolves data records into typed aesthetic bindings.
//
// Resolution is a pure function of (record, base graph, active
// condition): for each channel present in the record it produces one
// binding per identifier that exists in the base graph and belongs
// to the active condition slice. Failures are per-identifier, never
// global; an identifier unknown to the graph is skipped and
// reported, and the rest of the table is still produced.
package aes

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/fluxmap/fluxmap/data"
	"github.com/fluxmap/fluxmap/diag"
)

// Graph is the read-only view of the base graph the resolver needs:
// membership tests for the two identifier namespaces.
type Graph interface {
	HasReaction(id string) bool
	HasMetabolite(id string) bool
}

// AllConditions is the active-condition value that selects every
// slice at once.
const AllConditions = "ALL"

// Binding is one resolved (identifier, channel) pair.
type Binding struct {
	Channel   data.Channel
	ID        string
	Condition string

	// Value is set for point channels (color, size, column).
	// Dist is set for distribution channels (histogram, density,
	// box-point). Exactly one of the two is meaningful, decided
	// by Channel.IsPoint.
	Value float64
	Dist  []float64

	// Coerced marks a point binding whose input was a
	// distribution, reduced to its arithmetic mean. The reduction
	// is one-way; a distribution channel never receives a scalar
	// widened back.
	Coerced bool

	// Column error bounds; NaN when the whisker is absent.
	Ymin, Ymax float64

	// Category orders box-point stacks sharing an anchor.
	Category string
}

// Table is the output of Resolve: bindings grouped by identifier,
// with per-channel domains for scale construction.
type Table struct {
	byID    map[string][]Binding
	domains map[data.Channel]Domain
}

// Domain is the observed value range of a channel across all bound
// identifiers.
type Domain struct {
	Min, Max float64
	// N counts the bindings that contributed.
	N int
}

// Bindings returns the bindings for one identifier, in channel
// resolution order.
func (t *Table) Bindings(id string) []Binding {
	return t.byID[id]
}

// IDs returns all bound identifiers in lexical order. Lexical order
// is the tie-break used by every downstream pass, so placement and
// composition are deterministic regardless of map iteration order.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Bound reports whether any binding exists for the channel.
func (t *Table) Bound(ch data.Channel) bool {
	return t.domains[ch].N > 0
}

// Domain returns the observed min/max for a channel. ok is false
// when the channel has no finite observations.
func (t *Table) Domain(ch data.Channel) (Domain, bool) {
	d, ok := t.domains[ch]
	return d, ok && d.N > 0 && !math.IsNaN(d.Min)
}

// Channels returns the bound channels in deterministic order.
func (t *Table) Channels() []data.Channel {
	chs := make([]data.Channel, 0, len(t.domains))
	for ch, d := range t.domains {
		if d.N > 0 {
			chs = append(chs, ch)
		}
	}
	sort.Slice(chs, func(i, j int) bool {
		a, b := chs[i], chs[j]
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Side < b.Side
	})
	return chs
}

// Len returns the number of bound identifiers.
func (t *Table) Len() int { return len(t.byID) }

// Resolve builds the binding table for a record against a base
// graph, keeping only rows in the active condition slice. An empty
// condition or AllConditions selects every slice. Identifiers
// absent from the graph are skipped with an UnknownIdentifier
// diagnostic. Resolve has no side effects beyond reporting.
func Resolve(rec *data.Record, g Graph, condition string, rep diag.Reporter) *Table {
	t := &Table{
		byID:    map[string][]Binding{},
		domains: map[data.Channel]Domain{},
	}
	for _, v := range rec.Views(rep) {
		resolveView(t, v, g, condition, rep)
	}
	return t
}

func resolveView(t *Table, v data.View, g Graph, condition string, rep diag.Reporter) {
	for i, id := range v.IDs {
		if !inGraph(g, v.Channel.Target, id) {
			rep.Report(diag.Diagnostic{
				Kind:    diag.UnknownIdentifier,
				Channel: v.Name,
				ID:      id,
				Detail:  "not in the base graph",
			})
			continue
		}
		b := Binding{Channel: v.Channel, ID: id, Ymin: math.NaN(), Ymax: math.NaN()}
		if v.Conditions != nil {
			b.Condition = v.Conditions[i]
			if !conditionActive(condition, b.Condition) {
				continue
			}
		}
		row := v.Rows[i]
		if v.Channel.IsPoint() {
			val, coerced, ok := coercePoint(row)
			if !ok {
				rep.Report(diag.Diagnostic{
					Kind:    diag.NonFiniteValue,
					Channel: v.Name,
					ID:      id,
					Detail:  "no finite observation; treated as absent",
				})
				continue
			}
			b.Value, b.Coerced = val, coerced
			if v.Ymin != nil && isFinite(v.Ymin[i]) {
				b.Ymin = v.Ymin[i]
			}
			if v.Ymax != nil && isFinite(v.Ymax[i]) {
				b.Ymax = v.Ymax[i]
			}
		} else {
			b.Dist = row
		}
		if v.Variant != nil {
			b.Category = v.Variant[i]
		}
		t.byID[id] = append(t.byID[id], b)
		t.extendDomain(b)
	}
}

func inGraph(g Graph, target data.Target, id string) bool {
	if target == data.Metabolites {
		return g.HasMetabolite(id)
	}
	return g.HasReaction(id)
}

func conditionActive(active, label string) bool {
	return active == "" || active == AllConditions || active == label
}

// coercePoint reduces a row to one scalar. Non-finite observations
// are dropped first; a row with several finite observations is
// coerced to its arithmetic mean, which is insensitive to element
// order.
func coercePoint(row []float64) (val float64, coerced bool, ok bool) {
	finite := row[:0:0]
	for _, x := range row {
		if isFinite(x) {
			finite = append(finite, x)
		}
	}
	switch len(finite) {
	case 0:
		return 0, false, false
	case 1:
		return finite[0], len(row) > 1, true
	}
	return stats.Mean(finite), true, true
}

func (t *Table) extendDomain(b Binding) {
	d, ok := t.domains[b.Channel]
	if !ok {
		d = Domain{Min: math.NaN(), Max: math.NaN()}
	}
	grow := func(x float64) {
		if !isFinite(x) {
			return
		}
		if math.IsNaN(d.Min) || x < d.Min {
			d.Min = x
		}
		if math.IsNaN(d.Max) || x > d.Max {
			d.Max = x
		}
	}
	if b.Channel.IsPoint() {
		grow(b.Value)
		grow(b.Ymin)
		grow(b.Ymax)
	} else {
		for _, x := range b.Dist {
			grow(x)
		}
	}
	d.N++
	t.domains[b.Channel] = d
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
