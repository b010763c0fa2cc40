// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag collects per-identifier diagnostics raised while
// resolving and composing plot data.
//
// Malformed per-identifier data never aborts a render. Instead, each
// recoverable problem is reported through a Reporter and the
// offending entry or channel is skipped. Only a structurally invalid
// map or data document is a hard load error, and those are returned
// as ordinary errors by the loaders, not reported here.
package diag

import (
	"fmt"
	"log"
)

// Kind classifies a recoverable data problem.
type Kind int

const (
	// UnknownIdentifier marks a record entry naming an identifier
	// that is not present in the base graph. The entry is skipped.
	UnknownIdentifier Kind = iota

	// MisalignedChannel marks a channel whose value vector length
	// does not match its identifier vector. The whole channel is
	// rejected; other channels in the record survive.
	MisalignedChannel

	// DegenerateDistribution marks a distribution with fewer than
	// two finite observations. The geometry falls back to a point
	// marker.
	DegenerateDistribution

	// NonFiniteValue marks a NaN or infinity in a scalar channel.
	// The value is treated as absent for that identifier.
	NonFiniteValue
)

var kindNames = [...]string{
	UnknownIdentifier:      "unknown identifier",
	MisalignedChannel:      "misaligned channel",
	DegenerateDistribution: "degenerate distribution",
	NonFiniteValue:         "non-finite value",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown diagnostic"
}

// Diagnostic describes one recoverable problem with loaded data.
type Diagnostic struct {
	Kind    Kind
	Channel string // channel name in the interchange schema, if any
	ID      string // identifier the problem applies to, if any
	Detail  string
}

func (d Diagnostic) String() string {
	switch {
	case d.ID != "" && d.Channel != "":
		return fmt.Sprintf("%s: %s[%s]: %s", d.Kind, d.Channel, d.ID, d.Detail)
	case d.Channel != "":
		return fmt.Sprintf("%s: %s: %s", d.Kind, d.Channel, d.Detail)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
}

// Reporter receives diagnostics as they are found.
type Reporter interface {
	Report(d Diagnostic)
}

// Logger returns a Reporter that writes each diagnostic to the
// standard logger. This is the default sink.
func Logger() Reporter {
	return logReporter{}
}

type logReporter struct{}

func (logReporter) Report(d Diagnostic) {
	log.Print(d)
}

// Collector is a Reporter that retains every diagnostic, mostly for
// tests and for surfacing warnings in a UI collaborator.
type Collector struct {
	All []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.All = append(c.All, d)
}

// Count returns how many collected diagnostics have kind k.
func (c *Collector) Count(k Kind) int {
	n := 0
	for _, d := range c.All {
		if d.Kind == k {
			n++
		}
	}
	return n
}
