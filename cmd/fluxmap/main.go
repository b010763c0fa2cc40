// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fluxmap binds omics data to a metabolic map and lays out
// the result.
//
// fluxmap takes a base map in Escher JSON format and a data record
// produced by the companion plotting DSL. It resolves the record's
// aesthetic channels against the map, composes the side plots, seeds
// their placements, and prints a summary of what is on the map. With
// -o it writes the map back out with the computed placements stored
// on each reaction, so the layout can be reloaded or hand-edited
// later.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/fluxmap/fluxmap/diag"
	"github.com/fluxmap/fluxmap/escher"
	"github.com/fluxmap/fluxmap/session"
)

func main() {
	log.SetPrefix("fluxmap: ")
	log.SetFlags(0)

	var (
		flagCPUProfile = flag.String("cpuprofile", "", "write CPU profile to `file`")
		flagMemProfile = flag.String("memprofile", "", "write heap profile to `file`")
		flagData       = flag.String("data", "", "read data record from `file`")
		flagCondition  = flag.String("condition", "", "show only this experimental `condition` (default: all)")
		flagOut        = flag.String("o", "", "write map with placements to `file`")
		flagVerbose    = flag.Bool("v", false, "list every composed geom")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] map.json\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *flagCPUProfile != "" {
		f, err := os.Create(*flagCPUProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if *flagMemProfile != "" {
		defer func() {
			runtime.GC()
			f, err := os.Create(*flagMemProfile)
			if err != nil {
				log.Fatal(err)
			}
			pprof.WriteHeapProfile(f)
			f.Close()
		}()
	}

	mapBytes, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	m, err := escher.Parse(mapBytes)
	if err != nil {
		log.Fatal(err)
	}

	var col diag.Collector
	s := session.New(m, &col)

	if *flagData != "" {
		dataBytes, err := os.ReadFile(*flagData)
		if err != nil {
			log.Fatal(err)
		}
		if err := s.LoadData(dataBytes); err != nil {
			log.Fatal(err)
		}
		if *flagCondition != "" {
			s.SetCondition(*flagCondition)
		}
	}
	s.Tick()

	summarize(s, &col, *flagVerbose)

	if *flagOut != "" {
		out, err := s.ExportMap()
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*flagOut, out, 0666); err != nil {
			log.Fatal(err)
		}
	}
}

func summarize(s *session.Session, col *diag.Collector, verbose bool) {
	fmt.Printf("map %q: %d reactions, %d metabolites\n",
		s.Map.Info.MapName, len(s.Map.ReactionIDs()), len(s.Map.MetaboliteIDs()))

	if conds := s.Conditions(); len(conds) > 0 {
		fmt.Printf("conditions: %v (showing %q)\n", conds, orAll(s.Condition()))
	}
	for _, e := range s.Legend() {
		fmt.Printf("channel %s: [%g, %g] over %d identifiers\n",
			e.Channel, e.Domain.Min, e.Domain.Max, e.Domain.N)
	}

	plots := 0
	for _, p := range s.Placed() {
		if p.Geom.Kind.SidePlot() && !p.Degenerate {
			plots++
		}
		if verbose {
			fmt.Printf("  %s at (%g, %g)\n",
				p.Geom, p.Transform.Offset.X, p.Transform.Offset.Y)
		}
	}
	fmt.Printf("%d side plots placed\n", plots)

	for _, d := range col.All {
		log.Printf("warning: %s", d)
	}
}

func orAll(cond string) string {
	if cond == "" {
		return "ALL"
	}
	return cond
}
