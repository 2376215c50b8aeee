// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratio

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/ptmratio/evidence"
	"github.com/grailbio/ptmratio/ptm"
)

// Granularity selects how evidence rows are grouped.
type Granularity int

const (
	// ByRun groups rows by raw file.
	ByRun Granularity = iota
	// ByRunAndProtein groups rows by (raw file, leading razor protein).
	ByRunAndProtein
)

// String returns the output file prefix for the granularity.
func (g Granularity) String() string {
	switch g {
	case ByRun:
		return "bulk"
	case ByRunAndProtein:
		return "per_protein"
	}
	return fmt.Sprintf("granularity(%d)", int(g))
}

func (g Granularity) key(rec *evidence.Record) GroupKey {
	if g == ByRunAndProtein {
		return GroupKey{RawFile: rec.RawFile, Protein: rec.Protein}
	}
	return GroupKey{RawFile: rec.RawFile}
}

// GroupKey identifies a group. Protein is empty when grouping ByRun.
type GroupKey struct {
	RawFile string
	Protein string
}

func (k GroupKey) String() string {
	if k.Protein == "" {
		return k.RawFile
	}
	return k.RawFile + "/" + k.Protein
}

func (k GroupKey) less(o GroupKey) bool {
	if k.RawFile != o.RawFile {
		return k.RawFile < o.RawFile
	}
	return k.Protein < o.Protein
}

// Row is an evidence record that can carry the modification, together with
// its per-peptide counts.
type Row struct {
	*evidence.Record
	// AminoAcidCount is the number of residues eligible for conversion. Always
	// positive.
	AminoAcidCount int
	// ConversionCount is the number of modified residues in the modified
	// sequence.
	ConversionCount int
	// Normalized is ConversionCount/AminoAcidCount*Abundance.
	Normalized float64
}

// Group is one partition of the enriched rows.
type Group struct {
	Key  GroupKey
	Rows []Row
}

// Aggregate is the conversion ratio of one group.
type Aggregate struct {
	Key       GroupKey
	AminoAcid byte
	// PTM is the modification name without enclosing parentheses.
	PTM             string
	AminoAcidCount  int
	ConversionCount int
	// Abundance is the summed abundance of the group's rows.
	Abundance float64
	// NormalizedSum is the summed Row.Normalized of the group's rows.
	NormalizedSum float64
	// Ratio is NormalizedSum/Abundance.
	Ratio float64
	// Bootstrap is set by Merge.
	Bootstrap *Summary
}

// Rates is the result of Calculate. Groups[i] and Aggregates[i] describe the
// same group, sorted by key.
type Rates struct {
	Pattern     ptm.Pattern
	Granularity Granularity
	Groups      []Group
	Aggregates  []Aggregate
}

// sums accumulates the terms of the conversion ratio. Calculate and Bootstrap
// both use it so that a replicate's ratio is computed exactly like the
// group's.
type sums struct {
	normalized, abundance float64
}

func (s *sums) add(r *Row) {
	s.normalized += r.Normalized
	s.abundance += r.Abundance
}

// ratio returns normalized/abundance. ok is false if abundance is zero.
func (s sums) ratio() (v float64, ok bool) {
	if s.abundance == 0 {
		return 0, false
	}
	return s.normalized / s.abundance, true
}

// Enrich computes the per-row counts for every record of table that can carry
// the modification described by p. Other records are dropped.
func Enrich(table *evidence.Table, p ptm.Pattern) []Row {
	rows := make([]Row, 0, len(table.Records))
	for i := range table.Records {
		rec := &table.Records[i]
		nSites := p.CountSites(rec.Sequence)
		if nSites == 0 {
			continue
		}
		nConv := p.CountConversions(rec.ModifiedSequence)
		rows = append(rows, Row{
			Record:          rec,
			AminoAcidCount:  nSites,
			ConversionCount: nConv,
			Normalized:      float64(nConv) / float64(nSites) * rec.Abundance,
		})
	}
	return rows
}

// GroupRows partitions rows by g. Groups are sorted by key; rows keep their
// relative order.
func GroupRows(rows []Row, g Granularity) []Group {
	index := map[GroupKey]int{}
	var groups []Group
	for _, r := range rows {
		key := g.key(r.Record)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key.less(groups[j].Key) })
	return groups
}

// Calculate computes the conversion ratio of every group. The ratio of a group
// is the sum of its rows' normalized conversions divided by the sum of their
// abundances, so high-abundance peptides dominate.
//
// A group whose total abundance is zero fails the whole calculation with an
// errors.Integrity error. If no record can carry the modification, the error
// has kind errors.Precondition.
func Calculate(table *evidence.Table, p ptm.Pattern, g Granularity) (*Rates, error) {
	rows := Enrich(table, p)
	if len(rows) == 0 {
		where := "in any sequence"
		if p.NTerminal {
			where = "at the N-terminus of any sequence"
		}
		return nil, errors.E(errors.Precondition,
			fmt.Sprintf("dataset unfeasible to calculate the %s conversion ratio, the '%c' amino acid is not present %s",
				p, p.AminoAcid, where))
	}
	groups := GroupRows(rows, g)
	aggs := make([]Aggregate, len(groups))
	for i := range groups {
		grp := &groups[i]
		agg := Aggregate{Key: grp.Key, AminoAcid: p.AminoAcid, PTM: p.Name()}
		var s sums
		for j := range grp.Rows {
			r := &grp.Rows[j]
			agg.AminoAcidCount += r.AminoAcidCount
			agg.ConversionCount += r.ConversionCount
			s.add(r)
		}
		agg.Abundance, agg.NormalizedSum = s.abundance, s.normalized
		var ok bool
		if agg.Ratio, ok = s.ratio(); !ok {
			return nil, errors.E(errors.Integrity,
				fmt.Sprintf("group %v has zero total %s, the conversion ratio is undefined", grp.Key, table.AbundanceColumn))
		}
		aggs[i] = agg
	}
	log.Printf("%s: %d rows in %d groups", g, len(rows), len(groups))
	return &Rates{Pattern: p, Granularity: g, Groups: groups, Aggregates: aggs}, nil
}
