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

// Package ptm parses post-translational modification patterns as they are
// written in the "Modified sequence" column of a MaxQuant evidence table, e.g.
// "Q(Deamidation (NQ))" or "(Glu->pyro-Glu)E".
package ptm

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// siteCounter decides whether a peptide sequence can carry the modification
// and, if so, how many residues are eligible for conversion. A return value of
// 0 means the peptide is ineligible.
type siteCounter interface {
	countSites(seq string, aa byte) int
}

// nTermSites counts only the N-terminal residue. Pyro-Glu conversions happen
// exclusively at the first position of a peptide.
type nTermSites struct{}

func (nTermSites) countSites(seq string, aa byte) int {
	if len(seq) > 0 && seq[0] == aa {
		return 1
	}
	return 0
}

// anySites counts every occurrence of the residue.
type anySites struct{}

func (anySites) countSites(seq string, aa byte) int {
	return strings.Count(seq, string(aa))
}

// Pattern is a parsed PTM pattern. It is immutable once created by Parse.
type Pattern struct {
	// AminoAcid is the unmodified residue, e.g. 'Q'.
	AminoAcid byte
	// Marker is the modification mark including its parentheses, e.g.
	// "(Deamidation (NQ))".
	Marker string
	// NTerminal is true if the marker precedes the residue in the pattern text.
	// Such patterns only apply to the first residue of a peptide.
	NTerminal bool

	text  string
	sites siteCounter
}

// Parse splits a pattern into residue and marker. A pattern starting with '('
// is written marker-first and is treated as N-terminal only, regardless of the
// modification name. Any other pattern is written residue-first.
//
// The returned error has kind errors.Invalid when the marker has unbalanced
// parentheses.
func Parse(s string) (Pattern, error) {
	if len(s) < 2 {
		return Pattern{}, errors.E(errors.Invalid,
			fmt.Sprintf("ptm pattern %q is too short, e.g. 'M(Oxidation (M))' or '(Glu->pyro-Glu)E'", s))
	}
	p := Pattern{text: s}
	if s[0] == '(' {
		p.AminoAcid = s[len(s)-1]
		p.Marker = s[:len(s)-1]
		p.NTerminal = true
		p.sites = nTermSites{}
	} else {
		p.AminoAcid = s[0]
		p.Marker = s[1:]
		p.sites = anySites{}
	}
	if strings.Count(p.Marker, "(") != strings.Count(p.Marker, ")") {
		return Pattern{}, errors.E(errors.Invalid,
			fmt.Sprintf("the '%s' format is not valid, e.g. 'M(Oxidation (M))' or '(Glu->pyro-Glu)E'", p.Marker))
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Pattern {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern text as given to Parse.
func (p Pattern) String() string { return p.text }

// Name returns the marker without its enclosing parentheses, e.g.
// "Deamidation (NQ)".
func (p Pattern) Name() string {
	if len(p.Marker) >= 2 && p.Marker[0] == '(' && p.Marker[len(p.Marker)-1] == ')' {
		return p.Marker[1 : len(p.Marker)-1]
	}
	return p.Marker
}

// CountSites returns the number of residues in seq that may carry the
// modification. It returns 0 if seq is ineligible.
func (p Pattern) CountSites(seq string) int {
	return p.sites.countSites(seq, p.AminoAcid)
}

// CountConversions returns the number of non-overlapping literal occurrences
// of the pattern text in modSeq. The pattern is never interpreted as a regular
// expression.
func (p Pattern) CountConversions(modSeq string) int {
	return strings.Count(modSeq, p.text)
}
