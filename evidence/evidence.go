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

// Package evidence loads peptide identification records from a MaxQuant
// evidence table and applies the row filters that must run before any ratio
// is computed.
package evidence

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// Column names read from the evidence table.
const (
	ColRawFile          = "Raw file"
	ColProtein          = "Leading razor protein"
	ColSequence         = "Sequence"
	ColModifiedSequence = "Modified sequence"
)

// Record is one peptide identification event.
type Record struct {
	RawFile          string
	Protein          string
	Sequence         string
	ModifiedSequence string
	// Abundance is the value of the abundance column chosen at load time,
	// usually the PSM count ("MS/MS count") or "Intensity". Never negative.
	Abundance float64
}

// Table is the filtered, in-memory evidence table. It is read-only once
// returned by Read or Load.
type Table struct {
	Records []Record
	// AbundanceColumn is the name of the column Record.Abundance was read from.
	AbundanceColumn string
	// Stats describes the rows dropped while loading.
	Stats Stats
}

// Stats counts rows seen and dropped while loading a table.
type Stats struct {
	// Rows is the number of data rows in the input.
	Rows int
	// Contaminants is the number of rows dropped because their protein matched
	// one of Opts.ContaminantPrefixes.
	Contaminants int
	// MissingAbundance is the number of rows dropped because the abundance
	// column was empty or NaN.
	MissingAbundance int
}

func (s Stats) String() string {
	return fmt.Sprintf("rows: %d, contaminants: %d, missing abundance: %d, kept: %d",
		s.Rows, s.Contaminants, s.MissingAbundance, s.Rows-s.Contaminants-s.MissingAbundance)
}

type Opts struct {
	// AbundanceColumn names the column used to normalize conversion counts.
	AbundanceColumn string
	// RemoveContaminants drops rows whose protein starts with one of
	// ContaminantPrefixes.
	RemoveContaminants bool
	// ContaminantPrefixes lists the protein ID prefixes of reverse (decoy) and
	// contaminant entries.
	ContaminantPrefixes []string
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	AbundanceColumn:     "MS/MS count",
	RemoveContaminants:  true,
	ContaminantPrefixes: []string{"REV_", "CON_"},
}

func (o Opts) isContaminant(protein string) bool {
	if !o.RemoveContaminants {
		return false
	}
	for _, prefix := range o.ContaminantPrefixes {
		if strings.HasPrefix(protein, prefix) {
			return true
		}
	}
	return false
}

// RequireAminoAcid checks that at least one record's sequence contains aa.
// The returned error has kind errors.Precondition.
func (t *Table) RequireAminoAcid(aa byte) error {
	for i := range t.Records {
		if strings.IndexByte(t.Records[i].Sequence, aa) >= 0 {
			return nil
		}
	}
	return errors.E(errors.Precondition,
		fmt.Sprintf("dataset unfeasible to calculate the conversion ratio, the '%c' amino acid is not present in the dataset", aa))
}
