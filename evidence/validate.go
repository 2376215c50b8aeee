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

package evidence

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// columns maps the fields Record needs to their positions in a row.
type columns struct {
	n                                             int
	rawFile, protein, sequence, modSeq, abundance int
}

func newColumns(header []string, abundanceCol string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[name] = i
	}
	if _, ok := index[abundanceCol]; !ok {
		return columns{}, errors.E(errors.NotExist,
			fmt.Sprintf("the '%s' column does not exist in this evidence file", abundanceCol))
	}
	var missing []string
	lookup := func(name string) int {
		i, ok := index[name]
		if !ok {
			missing = append(missing, "'"+name+"'")
		}
		return i
	}
	c := columns{
		n:         len(header),
		rawFile:   lookup(ColRawFile),
		protein:   lookup(ColProtein),
		sequence:  lookup(ColSequence),
		modSeq:    lookup(ColModifiedSequence),
		abundance: index[abundanceCol],
	}
	if len(missing) > 0 {
		return columns{}, errors.E(errors.NotExist,
			fmt.Sprintf("required column(s) %s do not exist in this evidence file", strings.Join(missing, ", ")))
	}
	return c, nil
}

// record extracts a Record from row. ok is false if the abundance value is
// missing, in which case the row must be dropped.
func (c columns) record(row []string, line int) (rec Record, ok bool, err error) {
	if len(row) != c.n {
		err = errors.E(errors.Invalid,
			fmt.Sprintf("evidence line %d: expect %d fields, found %d", line, c.n, len(row)))
		return
	}
	rec = Record{
		RawFile:          row[c.rawFile],
		Protein:          row[c.protein],
		Sequence:         row[c.sequence],
		ModifiedSequence: row[c.modSeq],
	}
	rec.Abundance, ok, err = parseAbundance(row[c.abundance])
	if err != nil {
		err = errors.E(errors.Invalid, err, fmt.Sprintf("evidence line %d", line))
	}
	return
}

// parseAbundance parses an abundance cell. Empty cells and NaN markers are
// reported as missing.
func parseAbundance(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "#N/A":
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, errors.E(errors.Invalid, fmt.Sprintf("invalid abundance value '%s'", s))
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	if v < 0 || math.IsInf(v, 0) {
		return 0, false, errors.E(errors.Invalid, fmt.Sprintf("abundance value '%s' must be finite and non-negative", s))
	}
	return v, true, nil
}
