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
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// quantile returns the p-quantile of sorted, linearly interpolating between
// the two nearest order statistics (R type 7, the numpy and pandas default).
//
// REQUIRES: len(sorted) > 0, sorted is ascending, 0 <= p <= 1.
func quantile(p float64, sorted []float64) float64 {
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// summarize computes the mean and the lower/upper quantiles of ratios,
// ignoring NaN entries. ok is false if every entry is NaN.
func summarize(ratios []float64, lower, upper float64) (s Summary, ok bool) {
	vals := make([]float64, 0, len(ratios))
	for _, v := range ratios {
		if math.IsNaN(v) {
			s.Degenerate++
			continue
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return s, false
	}
	sort.Float64s(vals)
	s.Mean = stat.Mean(vals, nil)
	s.Lower = quantile(lower, vals)
	s.Upper = quantile(upper, vals)
	return s, true
}
