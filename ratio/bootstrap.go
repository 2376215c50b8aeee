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
	"math"
	"runtime"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"golang.org/x/exp/rand"
)

// Replicate is the conversion ratio of one resample of a group.
type Replicate struct {
	Key GroupKey
	// Index is the replicate number within the group, in [0, Replicates).
	Index     int
	AminoAcid byte
	PTM       string
	// Ratio is NaN if the resample had zero total abundance.
	Ratio float64
}

// Summary describes the replicate distribution of one group.
type Summary struct {
	Mean  float64
	Lower float64
	Upper float64
	// Degenerate counts replicates with zero total abundance. They are
	// excluded from Mean, Lower and Upper.
	Degenerate int
}

// BootstrapResult holds the replicates of every group of a Rates, group-major:
// the replicates of Rates.Groups[g] are
// Replicates[g*opts.Replicates:(g+1)*opts.Replicates]. Summaries[g] describes
// Rates.Groups[g].
type BootstrapResult struct {
	Opts       BootstrapOpts
	Replicates []Replicate
	Summaries  []Summary
}

// GroupReplicates returns the replicates of Rates.Groups[g].
func (b *BootstrapResult) GroupReplicates(g int) []Replicate {
	n := b.Opts.Replicates
	return b.Replicates[g*n : (g+1)*n]
}

// groupSeed derives the seed of group g from the run seed, so that the result
// does not depend on the order in which groups are scheduled.
func groupSeed(seed int64, g int) uint64 {
	return uint64(seed) + uint64(g)*0x9e3779b97f4a7c15
}

// Bootstrap resamples each group of rates with replacement opts.Replicates
// times. Each resample has as many rows as its group, and its ratio is
// computed exactly as in Calculate. Groups are processed in parallel; each
// writes only its own slots of the result.
func Bootstrap(rates *Rates, opts BootstrapOpts) (*BootstrapResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if !opts.Seeded {
		opts.Seed = time.Now().UnixNano()
		opts.Seeded = true
	}
	nGroup := len(rates.Groups)
	nRep := opts.Replicates
	res := &BootstrapResult{
		Opts:       opts,
		Replicates: make([]Replicate, nGroup*nRep),
		Summaries:  make([]Summary, nGroup),
	}
	if nGroup == 0 {
		return res, nil
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > nGroup {
		parallelism = nGroup
	}
	log.Printf("%s: bootstrapping %d groups x %d replicates (seed %d, %d jobs)",
		rates.Granularity, nGroup, nRep, opts.Seed, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * nGroup) / parallelism
		endIdx := ((jobIdx + 1) * nGroup) / parallelism
		ratios := make([]float64, nRep)
		for g := startIdx; g < endIdx; g++ {
			rng := rand.New(rand.NewSource(groupSeed(opts.Seed, g)))
			agg := &rates.Aggregates[g]
			reps := res.Replicates[g*nRep : (g+1)*nRep]
			resample(rates.Groups[g].Rows, rng, ratios)
			for r := range reps {
				reps[r] = Replicate{
					Key:       agg.Key,
					Index:     r,
					AminoAcid: agg.AminoAcid,
					PTM:       agg.PTM,
					Ratio:     ratios[r],
				}
			}
			s, ok := summarize(ratios, opts.LowerQuantile, opts.UpperQuantile)
			if !ok {
				return errors.E(errors.Integrity,
					fmt.Sprintf("group %v: all %d bootstrap replicates have zero total abundance", agg.Key, nRep))
			}
			if s.Degenerate > 0 {
				log.Printf("group %v: %d of %d bootstrap replicates have zero total abundance and are ignored",
					agg.Key, s.Degenerate, nRep)
			}
			log.Debug.Printf("group %v: ratio %v, bootstrap mean %v [%v, %v]",
				agg.Key, agg.Ratio, s.Mean, s.Lower, s.Upper)
			res.Summaries[g] = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// resample fills ratios with the ratios of len(ratios) resamples of rows. Each
// resample draws len(rows) rows uniformly with replacement.
func resample(rows []Row, rng *rand.Rand, ratios []float64) {
	n := len(rows)
	for r := range ratios {
		var s sums
		for k := 0; k < n; k++ {
			s.add(&rows[rng.Intn(n)])
		}
		v, ok := s.ratio()
		if !ok {
			v = math.NaN()
		}
		ratios[r] = v
	}
}

// Merge attaches the bootstrap summaries to the aggregates of rates.
//
// REQUIRES: boot was computed from rates.
func Merge(rates *Rates, boot *BootstrapResult) {
	if len(boot.Summaries) != len(rates.Aggregates) {
		log.Panicf("merge: %d summaries for %d groups", len(boot.Summaries), len(rates.Aggregates))
	}
	for i := range rates.Aggregates {
		s := boot.Summaries[i]
		rates.Aggregates[i].Bootstrap = &s
	}
}
