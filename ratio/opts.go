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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/ptmratio/evidence"
)

// Opts configures Run.
type Opts struct {
	// EvidencePath is the MaxQuant evidence table to read.
	EvidencePath string
	// OutputDir is the directory in which the result folder is created. If
	// empty, the directory containing EvidencePath is used.
	OutputDir string
	// Pattern is the residue + modification pattern exactly as written in the
	// "Modified sequence" column, e.g. "Q(Deamidation (NQ))".
	Pattern string
	// Evidence controls how the evidence table is loaded and filtered.
	Evidence evidence.Opts
	// PerProtein additionally computes ratios per (raw file, protein).
	PerProtein bool
	// Bootstrap computes bootstrap replicates and confidence bounds.
	Bootstrap     bool
	BootstrapOpts BootstrapOpts
	// Gzip compresses the TSV outputs.
	Gzip bool
	// Rio additionally writes the bootstrap replicates as a recordio archive.
	Rio bool
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Evidence:      evidence.DefaultOpts,
	PerProtein:    true,
	Bootstrap:     true,
	BootstrapOpts: DefaultBootstrapOpts,
}

// BootstrapOpts configures Bootstrap.
type BootstrapOpts struct {
	// Replicates is the number of resamples drawn per group.
	Replicates int
	// Seed makes the resampling reproducible when Seeded is set. Otherwise a
	// fresh seed is drawn for every call and logged.
	Seed   int64
	Seeded bool
	// LowerQuantile and UpperQuantile are the probabilities of the reported
	// interval bounds.
	LowerQuantile float64
	UpperQuantile float64
	// Parallelism caps the number of groups resampled concurrently;
	// 0 = runtime.NumCPU().
	Parallelism int
}

// DefaultBootstrapOpts yields a 95% percentile interval from 1000 replicates.
var DefaultBootstrapOpts = BootstrapOpts{
	Replicates:    1000,
	LowerQuantile: 0.025,
	UpperQuantile: 0.975,
}

func (o BootstrapOpts) validate() error {
	if o.Replicates <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("bootstrap replicates must be positive, got %d", o.Replicates))
	}
	if o.LowerQuantile < 0 || o.UpperQuantile > 1 || o.LowerQuantile > o.UpperQuantile {
		return errors.E(errors.Invalid, fmt.Sprintf("invalid bootstrap quantiles %v, %v: want 0 <= lower <= upper <= 1",
			o.LowerQuantile, o.UpperQuantile))
	}
	if o.Parallelism < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("parallelism must not be negative, got %d", o.Parallelism))
	}
	return nil
}

func (o Opts) validate() error {
	if o.EvidencePath == "" {
		return errors.E(errors.Invalid, "evidence file path is required")
	}
	if o.Pattern == "" {
		return errors.E(errors.Invalid, "ptm pattern is required")
	}
	if o.Evidence.AbundanceColumn == "" {
		return errors.E(errors.Invalid, "abundance column is required")
	}
	if o.Bootstrap {
		return o.BootstrapOpts.validate()
	}
	return nil
}
