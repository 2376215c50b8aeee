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
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/ptmratio/evidence"
	"github.com/grailbio/ptmratio/ptm"
)

// OutputFolder returns the directory Run writes its results to:
// "<pattern>_<evidence name>" under opts.OutputDir, or next to the evidence
// file if OutputDir is empty. Spaces in the pattern become underscores.
func OutputFolder(opts Opts) string {
	base := file.Base(opts.EvidencePath)
	name := strings.Replace(opts.Pattern, " ", "_", -1) + "_" + strings.TrimSuffix(base, filepath.Ext(base))
	dir := opts.OutputDir
	if dir == "" {
		dir = file.Dir(opts.EvidencePath)
	}
	return file.Join(dir, name)
}

// result is the computed output of one granularity.
type result struct {
	rates *Rates
	boot  *BootstrapResult
}

// Run computes the bulk conversion ratio, and optionally the per-protein
// ratio, of opts.Pattern in the evidence table, with bootstrap bounds if
// requested. Every precondition is checked and every ratio computed before
// the output folder is created, so nothing is written if Run fails.
func Run(ctx context.Context, opts Opts) error {
	if err := opts.validate(); err != nil {
		return err
	}
	p, err := ptm.Parse(opts.Pattern)
	if err != nil {
		return err
	}
	log.Printf("Computing the %s conversion ratio", p)
	if p.NTerminal {
		log.Printf("N-terminal pattern: only the first amino acid of each peptide is used to calculate the %s ratio", p)
	}
	table, err := evidence.Load(ctx, opts.EvidencePath, opts.Evidence)
	if err != nil {
		return err
	}
	if err = table.RequireAminoAcid(p.AminoAcid); err != nil {
		return err
	}

	granularities := []Granularity{ByRun}
	if opts.PerProtein {
		granularities = append(granularities, ByRunAndProtein)
	}
	results := make([]result, len(granularities))
	for i, g := range granularities {
		if results[i].rates, err = Calculate(table, p, g); err != nil {
			return err
		}
		if !opts.Bootstrap {
			continue
		}
		if results[i].boot, err = Bootstrap(results[i].rates, opts.BootstrapOpts); err != nil {
			return err
		}
		Merge(results[i].rates, results[i].boot)
	}

	dir := OutputFolder(opts)
	if !strings.Contains(dir, "://") {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	ext := ".tsv"
	if opts.Gzip {
		ext += ".gz"
	}
	for _, res := range results {
		prefix := file.Join(dir, res.rates.Granularity.String())
		rates, boot := res.rates, res.boot
		if err = writeFile(ctx, prefix+"_conversion_ratio"+ext, opts.Gzip, func(w io.Writer) error {
			return WriteRatesTSV(w, rates)
		}); err != nil {
			return err
		}
		if boot == nil {
			continue
		}
		if err = writeFile(ctx, prefix+"_bootstrap_replicates"+ext, opts.Gzip, func(w io.Writer) error {
			return WriteReplicatesTSV(w, rates.Granularity, boot)
		}); err != nil {
			return err
		}
		if opts.Rio {
			if err = WriteReplicatesRio(ctx, prefix+"_bootstrap_replicates.rio", rates, boot); err != nil {
				return err
			}
		}
	}
	log.Printf("Results written to %s", dir)
	return nil
}
