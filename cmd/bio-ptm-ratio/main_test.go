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

package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/ptmratio/ratio"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func parseFlags(t *testing.T, args ...string) ratio.Opts {
	fs := flag.NewFlagSet("bio-ptm-ratio", flag.ContinueOnError)
	opts := ratio.DefaultOpts
	f := ptmRatioFlags{}
	registerFlags(fs, &opts, &f)
	assert.NoError(t, fs.Parse(args))
	finalizeOpts(&opts, f)
	return opts
}

func TestFlags(t *testing.T) {
	opts := parseFlags(t, "-e", "./evidence.txt", "-p", "Q(Deamidation (NQ))")
	expect.EQ(t, opts.EvidencePath, "./evidence.txt")
	expect.EQ(t, opts.Pattern, "Q(Deamidation (NQ))")
	expect.EQ(t, opts.Evidence.AbundanceColumn, "MS/MS count")
	expect.True(t, opts.PerProtein)
	expect.True(t, opts.Bootstrap)
	expect.True(t, opts.Evidence.RemoveContaminants)
	expect.False(t, opts.BootstrapOpts.Seeded)

	opts = parseFlags(t, "-evidence-file", "e.txt", "-ptm", "(Glu->pyro-Glu)E",
		"-abundance-column", "Intensity", "-no-per-protein", "-bootstrap=false",
		"-no-remove-contaminants", "-seed", "17", "-upper-quantile", "0.925")
	expect.EQ(t, opts.Evidence.AbundanceColumn, "Intensity")
	expect.False(t, opts.PerProtein)
	expect.False(t, opts.Bootstrap)
	expect.False(t, opts.Evidence.RemoveContaminants)
	expect.True(t, opts.BootstrapOpts.Seeded)
	expect.EQ(t, opts.BootstrapOpts.Seed, int64(17))
	expect.EQ(t, opts.BootstrapOpts.UpperQuantile, 0.925)
}

func readLines(t *testing.T, path string) []string {
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestEndToEnd(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	evidencePath := filepath.Join("testdata", "evidence.txt")

	opts := parseFlags(t, "-e", evidencePath, "-p", "(Gln->pyro-Glu)Q", "-o", tmpdir,
		"-seed", "1", "-replicates", "50")
	assert.NoError(t, ratio.Run(ctx, opts))
	dir := filepath.Join(tmpdir, "(Gln->pyro-Glu)Q_evidence")
	bulk := readLines(t, filepath.Join(dir, "bulk_conversion_ratio.tsv"))
	expect.EQ(t, len(bulk), 2)
	expect.True(t, strings.HasPrefix(bulk[1], "bone_01\tQ\tGln->pyro-Glu\t2\t1\t8\t0.375\t"), bulk[1])
	expect.EQ(t, len(readLines(t, filepath.Join(dir, "bulk_bootstrap_replicates.tsv"))), 1+50)
	expect.EQ(t, len(readLines(t, filepath.Join(dir, "per_protein_bootstrap_replicates.tsv"))), 1+50)

	opts = parseFlags(t, "-e", evidencePath, "-p", "Q(Deamidation (NQ))", "-o", tmpdir,
		"-a", "Intensity", "-no-bootstrap", "-no-per-protein")
	assert.NoError(t, ratio.Run(ctx, opts))
	dir = filepath.Join(tmpdir, "Q(Deamidation_(NQ))_evidence")
	expect.EQ(t, readLines(t, filepath.Join(dir, "bulk_conversion_ratio.tsv")), []string{
		"Raw_file\tAmino_acid\tPTM\tAmino_acid_count\tConversion_count\tAbundance_count\tConversion_ratio",
		"bone_01\tQ\tDeamidation (NQ)\t4\t1\t4300000\t0.09302325581395349",
		"bone_02\tQ\tDeamidation (NQ)\t5\t2\t4150000\t0.7469879518072289",
	})
	_, err := os.Stat(filepath.Join(dir, "bulk_bootstrap_replicates.tsv"))
	expect.True(t, os.IsNotExist(err))
}

func TestEndToEndMissingColumn(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	opts := parseFlags(t, "-e", filepath.Join("testdata", "evidence.txt"), "-p", "Q(Deamidation (NQ))",
		"-o", tmpdir, "-a", "LFQ intensity")
	err := ratio.Run(context.Background(), opts)
	expect.True(t, err != nil)
	expect.True(t, strings.Contains(err.Error(), "LFQ intensity"), err.Error())
	entries, err := os.ReadDir(tmpdir)
	assert.NoError(t, err)
	expect.EQ(t, len(entries), 0)
}

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	status := m.Run()
	shutdown()
	os.Exit(status)
}
