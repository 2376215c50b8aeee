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
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/grailbio/ptmratio/ptm"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestWriteRatesTSV(t *testing.T) {
	table := newTable(
		rec("r1", "P1", "AQK", "_AQK_", 10),
		rec("r1", "P1", "AQK", "_AQ(Deamidation (NQ))K_", 20),
		rec("r1", "P2", "AQK", "_AQK_", 30),
	)
	rates, err := Calculate(table, ptm.MustParse(deamidation), ByRun)
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, WriteRatesTSV(&buf, rates))
	expect.EQ(t, buf.String(),
		"Raw_file\tAmino_acid\tPTM\tAmino_acid_count\tConversion_count\tAbundance_count\tConversion_ratio\n"+
			"r1\tQ\tDeamidation (NQ)\t3\t1\t60\t0.3333333333333333\n")

	rates.Aggregates[0].Bootstrap = &Summary{Mean: 0.3, Lower: 0.125, Upper: 0.5}
	buf.Reset()
	assert.NoError(t, WriteRatesTSV(&buf, rates))
	expect.EQ(t, buf.String(),
		"Raw_file\tAmino_acid\tPTM\tAmino_acid_count\tConversion_count\tAbundance_count\tConversion_ratio\t"+
			"Bootstrap_mean_conversion_ratio\tQ95_low\tQ95_up\n"+
			"r1\tQ\tDeamidation (NQ)\t3\t1\t60\t0.3333333333333333\t0.3\t0.125\t0.5\n")
}

func TestWriteReplicatesTSV(t *testing.T) {
	boot := &BootstrapResult{
		Opts: BootstrapOpts{Replicates: 2},
		Replicates: []Replicate{
			{Key: GroupKey{"r1", "P1"}, Index: 0, AminoAcid: 'E', PTM: "Glu->pyro-Glu", Ratio: 0.25},
			{Key: GroupKey{"r1", "P1"}, Index: 1, AminoAcid: 'E', PTM: "Glu->pyro-Glu", Ratio: 0.5},
		},
	}
	var buf bytes.Buffer
	assert.NoError(t, WriteReplicatesTSV(&buf, ByRunAndProtein, boot))
	expect.EQ(t, buf.String(),
		"Raw_file\tLeading_razor_protein\tReplicate\tAmino_acid\tPTM\tConversion_ratio\n"+
			"r1\tP1\t0\tE\tGlu->pyro-Glu\t0.25\n"+
			"r1\tP1\t1\tE\tGlu->pyro-Glu\t0.5\n")
}

func TestReplicatesRio(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	rates, err := Calculate(largeTable(), ptm.MustParse(deamidation), ByRunAndProtein)
	assert.NoError(t, err)
	boot, err := Bootstrap(rates, seededOpts(11, 20))
	assert.NoError(t, err)

	path := filepath.Join(tmpdir, "reps.rio")
	assert.NoError(t, WriteReplicatesRio(ctx, path, rates, boot))
	a, err := ReadReplicatesRio(ctx, path)
	assert.NoError(t, err)
	expect.EQ(t, a.Pattern, deamidation)
	expect.EQ(t, a.Granularity, ByRunAndProtein)
	expect.EQ(t, a.Opts, boot.Opts)
	expect.EQ(t, a.Summaries, boot.Summaries)
	expect.EQ(t, a.Replicates, boot.Replicates)
	expect.EQ(t, len(a.Keys), len(rates.Groups))
	for g := range rates.Groups {
		expect.EQ(t, a.Keys[g], rates.Groups[g].Key)
	}

	_, err = ReadReplicatesRio(ctx, filepath.Join(tmpdir, "missing.rio"))
	expect.True(t, err != nil)
}

func TestOutputFolder(t *testing.T) {
	opts := DefaultOpts
	opts.Pattern = "Q(Deamidation (NQ))"
	opts.EvidencePath = "/data/mq/evidence.txt"
	expect.EQ(t, OutputFolder(opts), "/data/mq/Q(Deamidation_(NQ))_evidence")
	opts.OutputDir = "/tmp/out"
	expect.EQ(t, OutputFolder(opts), "/tmp/out/Q(Deamidation_(NQ))_evidence")
	opts.Pattern = "(Glu->pyro-Glu)E"
	opts.EvidencePath = "/data/mq/combined.evidence.txt"
	expect.EQ(t, OutputFolder(opts), "/tmp/out/(Glu->pyro-Glu)E_combined.evidence")
}
