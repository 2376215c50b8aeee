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

/*
bio-ptm-ratio computes the conversion ratio of a post-translational
modification (PTM) from a MaxQuant evidence table, e.g. the fraction of
deamidated glutamines, per raw file and optionally per (raw file, protein).

For every peptide, the number of modified residues is divided by the number of
residues that can carry the modification and multiplied by the peptide's
abundance (PSM count or intensity). Within a group, these normalized values
are summed and divided by the summed abundance.

Patterns are written exactly as in the "Modified sequence" column. A pattern
whose modification precedes the residue, such as "(Gln->pyro-Glu)Q", only
counts the N-terminal residue of each peptide.

Unless -bootstrap=false, every group is resampled with replacement
-replicates times and the mean and the -lower-quantile/-upper-quantile bounds
of the replicate ratios are reported.

Sample usage:

	bio-ptm-ratio \
	    -evidence-file ./txt/evidence.txt \
	    -ptm 'Q(Deamidation (NQ))' \
	    -abundance-column Intensity \
	    -output-path ./results

The results are written to <output-path>/<ptm>_<evidence name>/:
bulk_conversion_ratio.tsv, bulk_bootstrap_replicates.tsv,
per_protein_conversion_ratio.tsv and per_protein_bootstrap_replicates.tsv.
*/
package main
