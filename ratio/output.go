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
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeKeyHeader writes the group key column names for g.
func writeKeyHeader(w *tsv.Writer, g Granularity) {
	w.WriteString("Raw_file")
	if g == ByRunAndProtein {
		w.WriteString("Leading_razor_protein")
	}
}

func writeKey(w *tsv.Writer, g Granularity, k GroupKey) {
	w.WriteString(k.RawFile)
	if g == ByRunAndProtein {
		w.WriteString(k.Protein)
	}
}

// WriteRatesTSV writes one line per group of rates. The bootstrap columns are
// present iff the aggregates carry a bootstrap summary.
func WriteRatesTSV(out io.Writer, rates *Rates) error {
	withBootstrap := len(rates.Aggregates) > 0 && rates.Aggregates[0].Bootstrap != nil
	w := tsv.NewWriter(out)
	writeKeyHeader(w, rates.Granularity)
	w.WriteString("Amino_acid")
	w.WriteString("PTM")
	w.WriteString("Amino_acid_count")
	w.WriteString("Conversion_count")
	w.WriteString("Abundance_count")
	w.WriteString("Conversion_ratio")
	if withBootstrap {
		w.WriteString("Bootstrap_mean_conversion_ratio")
		w.WriteString("Q95_low")
		w.WriteString("Q95_up")
	}
	if err := w.EndLine(); err != nil {
		return err
	}
	for i := range rates.Aggregates {
		a := &rates.Aggregates[i]
		writeKey(w, rates.Granularity, a.Key)
		w.WriteByte(a.AminoAcid)
		w.WriteString(a.PTM)
		w.WriteString(strconv.Itoa(a.AminoAcidCount))
		w.WriteString(strconv.Itoa(a.ConversionCount))
		w.WriteString(formatFloat(a.Abundance))
		w.WriteString(formatFloat(a.Ratio))
		if withBootstrap {
			w.WriteString(formatFloat(a.Bootstrap.Mean))
			w.WriteString(formatFloat(a.Bootstrap.Lower))
			w.WriteString(formatFloat(a.Bootstrap.Upper))
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteReplicatesTSV writes every bootstrap replicate, one per line.
func WriteReplicatesTSV(out io.Writer, g Granularity, boot *BootstrapResult) error {
	w := tsv.NewWriter(out)
	writeKeyHeader(w, g)
	w.WriteString("Replicate")
	w.WriteString("Amino_acid")
	w.WriteString("PTM")
	w.WriteString("Conversion_ratio")
	if err := w.EndLine(); err != nil {
		return err
	}
	for i := range boot.Replicates {
		r := &boot.Replicates[i]
		writeKey(w, g, r.Key)
		w.WriteString(strconv.Itoa(r.Index))
		w.WriteByte(r.AminoAcid)
		w.WriteString(r.PTM)
		w.WriteString(formatFloat(r.Ratio))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeFile creates path and passes its writer to write. If gz is set, the
// contents are gzip-compressed.
func writeFile(ctx context.Context, path string, gz bool, write func(io.Writer) error) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "couldn't create", path)
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "close", path)
		}
	}()
	var w io.Writer = out.Writer(ctx)
	if gz {
		zw := gzip.NewWriter(w)
		defer func() {
			if e := zw.Close(); e != nil && err == nil {
				err = errors.E(e, "gzip close", path)
			}
		}()
		w = zw
	}
	if err = write(w); err != nil {
		return errors.E(err, "error writing to", path)
	}
	return nil
}
