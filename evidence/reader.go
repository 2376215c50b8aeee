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
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// sniffBytes bounds how much of the input is inspected to pick a delimiter.
const sniffBytes = 64 << 10

// delimiters lists the field separators recognized by sniffDelimiter, in order
// of preference on ties.
var delimiters = []byte{'\t', ',', ';', '|'}

// sniffDelimiter picks the delimiter that occurs most often in the header line.
// MaxQuant writes tab-separated files, so tab wins ties and is the fallback.
func sniffDelimiter(header []byte) rune {
	if i := bytes.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}
	best, bestCount := delimiters[0], 0
	for _, d := range delimiters {
		if n := bytes.Count(header, []byte{d}); n > bestCount {
			best, bestCount = d, n
		}
	}
	return rune(best)
}

// Read parses an evidence table from in. The delimiter is detected from the
// header line. Rows are filtered as specified by opts: contaminant rows are
// dropped if requested, and rows without an abundance value are always
// dropped.
func Read(in io.Reader, opts Opts) (*Table, error) {
	br := bufio.NewReaderSize(in, sniffBytes)
	peek, err := br.Peek(sniffBytes)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, errors.Wrap(err, "couldn't read evidence header")
	}
	r := tsv.NewReader(br)
	r.Comma = sniffDelimiter(peek)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Reader.Read()
	if err == io.EOF {
		return nil, errors.Errorf("empty evidence table")
	}
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read evidence header")
	}
	cols, err := newColumns(header, opts.AbundanceColumn)
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("evidence: delimiter %q, %d columns", r.Comma, len(header))

	t := &Table{AbundanceColumn: opts.AbundanceColumn}
	line := 1
	for {
		row, err := r.Reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't read evidence line %d", line)
		}
		t.Stats.Rows++
		rec, ok, err := cols.record(row, line)
		if err != nil {
			return nil, err
		}
		if opts.isContaminant(rec.Protein) {
			t.Stats.Contaminants++
			continue
		}
		if !ok {
			t.Stats.MissingAbundance++
			continue
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// Load reads the evidence table at path, which may be local or any path
// supported by grailbio/base/file. Gzip and other compressed inputs are
// detected from the file name.
func Load(ctx context.Context, path string, opts Opts) (*Table, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	var inr io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(inr, in.Name()); u != nil {
		inr = u
	}
	t, err := Read(inr, opts)
	if e := in.Close(ctx); e != nil && err == nil {
		err = errors.Wrapf(e, "close %s", path)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d evidence records from %s (%v)", len(t.Records), path, t.Stats)
	return t, nil
}
