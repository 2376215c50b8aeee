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

// This file defines a recordio archive of bootstrap replicates. Each record
// holds the gob-encoded replicates of one group; the trailer holds the
// pattern, granularity, bootstrap options and per-group summaries, so the
// archive can be summarized again without the evidence table.

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

const (
	// <rioVersionHeader, rioVersion> is stored in a recordio header.
	rioVersionHeader = "ptmratioversion"
	rioVersion       = "PTMRATIO_V1"
)

// ReplicateArchive is the content of a replicate archive.
type ReplicateArchive struct {
	Pattern     string
	Granularity Granularity
	Opts        BootstrapOpts
	Keys        []GroupKey
	Summaries   []Summary
	// Replicates is group-major, as in BootstrapResult.
	Replicates []Replicate
}

type rioTrailer struct {
	Pattern     string
	Granularity Granularity
	Opts        BootstrapOpts
	Keys        []GroupKey
	Summaries   []Summary
}

// WriteReplicatesRio writes the replicates of boot, computed from rates, to a
// zstd-compressed recordio file at path.
func WriteReplicatesRio(ctx context.Context, path string, rates *Rates, boot *BootstrapResult) (err error) {
	recordiozstd.Init()
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "rio create", path)
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "rio close", path)
		}
	}()
	w := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(rioVersionHeader, rioVersion)
	w.AddHeader(recordio.KeyTrailer, true)

	trailer := rioTrailer{
		Pattern:     rates.Pattern.String(),
		Granularity: rates.Granularity,
		Opts:        boot.Opts,
		Keys:        make([]GroupKey, len(rates.Groups)),
		Summaries:   boot.Summaries,
	}
	for g := range rates.Groups {
		trailer.Keys[g] = rates.Groups[g].Key
		b := bytes.Buffer{}
		if err := gob.NewEncoder(&b).Encode(boot.GroupReplicates(g)); err != nil {
			return errors.E(err, "rio encode", path)
		}
		w.Append(b.Bytes())
	}
	b := bytes.Buffer{}
	if err := gob.NewEncoder(&b).Encode(trailer); err != nil {
		return errors.E(err, "rio encode trailer", path)
	}
	w.SetTrailer(b.Bytes())
	if err := w.Finish(); err != nil {
		return errors.E(err, "rio finish", path)
	}
	return nil
}

// ReadReplicatesRio reads an archive created by WriteReplicatesRio.
func ReadReplicatesRio(ctx context.Context, path string) (*ReplicateArchive, error) {
	recordiozstd.Init()
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "rio open", path)
	}
	defer in.Close(ctx) // nolint: errcheck
	r := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	versionFound := false
	for _, kv := range r.Header() {
		if kv.Key == rioVersionHeader {
			if v, _ := kv.Value.(string); v != rioVersion {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: replicate archive version mismatch, got %v, expect %v",
					path, kv.Value, rioVersion))
			}
			versionFound = true
			break
		}
	}
	if !versionFound {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: %s not found", path, rioVersionHeader))
	}
	var trailer rioTrailer
	if err := gob.NewDecoder(bytes.NewReader(r.Trailer())).Decode(&trailer); err != nil {
		return nil, errors.E(err, "rio decode trailer", path)
	}
	a := &ReplicateArchive{
		Pattern:     trailer.Pattern,
		Granularity: trailer.Granularity,
		Opts:        trailer.Opts,
		Keys:        trailer.Keys,
		Summaries:   trailer.Summaries,
		Replicates:  make([]Replicate, 0, len(trailer.Keys)*trailer.Opts.Replicates),
	}
	for r.Scan() {
		var reps []Replicate
		if err := gob.NewDecoder(bytes.NewReader(r.Get().([]byte))).Decode(&reps); err != nil {
			return nil, errors.E(err, "rio decode", path)
		}
		a.Replicates = append(a.Replicates, reps...)
	}
	if err := r.Err(); err != nil {
		return nil, errors.E(err, "rio scan", path)
	}
	return a, nil
}
