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
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/ptmratio/ratio"
)

// Collection of options set via cmdline flags
type ptmRatioFlags struct {
	noPerProtein         bool
	noRemoveContaminants bool
	noBootstrap          bool
	seed                 int64
}

func bioPTMRatioUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -evidence-file <evidence.txt> -ptm <pattern> [OPTIONS]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

// registerFlags binds opts and f to the command line. Each long flag has the
// single-letter alias accepted by earlier releases.
func registerFlags(fs *flag.FlagSet, opts *ratio.Opts, f *ptmRatioFlags) {
	for _, name := range []string{"evidence-file", "e"} {
		fs.StringVar(&opts.EvidencePath, name, "", "The path to the MaxQuant evidence.txt")
	}
	for _, name := range []string{"ptm", "p"} {
		fs.StringVar(&opts.Pattern, name, "", `The amino acid + PTM pattern as written in the 'Modified sequence' column, e.g. 'Q(Deamidation (NQ))' or '(Glu->pyro-Glu)E'`)
	}
	for _, name := range []string{"output-path", "o"} {
		fs.StringVar(&opts.OutputDir, name, "", "Directory in which the result folder is created (default: the directory of the evidence file)")
	}
	for _, name := range []string{"abundance-column", "a"} {
		fs.StringVar(&opts.Evidence.AbundanceColumn, name, ratio.DefaultOpts.Evidence.AbundanceColumn, "Column used to normalize the conversion counts, usually 'MS/MS count' or 'Intensity'")
	}
	fs.BoolVar(&opts.PerProtein, "per-protein", ratio.DefaultOpts.PerProtein, "Also compute the ratio per protein")
	fs.BoolVar(&f.noPerProtein, "no-per-protein", false, "Same as -per-protein=false")
	fs.BoolVar(&opts.Evidence.RemoveContaminants, "remove-contaminants", ratio.DefaultOpts.Evidence.RemoveContaminants, "Remove contaminant (CON_) and reverse (REV_) proteins before the calculation")
	fs.BoolVar(&f.noRemoveContaminants, "no-remove-contaminants", false, "Same as -remove-contaminants=false")
	fs.BoolVar(&opts.Bootstrap, "bootstrap", ratio.DefaultOpts.Bootstrap, "Compute bootstrap replicates within each group")
	fs.BoolVar(&f.noBootstrap, "no-bootstrap", false, "Same as -bootstrap=false")
	fs.IntVar(&opts.BootstrapOpts.Replicates, "replicates", ratio.DefaultBootstrapOpts.Replicates, "Number of bootstrap replicates per group")
	fs.Int64Var(&f.seed, "seed", 0, "Seed for the bootstrap resampling; 0 = random seed, logged at startup")
	fs.Float64Var(&opts.BootstrapOpts.LowerQuantile, "lower-quantile", ratio.DefaultBootstrapOpts.LowerQuantile, "Probability of the lower bootstrap bound (Q95_low)")
	fs.Float64Var(&opts.BootstrapOpts.UpperQuantile, "upper-quantile", ratio.DefaultBootstrapOpts.UpperQuantile, "Probability of the upper bootstrap bound (Q95_up); 0.925 reproduces the bounds of earlier releases")
	fs.IntVar(&opts.BootstrapOpts.Parallelism, "parallelism", ratio.DefaultBootstrapOpts.Parallelism, "Maximum number of groups resampled simultaneously; 0 = runtime.NumCPU()")
	fs.BoolVar(&opts.Gzip, "gzip", ratio.DefaultOpts.Gzip, "Gzip the TSV outputs")
	fs.BoolVar(&opts.Rio, "rio-output", ratio.DefaultOpts.Rio, "Also write the bootstrap replicates as a zstd recordio archive")
}

// finalizeOpts applies the negated and derived flags to opts.
func finalizeOpts(opts *ratio.Opts, f ptmRatioFlags) {
	if f.noPerProtein {
		opts.PerProtein = false
	}
	if f.noRemoveContaminants {
		opts.Evidence.RemoveContaminants = false
	}
	if f.noBootstrap {
		opts.Bootstrap = false
	}
	if f.seed != 0 {
		opts.BootstrapOpts.Seed = f.seed
		opts.BootstrapOpts.Seeded = true
	}
}

func main() {
	opts := ratio.DefaultOpts
	f := ptmRatioFlags{}
	registerFlags(flag.CommandLine, &opts, &f)
	flag.Usage = bioPTMRatioUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		log.Fatalf("unexpected positional arguments %v; please check flag syntax", flag.Args())
	}
	if opts.EvidencePath == "" || opts.Pattern == "" {
		bioPTMRatioUsage()
		log.Fatal("-evidence-file and -ptm are required")
	}
	finalizeOpts(&opts, f)
	ctx := vcontext.Background()
	if err := ratio.Run(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("All done")
}
