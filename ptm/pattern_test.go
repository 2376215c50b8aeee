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

package ptm

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestParse(t *testing.T) {
	type result struct {
		aa        byte
		marker    string
		name      string
		nTerminal bool
	}
	doTest := func(s string) result {
		p, err := Parse(s)
		assert.NoError(t, err)
		expect.EQ(t, p.String(), s)
		return result{p.AminoAcid, p.Marker, p.Name(), p.NTerminal}
	}
	expect.EQ(t, doTest("Q(Deamidation (NQ))"), result{'Q', "(Deamidation (NQ))", "Deamidation (NQ)", false})
	expect.EQ(t, doTest("M(Oxidation (M))"), result{'M', "(Oxidation (M))", "Oxidation (M)", false})
	expect.EQ(t, doTest("R(Arg->Orn)"), result{'R', "(Arg->Orn)", "Arg->Orn", false})
	expect.EQ(t, doTest("(Glu->pyro-Glu)E"), result{'E', "(Glu->pyro-Glu)", "Glu->pyro-Glu", true})
	expect.EQ(t, doTest("(Gln->pyro-Glu)Q"), result{'Q', "(Gln->pyro-Glu)", "Gln->pyro-Glu", true})
	// Any marker-first pattern is N-terminal only, whatever the modification is.
	expect.EQ(t, doTest("(Phospho (ST))S"), result{'S', "(Phospho (ST))", "Phospho (ST)", true})
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"Q(Deamidation (NQ)", "(Glu->pyro-Glu))E", "Q", ""} {
		_, err := Parse(s)
		expect.True(t, errors.Is(errors.Invalid, err), "pattern %q: %v", s, err)
	}
}

func TestCountSites(t *testing.T) {
	pyro := MustParse("(Glu->pyro-Glu)E")
	expect.EQ(t, pyro.CountSites("EDCBA"), 1)
	expect.EQ(t, pyro.CountSites("ADCBE"), 0)
	// Only the N-terminal residue counts, even if it occurs elsewhere.
	expect.EQ(t, pyro.CountSites("EEAEK"), 1)
	expect.EQ(t, pyro.CountSites(""), 0)

	deam := MustParse("Q(Deamidation (NQ))")
	expect.EQ(t, deam.CountSites("AQQKQ"), 3)
	expect.EQ(t, deam.CountSites("QAK"), 1)
	expect.EQ(t, deam.CountSites("AKR"), 0)
}

func TestCountConversions(t *testing.T) {
	deam := MustParse("Q(Deamidation (NQ))")
	expect.EQ(t, deam.CountConversions("ABQ(Deamidation (NQ))CD"), 1)
	expect.EQ(t, deam.CountConversions("_Q(Deamidation (NQ))AQ(Deamidation (NQ))K_"), 2)
	expect.EQ(t, deam.CountConversions("_AQK_"), 0)
	// Regexp interpretation of the pattern would match "QDeamidation NQ".
	expect.EQ(t, deam.CountConversions("QDeamidation NQ"), 0)

	pyro := MustParse("(Glu->pyro-Glu)E")
	expect.EQ(t, pyro.CountConversions("_(Glu->pyro-Glu)EDCBA_"), 1)
	expect.EQ(t, pyro.CountConversions("_EDCBA_"), 0)
}
