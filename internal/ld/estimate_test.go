package ld

import (
	"testing"

	"github.com/stretchr/testify/assert"

	g "github.com/inodb/vibe-impute/internal/genotype"
	"github.com/inodb/vibe-impute/internal/gtdb"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []g.Code
		n       int
		dhat    float64
		r2      float64
		defined bool
	}{
		{
			name:    "perfect coupling",
			a:       []g.Code{g.HomRef, g.HomRef, g.HomAlt, g.HomAlt},
			b:       []g.Code{g.HomRef, g.HomRef, g.HomAlt, g.HomAlt},
			n:       4,
			dhat:    1.0 / 3,
			r2:      16.0 / 9,
			defined: true,
		},
		{
			name: "monomorphic partner",
			a:    []g.Code{g.HomRef, g.Het, g.HomAlt, g.HomRef},
			b:    []g.Code{g.HomRef, g.HomRef, g.HomRef, g.HomRef},
			n:    4,
			dhat: 0,
			r2:   gtdb.Undefined,
		},
		{
			name:    "missing samples skipped",
			a:       []g.Code{g.HomRef, g.Missing, g.HomAlt, g.Het},
			b:       []g.Code{g.HomRef, g.HomRef, g.HomAlt, g.Missing},
			n:       2,
			dhat:    0.5,
			r2:      4,
			defined: true,
		},
		{
			name: "one shared call",
			a:    []g.Code{g.HomRef, g.Missing, g.Het},
			b:    []g.Code{g.HomAlt, g.Het, g.Missing},
			n:    1,
			dhat: 0,
			r2:   gtdb.Undefined,
		},
		{
			name: "nothing shared",
			a:    []g.Code{g.Missing, g.Het},
			b:    []g.Code{g.Het, g.Missing},
			n:    0,
			dhat: 0,
			r2:   gtdb.Undefined,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Estimate(tt.a, tt.b)
			assert.Equal(t, tt.n, p.N)
			assert.InDelta(t, tt.dhat, p.Dhat, 1e-12)
			assert.InDelta(t, tt.r2, p.R2, 1e-12)
			assert.Equal(t, tt.defined, p.Defined)
		})
	}
}

func TestEstimateCounts(t *testing.T) {
	a := []g.Code{g.HomRef, g.Het, g.HomAlt, g.Het, g.Missing}
	b := []g.Code{g.Het, g.Het, g.HomRef, g.HomAlt, g.HomRef}
	p := Estimate(a, b)

	assert.Equal(t, [9]int{0, 1, 0, 0, 1, 1, 1, 0, 0}, p.Counts)
	assert.Equal(t, 4, p.N)
	// dosages of a: 2, 1, 0, 1
	assert.Equal(t, 4, p.Ref1)
	assert.Equal(t, 4, p.Alt1)
	// dosages of b: 1, 1, 2, 0
	assert.Equal(t, 4, p.Ref2)
	assert.Equal(t, 4, p.Alt2)
}

func TestEstimateSymmetric(t *testing.T) {
	a := []g.Code{g.HomRef, g.Het, g.HomAlt, g.Het, g.HomRef, g.Missing}
	b := []g.Code{g.Het, g.HomRef, g.HomAlt, g.HomAlt, g.HomRef, g.Het}
	ab, ba := Estimate(a, b), Estimate(b, a)
	assert.InDelta(t, ab.Dhat, ba.Dhat, 1e-12)
	assert.InDelta(t, ab.R2, ba.R2, 1e-12)
}
