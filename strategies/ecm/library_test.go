package ecm

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mprsa "github.com/BackendStack21/mprsa-go"
)

func TestLibrary_SplitsSemiprime(t *testing.T) {
	// 5591617 * 6292343
	n := big.NewInt(35184372088631)
	fs, err := (&Library{}).FindFactors(context.Background(), n, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, 0, new(big.Int).Mul(fs[0], fs[1]).Cmp(n))
	for _, f := range fs {
		assert.True(t, f.Cmp(big.NewInt(5591617)) == 0 || f.Cmp(big.NewInt(6292343)) == 0, "unexpected factor %s", f)
	}
}

func TestLibrary_SplitsCompletely(t *testing.T) {
	// 2^2 * 1009 * 5591617 * 6292343
	n := big.NewInt(35184372088631)
	n.Mul(n, big.NewInt(4*1009))
	fs, err := (&Library{MaxBits: 80}).FindFactors(context.Background(), n, 10*time.Second)
	require.NoError(t, err)
	prod := big.NewInt(1)
	for _, f := range fs {
		assert.True(t, f.ProbablyPrime(20), "%s is not prime", f)
		prod.Mul(prod, f)
	}
	assert.Equal(t, 0, prod.Cmp(n))
	assert.Len(t, fs, 5)
}

func TestLibrary_SkipsLargeAndPrime(t *testing.T) {
	l := NewLibrary(mprsa.LargeFactorParams{ThresholdBits: 40})
	assert.Equal(t, 40, l.MaxBits)
	assert.Equal(t, "lattigo-ecm", l.Name())

	fs, err := l.FindFactors(context.Background(), big.NewInt(35184372088631), time.Second)
	assert.NoError(t, err)
	assert.Empty(t, fs, "46-bit input is above the cap")

	fs, err = l.FindFactors(context.Background(), big.NewInt(1000003), time.Second)
	assert.NoError(t, err)
	assert.Empty(t, fs)
}

func TestLibrary_InChain(t *testing.T) {
	p := mustInt(t, bigP)
	n := new(big.Int).Mul(p, big.NewInt(35184372088631))
	chain := Chain{&Known{Factors: []*big.Int{p}}, &Library{}}
	fs, err := chain.FindFactors(context.Background(), n, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, fs, 3)
	assert.Equal(t, 0, fs[0].Cmp(p))
}
