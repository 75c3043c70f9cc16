package trial

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BackendStack21/mprsa-go/utils"
)

func ints(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestDivide_SmallPrimes(t *testing.T) {
	cases := [][]int64{
		{2, 2, 2, 3},
		{13, 653, 2791},
		{3, 3, 5, 7, 7, 7, 11},
		{2, 99991},
		{97},
	}
	for _, primes := range cases {
		n := utils.Product(ints(primes...))
		res := Divide(n, 100000)

		// The largest prime may be left as a cofactor proven prime by sqrt exhaustion.
		all := res.All()
		require.Len(t, all, len(primes), "n=%s", n)
		for i, p := range primes {
			assert.Equal(t, p, all[i].Int64(), "n=%s factor %d", n, i)
		}
		assert.True(t, utils.IsOne(res.Cofactor) || res.CofactorPrime, "n=%s cofactor %s", n, res.Cofactor)
		assert.Equal(t, 0, utils.Product(res.All()).Cmp(n))
	}
}

func TestDivide_SqrtStop(t *testing.T) {
	res := Divide(big.NewInt(13*653*2791), 100000)
	assert.Equal(t, ints(13, 653), res.Primes)
	assert.Equal(t, int64(2791), res.Cofactor.Int64())
	assert.True(t, res.CofactorPrime)
}

func TestDivide_Remainder(t *testing.T) {
	p, _ := new(big.Int).SetString("1606938044258990275541962092341162602522202993782792835301611", 10)
	n := new(big.Int).Mul(big.NewInt(13*653*2791), p)

	res := Divide(n, 100000)
	assert.Equal(t, []*big.Int{big.NewInt(13), big.NewInt(653), big.NewInt(2791)}, res.Primes)
	assert.Equal(t, 0, res.Cofactor.Cmp(p))
	assert.False(t, res.CofactorPrime, "a 200-bit cofactor cannot be proven by the bound")

	all := res.All()
	require.Len(t, all, 4)
	assert.Equal(t, 0, all[3].Cmp(p))
	assert.Equal(t, 0, utils.Product(all).Cmp(n))
}

func TestDivide_CofactorProvenBySqrt(t *testing.T) {
	// 1000003 is prime and 1000003 < 1009^2
	n := big.NewInt(2 * 1000003)
	res := Divide(n, 5000)
	assert.Equal(t, ints(2), res.Primes)
	assert.Equal(t, int64(1000003), res.Cofactor.Int64())
	assert.True(t, res.CofactorPrime)

	// The same cofactor with a bound too small to reach its square root.
	res = Divide(n, 100)
	assert.False(t, res.CofactorPrime)
}

func TestDivide_BoundLimitsCandidates(t *testing.T) {
	n := big.NewInt(3 * 101 * 103)
	res := Divide(n, 100)
	assert.Equal(t, ints(3), res.Primes)
	assert.Equal(t, int64(101*103), res.Cofactor.Int64())
	assert.False(t, res.CofactorPrime)
}

func TestDivide_Idempotent(t *testing.T) {
	n := utils.Product(ints(2, 3, 3, 13, 653, 2791, 1000003, 1000033))
	first := Divide(n, 100000)
	second := Divide(first.Cofactor, 100000)

	assert.Empty(t, second.Primes, "no factor below the bound may be found twice")
	assert.Equal(t, 0, second.Cofactor.Cmp(first.Cofactor))
}

func TestDivide_DoesNotMutateInput(t *testing.T) {
	n := big.NewInt(360)
	Divide(n, 100)
	assert.Equal(t, int64(360), n.Int64())
}

func TestDivide_EdgeCases(t *testing.T) {
	res := Divide(big.NewInt(1), 100)
	assert.Empty(t, res.Primes)
	assert.True(t, utils.IsOne(res.Cofactor))
	assert.False(t, res.CofactorPrime)
	assert.Empty(t, res.All())

	res = Divide(big.NewInt(7), 2)
	assert.Empty(t, res.Primes)
	assert.True(t, res.CofactorPrime)

	res = Divide(big.NewInt(12), 1)
	assert.Empty(t, res.Primes, "bound below 2 tries nothing")
	assert.Equal(t, int64(12), res.Cofactor.Int64())
	assert.False(t, res.CofactorPrime)

	assert.Panics(t, func() { Divide(big.NewInt(0), 10) })
	assert.Panics(t, func() { Divide(big.NewInt(-6), 10) })
}
