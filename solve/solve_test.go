package solve

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/core"
	"github.com/BackendStack21/mprsa-go/decode"
	"github.com/BackendStack21/mprsa-go/keygen"
	"github.com/BackendStack21/mprsa-go/recovery"
	"github.com/BackendStack21/mprsa-go/strategies/ecm"
)

const (
	vectorN = "38072860088081360541370323919458604967875448568893960305441173799189"
	vectorC = "11970596446221621961442726212428320069118604083576431252498175118755"
	m61     = "2305843009213693951"
)

func bi(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return n
}

func TestSolve_EndToEnd(t *testing.T) {
	in := Input{N: bi(t, vectorN), E: big.NewInt(65537), C: bi(t, vectorC)}

	res, err := Solve(context.Background(), in, core.QuickParams, WithProvider(ecm.Noop{}))
	require.NoError(t, err)

	assert.Equal(t, []byte("HTB{mult1_pr1m3_w34k_N}"), res.Plaintext.Bytes())
	assert.Equal(t, "HTB{mult1_pr1m3_w34k_N}", res.Decoded.Text)
	assert.Equal(t, decode.MethodStrict, res.Decoded.Method)
	assert.Len(t, res.Factorization.Factors, 4)
	assert.True(t, res.Factorization.Provisional())
	assert.Contains(t, res.Warnings, "some factors are only probable primes")
}

func TestSolve_GeneratedKey(t *testing.T) {
	key, err := keygen.Generate(keygen.Spec{SmallPrimes: []int64{13, 653, 2791}, PrimeBits: []int{20, 160}, E: 65537})
	require.NoError(t, err)

	m0 := new(big.Int).SetBytes([]byte("flag{generated}"))
	c, err := recovery.Encrypt(&key.PublicKey, m0)
	require.NoError(t, err)

	params := core.QuickParams
	params.Large.ThresholdBits = 256
	res, err := Solve(context.Background(), Input{N: key.N, E: key.E, C: c}, params, WithProvider(ecm.Noop{}))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Plaintext.Cmp(m0))
	assert.Equal(t, 0, res.Key.D.Cmp(key.D))
}

func TestSolve_CompositeResidual(t *testing.T) {
	p := bi(t, m61)
	q := new(big.Int).Lsh(big.NewInt(1), 127)
	q.Sub(q, big.NewInt(1)) // M127
	r, _ := new(big.Int).SetString("170141183460469231731687303715884105757", 10)
	n := new(big.Int).Mul(big.NewInt(1009), p)
	n.Mul(n, q).Mul(n, r)

	in := Input{N: n, E: big.NewInt(65537), C: big.NewInt(2)}
	res, err := Solve(context.Background(), in, core.QuickParams, WithProvider(ecm.Noop{}))
	require.ErrorIs(t, err, recovery.ErrCompositeFactor)
	require.NotNil(t, res)
	assert.True(t, res.Factorization.HasComposite())
	assert.Nil(t, res.Key)

	res, err = Solve(context.Background(), in, core.QuickParams, WithProvider(ecm.Noop{}), AllowComposite())
	if err == nil {
		assert.NotEmpty(t, res.Warnings)
		assert.NotNil(t, res.Plaintext)
	} else {
		assert.ErrorIs(t, err, recovery.ErrNotInvertible)
	}
}

func TestSolve_IntegrityFailure(t *testing.T) {
	// phi(3 * 5) = 8 shares 4 with e.
	in := Input{N: big.NewInt(15), E: big.NewInt(4), C: big.NewInt(2)}
	res, err := Solve(context.Background(), in, core.QuickParams, WithProvider(ecm.Noop{}))
	require.ErrorIs(t, err, recovery.ErrNotInvertible)
	var ie *recovery.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, int64(4), ie.GCD.Int64())
	assert.True(t, res.Factorization.Complete())
}

func TestSolve_KnownFactors(t *testing.T) {
	key, err := keygen.Generate(keygen.Spec{SmallPrimes: []int64{13}, PrimeBits: []int{96, 96}, E: 65537})
	require.NoError(t, err)
	m0 := big.NewInt(424242)
	c, err := recovery.Encrypt(&key.PublicKey, m0)
	require.NoError(t, err)

	in := Input{N: key.N, E: key.E, C: c, KnownFactors: []*big.Int{key.Primes[1]}}
	res, err := Solve(context.Background(), in, core.QuickParams, WithProvider(ecm.Noop{}))
	require.NoError(t, err)
	assert.Equal(t, int64(424242), res.Plaintext.Int64())
	assert.False(t, res.Decoded.Confident)
}

func TestSolve_InvalidInput(t *testing.T) {
	ctx := context.Background()
	for _, in := range []Input{
		{},
		{N: big.NewInt(1), E: big.NewInt(3), C: big.NewInt(0)},
		{N: big.NewInt(15), E: big.NewInt(0), C: big.NewInt(0)},
		{N: big.NewInt(15), E: big.NewInt(3), C: big.NewInt(15)},
		{N: big.NewInt(15), E: big.NewInt(3), C: big.NewInt(-1)},
	} {
		_, err := Solve(ctx, in, core.QuickParams)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err := Solve(ctx, Input{N: big.NewInt(15), E: big.NewInt(3), C: big.NewInt(2)}, mprsa.Params{})
	assert.Error(t, err)
}
