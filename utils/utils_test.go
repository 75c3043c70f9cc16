package utils

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	n, err := ParseInt(" 1_000_003 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1000003), n.Int64())

	n, err = ParseInt("0xff")
	require.NoError(t, err)
	assert.Equal(t, int64(255), n.Int64())

	for _, bad := range []string{"", "0x", "12a", "  "} {
		_, err := ParseInt(bad)
		assert.Error(t, err, "ParseInt(%q) should fail", bad)
	}
}

func TestProduct(t *testing.T) {
	assert.Equal(t, int64(1), Product(nil).Int64())

	vals := []*big.Int{big.NewInt(13), big.NewInt(653), big.NewInt(2791)}
	assert.Equal(t, int64(13*653*2791), Product(vals).Int64())
	// inputs untouched
	assert.Equal(t, int64(13), vals[0].Int64())

	single := []*big.Int{big.NewInt(7)}
	p := Product(single)
	p.Add(p, one)
	assert.Equal(t, int64(7), single[0].Int64())
}

func TestProduct_Large(t *testing.T) {
	// enough limbs to cross the FFT threshold
	vals := make([]*big.Int, 64)
	want := big.NewInt(1)
	for i := range vals {
		v := new(big.Int).Lsh(big.NewInt(int64(2*i+3)), 4000)
		v.Add(v, big.NewInt(int64(i)))
		vals[i] = v
		want.Mul(want, v)
	}
	assert.Equal(t, 0, Product(vals).Cmp(want))
}

func TestTestPrimality(t *testing.T) {
	cases := []struct {
		n    string
		want Primality
	}{
		{"0", Composite},
		{"1", Composite},
		{"2", ProvenPrime},
		{"13", ProvenPrime},
		{"8051", Composite},
		{"2305843009213693951", ProvenPrime},
		{"1223766773213688200839", ProbablePrime},
		{"1606938044258990275541962092341162602522202993782792835301611", ProbablePrime},
		{"1606938044258990275541962092341162602522202993782792835301613", Composite},
	}
	for _, tc := range cases {
		n, _ := new(big.Int).SetString(tc.n, 10)
		assert.Equal(t, tc.want, TestPrimality(n), "TestPrimality(%s)", tc.n)
	}
	assert.Equal(t, Composite, TestPrimality(nil))
}

func TestCheckBitLength(t *testing.T) {
	assert.NoError(t, CheckBitLength(big.NewInt(255), 8))
	assert.ErrorIs(t, CheckBitLength(big.NewInt(256), 8), ErrExceedsLimit)
	assert.ErrorIs(t, CheckBitLength(big.NewInt(0), 8), ErrInvalidLength)
	assert.ErrorIs(t, CheckBitLength(nil, 8), ErrInvalidLength)
}

func TestCheckLength(t *testing.T) {
	assert.NoError(t, CheckLength(0, 10))
	assert.Equal(t, ErrInvalidLength, CheckLength(-1, 10))
	assert.Equal(t, ErrExceedsLimit, CheckLength(11, 10))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(big.NewInt(8051))
	b := Fingerprint(big.NewInt(8051))
	c := Fingerprint(big.NewInt(8053))
	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Empty(t, Fingerprint(nil))
}

func TestShake256WithDomain(t *testing.T) {
	a := Shake256WithDomain("d1", []byte("seed"), 48)
	b := Shake256WithDomain("d2", []byte("seed"), 48)
	assert.Len(t, a, 48)
	assert.False(t, bytes.Equal(a, b), "domains must separate outputs")
	assert.Panics(t, func() { Shake256WithDomain(string(make([]byte, 256)), nil, 1) })
}

func TestSampleBelow(t *testing.T) {
	n := big.NewInt(1009)
	for i := byte(0); i < 50; i++ {
		v := SampleBelow("test", []byte{i}, n)
		require.True(t, v.Sign() >= 0 && v.Cmp(n) < 0, "sample %s out of range", v)
	}
	assert.Equal(t, 0, SampleBelow("x", []byte{1}, n).Cmp(SampleBelow("x", []byte{1}, n)))
}

func TestRandomPrime(t *testing.T) {
	p, err := RandomPrime(64)
	require.NoError(t, err)
	assert.Equal(t, 64, p.BitLen())
	assert.Equal(t, ProvenPrime, TestPrimality(p))

	_, err = RandomPrime(1)
	assert.Error(t, err)
}
