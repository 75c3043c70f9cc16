package test

import (
	"context"
	"math/big"
	"testing"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/core"
	"github.com/BackendStack21/mprsa-go/decode"
	"github.com/BackendStack21/mprsa-go/factorize"
	"github.com/BackendStack21/mprsa-go/keygen"
	"github.com/BackendStack21/mprsa-go/recovery"
	"github.com/BackendStack21/mprsa-go/strategies/ecm"
	"github.com/BackendStack21/mprsa-go/strategies/rho"
	"github.com/BackendStack21/mprsa-go/strategies/trial"
)

const benchP = "1606938044258990275541962092341162602522202993782792835301611"

func benchModulus(b *testing.B) *big.Int {
	p, ok := new(big.Int).SetString(benchP, 10)
	if !ok {
		b.Fatal("bad constant")
	}
	n := new(big.Int).Mul(big.NewInt(13*653*2791), p)
	return n
}

// =============================================================================
// Strategy Benchmarks
// =============================================================================

func BenchmarkTrial_Divide_1e5(b *testing.B) {
	n := benchModulus(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		trial.Divide(n, 100000)
	}
}

func BenchmarkRho_Find_Semiprime(b *testing.B) {
	n := new(big.Int).Mul(big.NewInt(1000003), big.NewInt(1000033))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if res := rho.Find(n, 100000, 1); !res.OK() {
			b.Fatal("rho failed")
		}
	}
}

func BenchmarkLenstra_SmallFactor(b *testing.B) {
	m61, _ := new(big.Int).SetString("2305843009213693951", 10)
	n := new(big.Int).Mul(big.NewInt(1009), m61)
	l := &ecm.Lenstra{Curves: 10, B1: 2000}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := l.FindFactors(context.Background(), n, 0); err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// Pipeline Benchmarks
// =============================================================================

func BenchmarkFactorize_Quick(b *testing.B) {
	n := benchModulus(b)
	orch, err := factorize.New(core.QuickParams, factorize.WithProvider(ecm.Noop{}))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := orch.Factorize(context.Background(), n); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecoverAndDecrypt(b *testing.B) {
	key, err := keygen.Generate(keygen.DefaultSpec)
	if err != nil {
		b.Fatal(err)
	}
	m0 := new(big.Int).SetBytes([]byte("HTB{bench}"))
	c, err := recovery.Encrypt(&key.PublicKey, m0)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		k, err := recovery.RecoverKeyFromValues(key.N, key.Primes, key.E)
		if err != nil {
			b.Fatal(err)
		}
		m, err := recovery.Decrypt(k, c)
		if err != nil {
			b.Fatal(err)
		}
		decode.Decode(m, mprsa.DecodeParams{MaxSkip: 50, PrintableRatio: 0.8})
	}
}
