package trial

import (
	"math/big"
	"testing"

	"github.com/BackendStack21/mprsa-go/utils"
)

// FuzzDivide checks the product invariant on arbitrary inputs.
func FuzzDivide(f *testing.F) {
	f.Add(uint64(1), int64(10))
	f.Add(uint64(8051), int64(100))
	f.Add(uint64(1<<63), int64(2))
	f.Add(uint64(18446744073709551557), int64(1000))

	f.Fuzz(func(t *testing.T, v uint64, bound int64) {
		if v == 0 || bound > 1<<16 {
			return
		}
		n := new(big.Int).SetUint64(v)
		res := Divide(n, bound)
		if utils.Product(res.All()).Cmp(n) != 0 {
			t.Fatalf("product of factors of %d does not match", v)
		}
		for _, p := range res.Primes {
			if utils.TestPrimality(p) != utils.ProvenPrime {
				t.Fatalf("%s reported as prime factor of %d", p, v)
			}
		}
		if res.CofactorPrime && utils.TestPrimality(res.Cofactor) != utils.ProvenPrime {
			t.Fatalf("cofactor %s of %d wrongly proven prime", res.Cofactor, v)
		}
	})
}
