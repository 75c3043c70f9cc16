// Package keygen generates deliberately weak multi-prime RSA keys: a few
// tiny primes next to larger random ones. The keys exist to exercise the
// recovery pipeline and must never protect anything.
package keygen

import (
	"math/big"

	"github.com/pkg/errors"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/recovery"
	"github.com/BackendStack21/mprsa-go/utils"
)

// MaxAttempts bounds how often a random prime is redrawn.
const MaxAttempts = 100

// MaxPrimeBits is the largest random prime size accepted.
const MaxPrimeBits = 4096

// Spec describes the shape of a weak key.
type Spec struct {
	SmallPrimes []int64 `json:"small_primes"` // Fixed primes, used as given
	PrimeBits   []int   `json:"prime_bits"`   // One random prime per entry
	E           int64   `json:"e"`
}

// DefaultSpec mirrors the challenge modulus shape at a size the pipeline
// handles without an external finder.
var DefaultSpec = Spec{
	SmallPrimes: []int64{13, 653, 2791},
	PrimeBits:   []int{200},
	E:           mprsa.DefaultExponent,
}

// Generate builds a key following spec. Primes are pairwise distinct and
// each satisfies gcd(e, p - 1) = 1, so the key always decrypts.
func Generate(spec Spec) (*mprsa.PrivateKey, error) {
	if spec.E < 3 || spec.E%2 == 0 {
		return nil, errors.Errorf("public exponent must be odd and at least 3, got %d", spec.E)
	}
	if len(spec.SmallPrimes)+len(spec.PrimeBits) < 2 {
		return nil, errors.New("a key needs at least two primes")
	}
	if err := utils.CheckLength(len(spec.SmallPrimes)+len(spec.PrimeBits), utils.MaxFactorCount); err != nil {
		return nil, errors.Wrap(err, "prime count")
	}
	e := big.NewInt(spec.E)

	var primes []*big.Int
	seen := make(map[string]bool)
	usable := func(p *big.Int) bool {
		if seen[p.String()] {
			return false
		}
		g := new(big.Int).Sub(p, big.NewInt(1))
		return g.GCD(nil, nil, g, e).Cmp(big.NewInt(1)) == 0
	}

	for _, v := range spec.SmallPrimes {
		p := big.NewInt(v)
		if utils.TestPrimality(p) != utils.ProvenPrime {
			return nil, errors.Errorf("%d is not prime", v)
		}
		if !usable(p) {
			return nil, errors.Errorf("prime %d is repeated or shares a factor with e-1", v)
		}
		seen[p.String()] = true
		primes = append(primes, p)
	}

	for _, bits := range spec.PrimeBits {
		if bits < 2 || bits > MaxPrimeBits {
			return nil, errors.Errorf("prime size must be in [2, %d], got %d", MaxPrimeBits, bits)
		}
		p, err := drawPrime(bits, usable)
		if err != nil {
			return nil, err
		}
		seen[p.String()] = true
		primes = append(primes, p)
	}

	return recovery.RecoverKeyFromValues(utils.Product(primes), primes, e)
}

func drawPrime(bits int, usable func(*big.Int) bool) (*big.Int, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		p, err := utils.RandomPrime(bits)
		if err != nil {
			return nil, err
		}
		if usable(p) {
			return p, nil
		}
	}
	return nil, errors.Errorf("no usable %d-bit prime after %d attempts", bits, MaxAttempts)
}
