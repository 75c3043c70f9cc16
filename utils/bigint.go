package utils

import (
	"math/big"
	"strings"

	"github.com/cznic/mathutil"
	"github.com/pkg/errors"
	"github.com/remyoudompheng/bigfft"
)

// Primality is the outcome of a primality test.
type Primality int

const (
	Composite Primality = iota
	ProbablePrime
	ProvenPrime
)

// MillerRabinRounds is the number of random bases used above 64 bits.
const MillerRabinRounds = 20

var one = big.NewInt(1)

// ParseInt parses a decimal integer, or a hexadecimal one with a 0x prefix.
// Underscores and surrounding whitespace are ignored.
func ParseInt(s string) (*big.Int, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	base := 10
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		clean, base = clean[2:], 16
	}
	if clean == "" {
		return nil, errors.New("empty integer")
	}
	n, ok := new(big.Int).SetString(clean, base)
	if !ok {
		return nil, errors.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// Product multiplies values using a balanced product tree.
// The empty product is 1. Inputs are not modified.
func Product(values []*big.Int) *big.Int {
	switch len(values) {
	case 0:
		return big.NewInt(1)
	case 1:
		return new(big.Int).Set(values[0])
	}
	mid := len(values) / 2
	return bigfft.Mul(Product(values[:mid]), Product(values[mid:]))
}

// TestPrimality classifies n. Values below 2^64 are decided exactly.
func TestPrimality(n *big.Int) Primality {
	if n == nil || n.Cmp(one) <= 0 {
		return Composite
	}
	if n.IsUint64() {
		if mathutil.IsPrimeUint64(n.Uint64()) {
			return ProvenPrime
		}
		return Composite
	}
	if n.ProbablyPrime(MillerRabinRounds) {
		return ProbablePrime
	}
	return Composite
}

// IsOne reports whether n == 1.
func IsOne(n *big.Int) bool {
	return n != nil && n.Cmp(one) == 0
}
