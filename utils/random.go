package utils

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// RandReader is the entropy source for key generation. Tests may replace it.
var RandReader io.Reader = rand.Reader

// RandomPrime returns a random prime of exactly bits bits.
func RandomPrime(bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, errors.Errorf("prime size must be at least 2 bits, got %d", bits)
	}
	p, err := rand.Prime(RandReader, bits)
	if err != nil {
		return nil, errors.Wrapf(err, "generate %d-bit prime", bits)
	}
	return p, nil
}
