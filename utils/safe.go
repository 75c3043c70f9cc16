// Package utils provides utility functions for mprsa.
// This file contains limits and validation helpers that keep every loop in
// the pipeline bounded and reject inputs large enough to be a DoS.

package utils

import (
	"math/big"

	"github.com/pkg/errors"
)

// Upper bounds on caller-supplied sizes.
const (
	// MaxModulusBits is the largest modulus the pipeline accepts.
	MaxModulusBits = 1 << 15 // 32768 bits

	// MaxTrialBound is the largest trial division bound.
	MaxTrialBound = 1 << 32

	// MaxRhoIterations is the largest per-attempt rho budget.
	MaxRhoIterations = 1 << 28

	// MaxRhoRetries is the largest number of extra rho attempts.
	MaxRhoRetries = 64

	// MaxFactorCount is the maximum number of factors accepted from a provider.
	MaxFactorCount = 1000

	// MaxDecodeSkip is the largest number of leading bytes the decoder may skip.
	MaxDecodeSkip = 4096

	// MaxECMB1 is the largest stage-1 bound for in-process ECM.
	MaxECMB1 = 1 << 24
)

var (
	// ErrExceedsLimit indicates a value exceeds the allowed limit.
	ErrExceedsLimit = errors.New("value exceeds allowed limit")

	// ErrInvalidLength indicates an invalid length value.
	ErrInvalidLength = errors.New("invalid length")
)

// CheckLength validates that length is within [0, maxAllowed].
func CheckLength(length, maxAllowed int) error {
	if length < 0 {
		return ErrInvalidLength
	}
	if length > maxAllowed {
		return ErrExceedsLimit
	}
	return nil
}

// CheckBitLength validates that n is positive and at most maxBits long.
func CheckBitLength(n *big.Int, maxBits int) error {
	if n == nil || n.Sign() <= 0 {
		return errors.Wrap(ErrInvalidLength, "integer must be positive")
	}
	if n.BitLen() > maxBits {
		return errors.Wrapf(ErrExceedsLimit, "integer has %d bits, limit %d", n.BitLen(), maxBits)
	}
	return nil
}
