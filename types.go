// Package mprsa recovers plaintexts encrypted under deliberately weak
// multi-prime RSA moduli.
//
// The moduli this package targets are products of many primes, some of them
// tiny and at most one of cryptographically significant size. Recovery runs a
// layered factorization pipeline, rebuilds the private exponent from the
// factor multiset and decrypts the intercepted ciphertext.
//
// WARNING: results are only as good as the factorization. A residual accepted
// as a probable prime is flagged, never silently trusted.
package mprsa

import (
	"math/big"
	"time"

	"github.com/BackendStack21/mprsa-go/utils"
)

// Profile names a parameter set for the factorization pipeline.
type Profile string

const (
	// ProfileQuick keeps every budget small; suitable for tests and toy moduli.
	ProfileQuick Profile = "quick"
	// ProfileStandard mirrors the budgets the pipeline was tuned with.
	ProfileStandard Profile = "standard"
	// ProfileThorough spends more time on rho and the large-factor finder.
	ProfileThorough Profile = "thorough"
)

// =============================================================================
// Parameter Types
// =============================================================================

// RhoParams contains parameters for Pollard's rho.
type RhoParams struct {
	MaxIterations int `json:"max_iterations"` // Steps per attempt
	Retries       int `json:"retries"`        // Extra attempts with x^2 + c, c = 2, 3, ...
}

// TrialParams contains parameters for trial division.
type TrialParams struct {
	Bound int64 `json:"bound"` // Largest candidate divisor
}

// LargeFactorParams contains parameters for the large-factor finder stage.
type LargeFactorParams struct {
	ThresholdBits int    `json:"threshold_bits"` // Residuals above this go to the finder
	TimeoutSecs   int    `json:"timeout_secs"`   // Budget for one finder invocation
	Binary        string `json:"binary"`         // GMP-ECM executable
	Curves        int    `json:"curves"`         // Number of curves to try
	B1            uint64 `json:"b1"`             // Stage-1 bound
	LocalCurves   int    `json:"local_curves"`   // Curves for in-process ECM
	LocalB1       uint64 `json:"local_b1"`       // Stage-1 bound for in-process ECM
	Sweeps        int    `json:"sweeps"`         // Rho runs on small residuals
}

// Timeout returns the finder budget as a duration.
func (p LargeFactorParams) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// DecodeParams contains parameters for plaintext decoding.
type DecodeParams struct {
	MaxSkip        int     `json:"max_skip"`        // Leading bytes to try skipping
	PrintableRatio float64 `json:"printable_ratio"` // Minimum printable share for a confident decode
}

// Params contains the complete parameter set for a run.
type Params struct {
	Profile Profile           `json:"profile"`
	Rho     RhoParams         `json:"rho"`
	Trial   TrialParams       `json:"trial"`
	Large   LargeFactorParams `json:"large"`
	Decode  DecodeParams      `json:"decode"`
}

// =============================================================================
// Factor Types
// =============================================================================

// FactorKind records how much is known about a factor's primality.
type FactorKind int

const (
	// KindCertified marks a factor proven prime.
	KindCertified FactorKind = iota
	// KindProbable marks a factor that passed probabilistic tests only.
	KindProbable
	// KindComposite marks a remainder known to be composite.
	KindComposite
)

func (k FactorKind) String() string {
	switch k {
	case KindCertified:
		return "certified"
	case KindProbable:
		return "probable"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// MarshalText lets FactorKind appear by name in JSON reports.
func (k FactorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Strategy names the pipeline stage that produced a factor.
type Strategy string

const (
	StrategyRho         Strategy = "rho"
	StrategyTrial       Strategy = "trial"
	StrategyLargeFactor Strategy = "large-factor"
	StrategyResidual    Strategy = "residual"
)

// Factor is one entry of a factor multiset.
type Factor struct {
	Value  *big.Int   `json:"value"`
	Kind   FactorKind `json:"kind"`
	Source Strategy   `json:"source"`
}

// StageResult is the output of one pipeline stage: the factors it discovered
// and the cofactor left for the next stage.
type StageResult struct {
	Factors  []Factor
	Cofactor *big.Int
}

// Factorization is the factor multiset of a modulus, in discovery order.
type Factorization struct {
	Modulus     *big.Int `json:"modulus"`
	Factors     []Factor `json:"factors"`
	Cofactor    *big.Int `json:"cofactor"` // Always 1 once the residual is accepted
	Fingerprint string   `json:"fingerprint"`
}

// Values returns the factor values in discovery order.
func (f *Factorization) Values() []*big.Int {
	out := make([]*big.Int, len(f.Factors))
	for i, fac := range f.Factors {
		out[i] = fac.Value
	}
	return out
}

// Product returns the product of all factors and the cofactor.
func (f *Factorization) Product() *big.Int {
	vals := f.Values()
	if f.Cofactor != nil {
		vals = append(vals, f.Cofactor)
	}
	return utils.Product(vals)
}

// Verify reports whether the multiset multiplies back to the modulus.
func (f *Factorization) Verify() bool {
	return f.Modulus != nil && f.Product().Cmp(f.Modulus) == 0
}

// Complete reports whether every factor is certified prime and nothing is left over.
func (f *Factorization) Complete() bool {
	if f.Cofactor != nil && f.Cofactor.Cmp(big.NewInt(1)) != 0 {
		return false
	}
	for _, fac := range f.Factors {
		if fac.Kind != KindCertified {
			return false
		}
	}
	return true
}

// Provisional reports whether any factor was accepted without proof.
func (f *Factorization) Provisional() bool {
	for _, fac := range f.Factors {
		if fac.Kind == KindProbable {
			return true
		}
	}
	return false
}

// HasComposite reports whether the multiset contains a known composite entry.
func (f *Factorization) HasComposite() bool {
	for _, fac := range f.Factors {
		if fac.Kind == KindComposite {
			return true
		}
	}
	return false
}

// =============================================================================
// Key Types
// =============================================================================

// PublicKey is a multi-prime RSA public key.
type PublicKey struct {
	N *big.Int `json:"n"`
	E *big.Int `json:"e"`
}

// PrivateKey is a recovered (or generated) multi-prime RSA private key.
type PrivateKey struct {
	PublicKey
	D      *big.Int   `json:"d"`
	Phi    *big.Int   `json:"phi"`
	Primes []*big.Int `json:"primes"`
}
