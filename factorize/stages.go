package factorize

import (
	"context"
	"log"
	"math/big"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/strategies/ecm"
	"github.com/BackendStack21/mprsa-go/strategies/rho"
	"github.com/BackendStack21/mprsa-go/strategies/trial"
	"github.com/BackendStack21/mprsa-go/utils"
)

// Stage functions never modify their inputs. Each returns the factors it
// discovered and the cofactor left for the next stage; the product of both
// always equals the stage input.

// classify turns a value into a factor when it is known or believed prime.
// It returns false for composites.
func classify(v *big.Int, source mprsa.Strategy) (mprsa.Factor, bool) {
	f := mprsa.Factor{Value: new(big.Int).Set(v), Source: source}
	switch utils.TestPrimality(v) {
	case utils.ProvenPrime:
		f.Kind = mprsa.KindCertified
	case utils.ProbablePrime:
		f.Kind = mprsa.KindProbable
	default:
		return mprsa.Factor{}, false
	}
	return f, true
}

// absorb splits a divisor found by some strategy into prime factors. Small
// primes are stripped by trial division so that a composite divisor never
// enters the multiset as a prime. Whatever cannot be classified is returned
// as leftover (1 when nothing is left).
func absorb(d *big.Int, bound int64, source mprsa.Strategy) ([]mprsa.Factor, *big.Int) {
	t := trial.Divide(d, bound)
	factors := make([]mprsa.Factor, 0, len(t.Primes)+1)
	for _, p := range t.Primes {
		factors = append(factors, mprsa.Factor{Value: p, Kind: mprsa.KindCertified, Source: source})
	}

	if utils.IsOne(t.Cofactor) {
		return factors, big.NewInt(1)
	}
	if t.CofactorPrime {
		f := mprsa.Factor{Value: new(big.Int).Set(t.Cofactor), Kind: mprsa.KindCertified, Source: source}
		return append(factors, f), big.NewInt(1)
	}
	if f, ok := classify(t.Cofactor, source); ok {
		return append(factors, f), big.NewInt(1)
	}
	return factors, new(big.Int).Set(t.Cofactor)
}

// RhoStage runs Pollard's rho on n and peels off the factor it finds. A
// failed search passes n through unchanged.
func RhoStage(n *big.Int, params mprsa.RhoParams, bound int64) (mprsa.StageResult, rho.Result) {
	res := rho.FindWithRetries(n, params)
	if !res.OK() {
		return mprsa.StageResult{Cofactor: new(big.Int).Set(n)}, res
	}

	factors, leftover := absorb(res.Factor, bound, mprsa.StrategyRho)
	cof := new(big.Int).Quo(n, res.Factor)
	cof.Mul(cof, leftover)
	return mprsa.StageResult{Factors: factors, Cofactor: cof}, res
}

// TrialStage strips every prime <= bound from n, with multiplicity. A
// remainder proven prime by exhausting its square root is accepted as a
// certified factor.
func TrialStage(n *big.Int, bound int64) mprsa.StageResult {
	t := trial.Divide(n, bound)
	out := mprsa.StageResult{Cofactor: t.Cofactor}
	for _, p := range t.Primes {
		out.Factors = append(out.Factors, mprsa.Factor{Value: p, Kind: mprsa.KindCertified, Source: mprsa.StrategyTrial})
	}
	if t.CofactorPrime {
		out.Factors = append(out.Factors, mprsa.Factor{
			Value: new(big.Int).Set(t.Cofactor), Kind: mprsa.KindCertified, Source: mprsa.StrategyTrial,
		})
		out.Cofactor = big.NewInt(1)
	}
	return out
}

// LargeFactorStage handles a composite cofactor that survived trial
// division. Cofactors above the size threshold are handed to the provider;
// composites at or below it get bounded rho sweeps. Provider errors are
// returned for logging only: the stage result is valid either way.
func LargeFactorStage(ctx context.Context, n *big.Int, params mprsa.Params, provider ecm.Provider, logger *log.Logger) (mprsa.StageResult, error) {
	if utils.IsOne(n) || utils.TestPrimality(n) != utils.Composite {
		return mprsa.StageResult{Cofactor: new(big.Int).Set(n)}, nil
	}

	parts := []*big.Int{new(big.Int).Set(n)}
	var providerErr error
	timeout := params.Large.Timeout()
	if n.BitLen() > params.Large.ThresholdBits && provider != nil && timeout > 0 {
		logger.Printf("factorize: %d-bit cofactor to %s (budget %v)", n.BitLen(), provider.Name(), timeout)
		found, err := provider.FindFactors(ctx, n, timeout)
		providerErr = err
		if len(found) > utils.MaxFactorCount {
			found = found[:utils.MaxFactorCount]
		}
		parts = splitBy(n, found)
	}

	var out mprsa.StageResult
	var composites []*big.Int
	for _, part := range parts {
		factors, leftover := absorb(part, params.Trial.Bound, mprsa.StrategyLargeFactor)
		out.Factors = append(out.Factors, factors...)
		if !utils.IsOne(leftover) {
			composites = append(composites, leftover)
		}
	}

	var rest []*big.Int
	for _, c := range composites {
		if c.BitLen() > params.Large.ThresholdBits {
			rest = append(rest, c)
			continue
		}
		factors, unsplit := sweep(c, params, logger)
		out.Factors = append(out.Factors, factors...)
		rest = append(rest, unsplit...)
	}
	out.Cofactor = utils.Product(rest)
	return out, providerErr
}

// splitBy divides the reported divisors out of n. Values that do not divide
// what is left are ignored. The remainder is the last part.
func splitBy(n *big.Int, divisors []*big.Int) []*big.Int {
	rem := new(big.Int).Set(n)
	var parts []*big.Int
	g := new(big.Int)
	for _, d := range divisors {
		if d == nil || d.Sign() <= 0 {
			continue
		}
		g.GCD(nil, nil, d, rem)
		for g.Cmp(big.NewInt(1)) > 0 && g.Cmp(rem) < 0 {
			parts = append(parts, new(big.Int).Set(g))
			rem.Quo(rem, g)
			g.GCD(nil, nil, g, rem)
		}
	}
	return append(parts, rem)
}

// sweep splits a composite with repeated rho runs, at most Sweeps of them.
// It returns the classified factors and the pieces it could not split.
func sweep(n *big.Int, params mprsa.Params, logger *log.Logger) ([]mprsa.Factor, []*big.Int) {
	var factors []mprsa.Factor
	var unsplit []*big.Int
	pending := []*big.Int{new(big.Int).Set(n)}
	runs := 0
	for len(pending) > 0 {
		m := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if f, ok := classify(m, mprsa.StrategyRho); ok {
			factors = append(factors, f)
			continue
		}
		if runs >= params.Large.Sweeps {
			unsplit = append(unsplit, m)
			continue
		}
		runs++
		res := rho.FindWithRetries(m, params.Rho)
		if !res.OK() {
			logger.Printf("factorize: sweep %d on %d-bit composite: %s", runs, m.BitLen(), res.Outcome)
			unsplit = append(unsplit, m)
			continue
		}
		pending = append(pending, new(big.Int).Quo(m, res.Factor), res.Factor)
	}
	return factors, unsplit
}

// ResidualStage accepts whatever is left as a single factor so the multiset
// multiplies back to the modulus. The entry is certified, probable or
// composite according to what can be established about it.
func ResidualStage(n *big.Int) mprsa.StageResult {
	if n.Cmp(big.NewInt(1)) <= 0 {
		return mprsa.StageResult{Cofactor: big.NewInt(1)}
	}
	f, ok := classify(n, mprsa.StrategyResidual)
	if !ok {
		f = mprsa.Factor{Value: new(big.Int).Set(n), Kind: mprsa.KindComposite, Source: mprsa.StrategyResidual}
	}
	return mprsa.StageResult{Factors: []mprsa.Factor{f}, Cofactor: big.NewInt(1)}
}
