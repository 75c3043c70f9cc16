// Package trial implements trial division for mprsa.
package trial

import (
	"math/big"
)

// Result is the outcome of trial division.
type Result struct {
	// Primes holds every prime factor <= the bound, with multiplicity, in
	// the order they were divided out.
	Primes []*big.Int
	// Cofactor is the input divided by all of Primes.
	Cofactor *big.Int
	// CofactorPrime is set when the search stopped because the candidate
	// passed the square root of the cofactor, which proves a cofactor > 1 prime.
	CofactorPrime bool
}

// All returns Primes followed by the cofactor when it is greater than one.
// The trailing cofactor is an unfactored remainder unless CofactorPrime is set.
func (r Result) All() []*big.Int {
	out := append([]*big.Int{}, r.Primes...)
	if r.Cofactor.Cmp(big.NewInt(1)) > 0 {
		out = append(out, new(big.Int).Set(r.Cofactor))
	}
	return out
}

// Divide strips every prime factor of n that is <= bound.
// Candidates are 2 and then the odd numbers up to min(bound, sqrt(cofactor)).
// n is not modified. Panics if n <= 0.
func Divide(n *big.Int, bound int64) Result {
	if n.Sign() <= 0 {
		panic("trial division of non-positive integer")
	}
	cof := new(big.Int).Set(n)
	res := Result{}

	q, r := new(big.Int), new(big.Int)
	cand := new(big.Int)

	// divideOut removes every power of d from cof.
	divideOut := func(d int64) {
		cand.SetInt64(d)
		for {
			q.QuoRem(cof, cand, r)
			if r.Sign() != 0 {
				return
			}
			res.Primes = append(res.Primes, big.NewInt(d))
			cof.Set(q)
		}
	}

	res.Cofactor = cof
	if bound < 2 {
		return res
	}
	divideOut(2)

	// d ends on the first odd candidate that was not tried.
	sq := new(big.Int)
	d := int64(3)
	for ; d <= bound; d += 2 {
		sq.SetInt64(d)
		sq.Mul(sq, sq)
		if sq.Cmp(cof) > 0 {
			break
		}
		divideOut(d)
	}

	// Every prime below d has been divided out, so a cofactor below d^2 is prime.
	sq.SetInt64(d)
	sq.Mul(sq, sq)
	res.CofactorPrime = cof.Cmp(big.NewInt(1)) > 0 && sq.Cmp(cof) > 0
	return res
}
