// Package rho implements Pollard's rho factorization for mprsa.
package rho

import (
	"math/big"

	mprsa "github.com/BackendStack21/mprsa-go"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Outcome describes how a rho search ended.
type Outcome int

const (
	// Found means a factor 1 < d < n was returned.
	Found Outcome = iota
	// Cycled means the gcd hit n: the sequence closed without separating a factor.
	Cycled
	// Exhausted means the iteration budget ran out.
	Exhausted
	// Trivial means n was too small to split (n < 4).
	Trivial
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Cycled:
		return "cycled"
	case Exhausted:
		return "exhausted"
	case Trivial:
		return "trivial"
	default:
		return "unknown"
	}
}

// Result is the outcome of a rho search.
type Result struct {
	Factor     *big.Int // nil unless Outcome == Found
	Outcome    Outcome
	Iterations int // total steps across attempts
	Attempts   int
	C          int64 // increment of the map that succeeded
}

// OK reports whether a factor was found.
func (r Result) OK() bool {
	return r.Outcome == Found
}

// Find runs one attempt with f(x) = x^2 + c mod n from x0 = 2, advancing a
// tortoise one step and a hare two steps per iteration. Failure is a normal
// outcome: the caller falls back to another strategy.
func Find(n *big.Int, maxIterations int, c int64) Result {
	if n.Cmp(big.NewInt(4)) < 0 {
		return Result{Outcome: Trivial, Attempts: 1, C: c}
	}
	if n.Bit(0) == 0 {
		return Result{Factor: big.NewInt(2), Outcome: Found, Attempts: 1, C: c}
	}

	inc := big.NewInt(c)
	f := func(x *big.Int) {
		x.Mul(x, x)
		x.Add(x, inc)
		x.Mod(x, n)
	}

	x := new(big.Int).Set(two)
	y := new(big.Int).Set(two)
	diff := new(big.Int)
	g := new(big.Int)

	for i := 1; i <= maxIterations; i++ {
		f(x)
		f(y)
		f(y)

		diff.Sub(x, y)
		diff.Abs(diff)
		g.GCD(nil, nil, diff, n)

		switch {
		case g.Cmp(one) == 0:
			continue
		case g.Cmp(n) == 0:
			return Result{Outcome: Cycled, Iterations: i, Attempts: 1, C: c}
		default:
			return Result{Factor: new(big.Int).Set(g), Outcome: Found, Iterations: i, Attempts: 1, C: c}
		}
	}
	return Result{Outcome: Exhausted, Iterations: maxIterations, Attempts: 1, C: c}
}

// FindWithRetries runs Find with c = 1, then c = 2, 3, ... for params.Retries
// more attempts, stopping at the first factor. Every attempt gets the full
// iteration budget.
func FindWithRetries(n *big.Int, params mprsa.RhoParams) Result {
	total := Result{Outcome: Exhausted}
	for attempt := 0; attempt <= params.Retries; attempt++ {
		res := Find(n, params.MaxIterations, int64(attempt+1))
		total.Iterations += res.Iterations
		total.Attempts++
		total.Outcome = res.Outcome
		total.C = res.C
		if res.Outcome == Found || res.Outcome == Trivial {
			total.Factor = res.Factor
			return total
		}
	}
	return total
}
