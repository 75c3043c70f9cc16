// Package ecm finds medium-sized factors that are out of reach for trial
// division and Pollard's rho.
//
// Every finder implements Provider. The orchestrator only sees the interface,
// so an out-of-process GMP-ECM run, the in-process Lenstra implementation, the
// lattigo finder for small composites, a list of factors known in advance and
// a no-op stub are interchangeable.
package ecm

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/BackendStack21/mprsa-go/utils"
)

var (
	// ErrUnavailable indicates the finder cannot run in this environment.
	ErrUnavailable = errors.New("large-factor finder unavailable")

	// ErrTimeout indicates the finder ran out of time.
	ErrTimeout = errors.New("large-factor finder timed out")
)

// Provider finds zero or more factors of n within a time budget.
//
// Both errors above are expected outcomes: callers treat them exactly like an
// empty result. Factors returned alongside an error are still valid. A
// timeout <= 0 means no budget beyond ctx.
type Provider interface {
	Name() string
	FindFactors(ctx context.Context, n *big.Int, timeout time.Duration) ([]*big.Int, error)
}

// withBudget derives the context a provider should run under.
func withBudget(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// properDivisor reports whether 1 < d < n and d | n.
func properDivisor(d, n *big.Int) bool {
	if d == nil || d.Cmp(big.NewInt(1)) <= 0 || d.Cmp(n) >= 0 {
		return false
	}
	return new(big.Int).Mod(n, d).Sign() == 0
}

// Noop never finds anything. It stands in when no finder is configured.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) FindFactors(context.Context, *big.Int, time.Duration) ([]*big.Int, error) {
	return nil, nil
}

// Known returns factors supplied in advance, such as results of an earlier
// ECM run, whenever they divide the cofactor.
type Known struct {
	Factors []*big.Int
}

func (k *Known) Name() string { return "known" }

func (k *Known) FindFactors(ctx context.Context, n *big.Int, _ time.Duration) ([]*big.Int, error) {
	rem := new(big.Int).Set(n)
	var found []*big.Int
	for _, f := range k.Factors {
		for properDivisor(f, rem) {
			found = append(found, new(big.Int).Set(f))
			rem.Quo(rem, f)
		}
		if err := ctx.Err(); err != nil {
			return found, errors.Wrap(ErrTimeout, err.Error())
		}
	}
	return found, nil
}

// Chain runs providers in order against whatever is left of n, sharing one
// budget, and stops once the remainder is 1 or no longer composite.
type Chain []Provider

func (c Chain) Name() string {
	name := "chain("
	for i, p := range c {
		if i > 0 {
			name += ","
		}
		name += p.Name()
	}
	return name + ")"
}

func (c Chain) FindFactors(ctx context.Context, n *big.Int, timeout time.Duration) ([]*big.Int, error) {
	ctx, cancel := withBudget(ctx, timeout)
	defer cancel()

	rem := new(big.Int).Set(n)
	var found []*big.Int
	var firstErr error
	for _, p := range c {
		if utils.IsOne(rem) || utils.TestPrimality(rem) != utils.Composite {
			break
		}
		if ctx.Err() != nil {
			if firstErr == nil {
				firstErr = ErrTimeout
			}
			break
		}

		remaining := time.Duration(0)
		if dl, ok := ctx.Deadline(); ok {
			remaining = time.Until(dl)
		}
		fs, err := p.FindFactors(ctx, rem, remaining)
		for _, f := range fs {
			if properDivisor(f, rem) {
				found = append(found, f)
				rem.Quo(rem, f)
			}
		}
		if err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, p.Name())
		}
	}
	return found, firstErr
}
