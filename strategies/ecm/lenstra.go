package ecm

import (
	"context"
	"encoding/binary"
	"log"
	"math/big"
	"math/bits"
	"time"

	"github.com/cznic/mathutil"
	"github.com/pkg/errors"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/utils"
)

const (
	DomainCurveA = "mprsa-ecm-curve-a-v1"
	DomainCurveX = "mprsa-ecm-curve-x-v1"
	DomainCurveY = "mprsa-ecm-curve-y-v1"
)

// Lenstra runs stage-1 elliptic curve factorization in process.
//
// Curves are short Weierstrass curves y^2 = x^3 + ax + b over Z/nZ in affine
// coordinates. Curve parameters are derived from Seed (or the modulus itself)
// with SHAKE256, so runs are reproducible.
type Lenstra struct {
	Curves int
	B1     uint64
	Seed   []byte
	Logger *log.Logger
}

// NewLenstra builds an in-process ECM provider from the large-factor parameters.
func NewLenstra(params mprsa.LargeFactorParams, logger *log.Logger) *Lenstra {
	return &Lenstra{
		Curves: params.LocalCurves,
		B1:     params.LocalB1,
		Logger: logger,
	}
}

func (l *Lenstra) Name() string { return "lenstra" }

func (l *Lenstra) logf(format string, v ...interface{}) {
	if l.Logger != nil {
		l.Logger.Printf(format, v...)
	}
}

// FindFactors keeps splitting whatever is left of n until it is prime, the
// curves run out or the budget expires.
func (l *Lenstra) FindFactors(ctx context.Context, n *big.Int, timeout time.Duration) ([]*big.Int, error) {
	if l.B1 < 2 || l.B1 > utils.MaxECMB1 {
		return nil, errors.Errorf("lenstra: B1 must be in [2, %d]", utils.MaxECMB1)
	}
	ctx, cancel := withBudget(ctx, timeout)
	defer cancel()

	powers := primePowers(l.B1)
	seed := l.Seed
	if len(seed) == 0 {
		seed = n.Bytes()
	}

	rem := new(big.Int).Set(n)
	var found []*big.Int
	for curve := 0; curve < l.Curves; curve++ {
		if utils.IsOne(rem) || utils.TestPrimality(rem) != utils.Composite {
			break
		}
		if rem.Bit(0) == 0 {
			found = append(found, big.NewInt(2))
			rem.Rsh(rem, 1)
			continue
		}

		g, err := tryCurve(ctx, rem, curveSeed(seed, curve), powers)
		if err != nil {
			return found, errors.Wrapf(ErrTimeout, "lenstra: %d curves tried", curve)
		}
		if g == nil {
			continue
		}
		l.logf("lenstra: curve %d found factor %s", curve, g)
		found = append(found, g)
		rem.Quo(rem, g)
	}
	return found, nil
}

// primePowers returns p^k for every prime p <= b1, with p^k the largest power
// not exceeding b1. Their product is the stage-1 multiplier.
func primePowers(b1 uint64) []uint64 {
	var out []uint64
	for p := uint64(2); p <= b1; p++ {
		if !mathutil.IsPrime(uint32(p)) {
			continue
		}
		pk := p
		for pk <= b1/p {
			pk *= p
		}
		out = append(out, pk)
	}
	return out
}

func curveSeed(seed []byte, curve int) []byte {
	out := make([]byte, len(seed)+8)
	copy(out, seed)
	binary.LittleEndian.PutUint64(out[len(seed):], uint64(curve))
	return out
}

// tryCurve runs stage 1 on one curve. It returns a proper factor of n, or nil
// when the curve gave nothing.
func tryCurve(ctx context.Context, n *big.Int, seed []byte, powers []uint64) (*big.Int, error) {
	a := utils.SampleBelow(DomainCurveA, seed, n)
	x := utils.SampleBelow(DomainCurveX, seed, n)
	y := utils.SampleBelow(DomainCurveY, seed, n)

	// b = y^2 - x^3 - ax, then require gcd(4a^3 + 27b^2, n) == 1.
	b := new(big.Int).Mul(y, y)
	t := new(big.Int).Mul(x, x)
	t.Mul(t, x)
	b.Sub(b, t)
	t.Mul(a, x)
	b.Sub(b, t)
	b.Mod(b, n)

	disc := new(big.Int).Mul(a, a)
	disc.Mul(disc, a)
	disc.Lsh(disc, 2)
	t.Mul(b, b)
	t.Mul(t, big.NewInt(27))
	disc.Add(disc, t)
	disc.Mod(disc, n)
	if g := new(big.Int).GCD(nil, nil, disc, n); !utils.IsOne(g) {
		if g.Cmp(n) == 0 {
			return nil, nil
		}
		return g, nil
	}

	c := &curve{a: a, n: n}
	p := point{x: x, y: y}
	for i, k := range powers {
		if i%64 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var g *big.Int
		p, g = c.mul(p, k)
		if g != nil {
			if g.Cmp(n) == 0 {
				return nil, nil
			}
			return g, nil
		}
		if p.inf {
			return nil, nil
		}
	}
	return nil, nil
}

type point struct {
	x, y *big.Int
	inf  bool
}

type curve struct {
	a, n *big.Int
}

// add returns p + q. When a denominator is not invertible modulo n the sum is
// undefined and add returns gcd(denominator, n) instead.
func (c *curve) add(p, q point) (point, *big.Int) {
	if p.inf {
		return q, nil
	}
	if q.inf {
		return p, nil
	}

	n := c.n
	num, den := new(big.Int), new(big.Int)
	if p.x.Cmp(q.x) == 0 {
		den.Add(p.y, q.y)
		den.Mod(den, n)
		if den.Sign() == 0 {
			return point{inf: true}, nil
		}
		// (3x^2 + a) / (y1 + y2); y1 + y2 = 2y when the points are equal.
		num.Mul(p.x, p.x)
		num.Mul(num, big.NewInt(3))
		num.Add(num, c.a)
	} else {
		num.Sub(q.y, p.y)
		den.Sub(q.x, p.x)
		den.Mod(den, n)
	}

	inv := new(big.Int).ModInverse(den, n)
	if inv == nil {
		return point{}, new(big.Int).GCD(nil, nil, den, n)
	}
	lambda := num.Mul(num, inv)
	lambda.Mod(lambda, n)

	x3 := new(big.Int).Mul(lambda, lambda)
	x3.Sub(x3, p.x)
	x3.Sub(x3, q.x)
	x3.Mod(x3, n)

	y3 := new(big.Int).Sub(p.x, x3)
	y3.Mul(y3, lambda)
	y3.Sub(y3, p.y)
	y3.Mod(y3, n)

	return point{x: x3, y: y3}, nil
}

// mul returns k*p by double-and-add, stopping at the first failed inverse.
func (c *curve) mul(p point, k uint64) (point, *big.Int) {
	r := point{inf: true}
	for i := bits.Len64(k) - 1; i >= 0; i-- {
		var g *big.Int
		if r, g = c.add(r, r); g != nil {
			return r, g
		}
		if (k>>uint(i))&1 == 1 {
			if r, g = c.add(r, p); g != nil {
				return r, g
			}
		}
	}
	return r, nil
}
