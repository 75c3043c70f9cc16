// Package recovery rebuilds a multi-prime RSA private key from a factor
// multiset and performs the RSA primitives with it.
package recovery

import (
	"fmt"
	"math/big"

	"github.com/cznic/mathutil"
	"github.com/pkg/errors"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/utils"
)

var (
	// ErrNotInvertible indicates gcd(e, phi) != 1. It is an integrity
	// failure: either the factor multiset is wrong or e is malformed.
	ErrNotInvertible = errors.New("exponent not invertible modulo phi")

	// ErrCompositeFactor indicates the multiset contains a known composite.
	ErrCompositeFactor = errors.New("factor multiset contains a composite entry")

	// ErrOutOfRange indicates a message or ciphertext outside [0, N).
	ErrOutOfRange = errors.New("value out of range")

	// ErrInvalidKey indicates a structurally broken key.
	ErrInvalidKey = errors.New("invalid key")
)

var one = big.NewInt(1)

// IntegrityError reports a failed modular inversion together with the gcd
// that prevented it.
type IntegrityError struct {
	GCD *big.Int
	E   *big.Int
	Phi *big.Int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("gcd(e, phi) = %s, expected 1", e.GCD)
}

// Is makes IntegrityError match ErrNotInvertible.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrNotInvertible
}

// Totient returns the product of (f - 1) over factors. The result is only
// Euler's phi when every factor is a distinct prime.
func Totient(factors []*big.Int) *big.Int {
	terms := make([]*big.Int, len(factors))
	for i, f := range factors {
		terms[i] = new(big.Int).Sub(f, one)
	}
	return utils.Product(terms)
}

// Phi returns Euler's phi for a multiset of primes, honouring repeated
// primes: p^k contributes p^(k-1) * (p - 1). For distinct primes it equals
// Totient.
func Phi(primes []*big.Int) *big.Int {
	seen := make(map[string]bool, len(primes))
	terms := make([]*big.Int, 0, len(primes))
	for _, p := range primes {
		key := p.String()
		if seen[key] {
			terms = append(terms, new(big.Int).Set(p))
			continue
		}
		seen[key] = true
		terms = append(terms, new(big.Int).Sub(p, one))
	}
	return utils.Product(terms)
}

// ExtendedGCD returns (g, x, y) with a*x + b*y = g = gcd(a, b). It is
// iterative, so the depth does not grow with the operand size.
func ExtendedGCD(a, b *big.Int) (g, x, y *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	q, tmp := new(big.Int), new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		tmp.Mul(q, r)
		oldR, r = r, oldR.Sub(oldR, tmp)

		tmp.Mul(q, s)
		oldS, s = s, oldS.Sub(oldS, tmp)

		tmp.Mul(q, t)
		oldT, t = t, oldT.Sub(oldT, tmp)
	}
	if oldR.Sign() < 0 {
		oldR.Neg(oldR)
		oldS.Neg(oldS)
		oldT.Neg(oldT)
	}
	return oldR, oldS, oldT
}

// ModInverse returns d in [0, m) with a*d = 1 mod m. When gcd(a, m) != 1 the
// error is an *IntegrityError carrying the gcd.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, errors.New("modulus must be positive")
	}
	g, x, _ := ExtendedGCD(new(big.Int).Mod(a, m), m)
	if g.Cmp(one) != 0 {
		return nil, &IntegrityError{GCD: g, E: new(big.Int).Set(a), Phi: new(big.Int).Set(m)}
	}
	return x.Mod(x, m), nil
}

// RecoverKey computes phi and d = e^-1 mod phi from a factorization. A
// multiset with a known composite entry is refused; use RecoverKeyFromValues
// to force the computation anyway.
func RecoverKey(fz *mprsa.Factorization, e *big.Int) (*mprsa.PrivateKey, error) {
	if fz == nil || fz.Modulus == nil {
		return nil, errors.Wrap(ErrInvalidKey, "missing factorization")
	}
	if fz.HasComposite() {
		return nil, ErrCompositeFactor
	}
	if !fz.Verify() {
		return nil, errors.Wrap(ErrInvalidKey, "factors do not multiply to the modulus")
	}
	return RecoverKeyFromValues(fz.Modulus, fz.Values(), e)
}

// RecoverKeyFromValues treats every value as prime. If one is not, phi and
// d are wrong and decryption yields garbage.
func RecoverKeyFromValues(n *big.Int, primes []*big.Int, e *big.Int) (*mprsa.PrivateKey, error) {
	if n == nil || n.Cmp(one) <= 0 {
		return nil, errors.Wrap(ErrInvalidKey, "modulus must be greater than 1")
	}
	if e == nil || e.Sign() <= 0 {
		return nil, errors.Wrap(ErrInvalidKey, "public exponent must be positive")
	}
	for _, p := range primes {
		if p == nil || p.Cmp(one) <= 0 {
			return nil, errors.Wrap(ErrInvalidKey, "factors must be greater than 1")
		}
	}

	phi := Phi(primes)
	d, err := ModInverse(e, phi)
	if err != nil {
		return nil, err
	}

	key := &mprsa.PrivateKey{
		PublicKey: mprsa.PublicKey{N: new(big.Int).Set(n), E: new(big.Int).Set(e)},
		D:         d,
		Phi:       phi,
		Primes:    make([]*big.Int, len(primes)),
	}
	for i, p := range primes {
		key.Primes[i] = new(big.Int).Set(p)
	}
	return key, nil
}

// Encrypt returns m^e mod N.
func Encrypt(pub *mprsa.PublicKey, m *big.Int) (*big.Int, error) {
	if err := checkKey(pub); err != nil {
		return nil, err
	}
	if err := checkRange(m, pub.N); err != nil {
		return nil, errors.Wrap(err, "message")
	}
	return modPow(m, pub.E, pub.N), nil
}

// Decrypt returns c^d mod N.
func Decrypt(key *mprsa.PrivateKey, c *big.Int) (*big.Int, error) {
	if key == nil || key.D == nil {
		return nil, errors.Wrap(ErrInvalidKey, "missing private exponent")
	}
	if err := checkKey(&key.PublicKey); err != nil {
		return nil, err
	}
	if err := checkRange(c, key.N); err != nil {
		return nil, errors.Wrap(err, "ciphertext")
	}
	return modPow(c, key.D, key.N), nil
}

func checkKey(pub *mprsa.PublicKey) error {
	if pub == nil || pub.N == nil || pub.E == nil {
		return errors.Wrap(ErrInvalidKey, "missing modulus or exponent")
	}
	if pub.N.Cmp(one) <= 0 || pub.E.Sign() <= 0 {
		return errors.Wrap(ErrInvalidKey, "modulus must exceed 1 and exponent must be positive")
	}
	return nil
}

func checkRange(v, n *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(n) >= 0 {
		return ErrOutOfRange
	}
	return nil
}

// modPow is square-and-multiply exponentiation. mathutil.ModPowBigInt may
// reuse its base, so it gets a copy.
func modPow(b, e, m *big.Int) *big.Int {
	return mathutil.ModPowBigInt(new(big.Int).Set(b), e, m)
}
