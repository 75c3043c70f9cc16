// Package solve runs the whole recovery: factor N, rebuild the private
// exponent, decrypt the ciphertext and decode the plaintext.
package solve

import (
	"context"
	"io"
	"log"
	"math/big"

	"github.com/pkg/errors"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/decode"
	"github.com/BackendStack21/mprsa-go/factorize"
	"github.com/BackendStack21/mprsa-go/recovery"
	"github.com/BackendStack21/mprsa-go/strategies/ecm"
)

// ErrInvalidInput indicates a missing or malformed N, e or c.
var ErrInvalidInput = errors.New("invalid input")

// Input is an intercepted public key and ciphertext.
type Input struct {
	N *big.Int `json:"n"`
	E *big.Int `json:"e"`
	C *big.Int `json:"c"`
	// KnownFactors are factors of N found by earlier runs, if any.
	KnownFactors []*big.Int `json:"known_factors,omitempty"`
}

// Result is everything a run learned.
type Result struct {
	Factorization *mprsa.Factorization `json:"factorization"`
	Key           *mprsa.PrivateKey    `json:"key,omitempty"`
	Plaintext     *big.Int             `json:"plaintext,omitempty"`
	Decoded       decode.Result        `json:"decoded"`
	Warnings      []string             `json:"warnings,omitempty"`
}

type config struct {
	logger         *log.Logger
	provider       ecm.Provider
	allowComposite bool
}

// Option configures Solve.
type Option func(*config)

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithProvider replaces the default large-factor provider.
func WithProvider(p ecm.Provider) Option {
	return func(c *config) { c.provider = p }
}

// AllowComposite lets key recovery proceed with a composite entry in the
// factor multiset. The plaintext is then almost certainly wrong; the result
// carries a warning.
func AllowComposite() Option {
	return func(c *config) { c.allowComposite = true }
}

// Solve recovers the plaintext of in.C. When factorization succeeds but key
// recovery does not, the partial result is returned together with the error.
func Solve(ctx context.Context, in Input, params mprsa.Params, opts ...Option) (*Result, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard, "", 0)
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	fopts := []factorize.Option{factorize.WithLogger(cfg.logger), factorize.WithKnownFactors(in.KnownFactors)}
	if cfg.provider != nil {
		fopts = append(fopts, factorize.WithProvider(cfg.provider))
	}
	orch, err := factorize.New(params, fopts...)
	if err != nil {
		return nil, err
	}

	fz, err := orch.Factorize(ctx, in.N)
	if err != nil {
		return nil, err
	}
	res := &Result{Factorization: fz}

	var key *mprsa.PrivateKey
	switch {
	case fz.HasComposite() && !cfg.allowComposite:
		return res, errors.Wrap(recovery.ErrCompositeFactor, "factorization incomplete")
	case fz.HasComposite():
		res.Warnings = append(res.Warnings, "factor multiset contains a composite entry: phi and d are wrong")
		key, err = recovery.RecoverKeyFromValues(fz.Modulus, fz.Values(), in.E)
	default:
		key, err = recovery.RecoverKey(fz, in.E)
	}
	if err != nil {
		return res, err
	}
	if fz.Provisional() {
		res.Warnings = append(res.Warnings, "some factors are only probable primes")
	}
	res.Key = key

	m, err := recovery.Decrypt(key, in.C)
	if err != nil {
		return res, err
	}
	res.Plaintext = m
	res.Decoded = decode.Decode(m, params.Decode)
	if !res.Decoded.Confident {
		res.Warnings = append(res.Warnings, "plaintext is not recognisable text; showing a best-effort rendering")
	}
	cfg.logger.Printf("solve: plaintext decoded via %s", res.Decoded.Method)
	return res, nil
}

func checkInput(in Input) error {
	if in.N == nil || in.E == nil || in.C == nil {
		return errors.Wrap(ErrInvalidInput, "n, e and c are required")
	}
	if in.N.Cmp(big.NewInt(1)) <= 0 {
		return errors.Wrap(ErrInvalidInput, "n must be greater than 1")
	}
	if in.E.Sign() <= 0 {
		return errors.Wrap(ErrInvalidInput, "e must be positive")
	}
	if in.C.Sign() < 0 || in.C.Cmp(in.N) >= 0 {
		return errors.Wrap(ErrInvalidInput, "c must be in [0, n)")
	}
	return nil
}
